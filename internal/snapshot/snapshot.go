// Package snapshot writes fetch results the way the CLI hands them on: one
// compact JSON line on stdout and an indented copy on disk.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"topic-crawler/internal/model"
)

// Write encodes payload once compactly to w and indented to path. With
// compact set the raw upstream payloads are dropped from both. An empty
// path skips the file.
func Write(w io.Writer, path string, payload any, compact bool) error {
	if compact {
		payload = Strip(payload)
	}
	line, err := encode(payload, "")
	if err != nil {
		return err
	}
	if _, err := w.Write(line); err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	pretty, err := encode(payload, "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, pretty, 0o644); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	return nil
}

// Strip returns payload without raw upstream data. Unknown types pass
// through unchanged.
func Strip(payload any) any {
	switch p := payload.(type) {
	case []model.NewsItem:
		return model.StripRaw(p)
	case map[string][]model.NewsItem:
		out := make(map[string][]model.NewsItem, len(p))
		for k, v := range p {
			out[k] = model.StripRaw(v)
		}
		return out
	case []model.TopicItem:
		return model.StripTopicRaw(p)
	}
	return payload
}

// DatedPath is <root>/<source>/<YYYY-MM-DD>.json for t's UTC date.
func DatedPath(root, source string, t time.Time) string {
	return filepath.Join(root, source, t.UTC().Format(time.DateOnly)+".json")
}

func encode(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
