package report

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Saved is a report file found on disk.
type Saved struct {
	Path string
	Meta Meta
}

// Save writes markdown to <dir>/<slug>.md and returns the path.
func Save(dir, topic, markdown string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, Slug(topic, now)+".md")
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// List returns the reports in dir, newest generated_at first. Files without
// readable frontmatter are skipped.
func List(dir string) ([]Saved, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []Saved
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		b, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		meta, _, err := ParseDocument(b)
		if err != nil || meta.Topic == "" {
			continue
		}
		out = append(out, Saved{Path: path, Meta: meta})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Meta.GeneratedAt > out[j].Meta.GeneratedAt })
	return out, nil
}

// ParseDocument splits a rendered report into its frontmatter and body.
// The frontmatter sits between the first two lines that are exactly "---";
// a document without it has an empty Meta.
func ParseDocument(b []byte) (Meta, string, error) {
	if !bytes.HasPrefix(b, []byte("---")) {
		return Meta{}, string(b), nil
	}
	sc := bufio.NewScanner(bytes.NewReader(b))
	sc.Buffer(make([]byte, 0, 64*1024), len(b)+1)
	sc.Scan() // opening fence
	var fm strings.Builder
	closed := false
	offset := len(sc.Bytes()) + 1
	for sc.Scan() {
		line := sc.Text()
		offset += len(line) + 1
		if strings.TrimSpace(line) == "---" {
			closed = true
			break
		}
		fm.WriteString(line)
		fm.WriteByte('\n')
	}
	if !closed {
		return Meta{}, "", fmt.Errorf("report: unterminated frontmatter")
	}
	var m Meta
	if err := yaml.Unmarshal([]byte(fm.String()), &m); err != nil {
		return Meta{}, "", err
	}
	body := ""
	if offset < len(b) {
		body = string(b[offset:])
	}
	return m, body, nil
}
