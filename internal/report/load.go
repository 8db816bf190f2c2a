// Package report turns stored video-search snapshots into a summary and a
// markdown report.
package report

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"topic-crawler/internal/model"
)

// ErrInvalidDate is returned for a date that is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("report: date must be YYYY-MM-DD")

// LoadTopicItems reads <dataRoot>/bilibili/<date>.json, or the most recently
// modified snapshot when date is empty. A missing directory or file yields
// no records and no error.
func LoadTopicItems(dataRoot, date string) ([]model.TopicItem, error) {
	dir := filepath.Join(dataRoot, model.PlatformBilibili)
	path := ""
	if date = strings.TrimSpace(date); date != "" {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			return nil, ErrInvalidDate
		}
		path = filepath.Join(dir, date+".json")
	} else {
		latest, err := newestJSON(dir)
		if err != nil || latest == "" {
			return []model.TopicItem{}, err
		}
		path = latest
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.TopicItem{}, nil
	}
	if err != nil {
		return nil, err
	}
	var items []model.TopicItem
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.TopicItem{}
	}
	return items, nil
}

func newestJSON(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var best string
	var bestMod int64
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); best == "" || mod > bestMod {
			best, bestMod = filepath.Join(dir, e.Name()), mod
		}
	}
	return best, nil
}
