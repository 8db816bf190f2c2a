package bilibili

import (
	"context"
	"log/slog"

	"topic-crawler/internal/model"
)

// FetchHotSearch returns up to limit entries of the hot-keyword list.
// Entries without a keyword are skipped and do not count toward limit.
func (c *Client) FetchHotSearch(ctx context.Context, limit int) ([]model.TopicItem, error) {
	if limit <= 0 {
		return []model.TopicItem{}, nil
	}
	body, err := c.hotwordBody(ctx)
	if err != nil {
		return nil, err
	}
	shape, candidates := probeList(body, hotListRules)
	if shape == "" {
		slog.Warn("bilibili: hotword response shape not recognised")
		return []model.TopicItem{}, nil
	}
	items := make([]model.TopicItem, 0, min(limit, len(candidates)))
	for _, e := range candidates {
		if len(items) >= limit {
			break
		}
		raw, ok := e.(map[string]any)
		if !ok {
			continue
		}
		kw := entryKeyword(raw)
		if kw == "" {
			continue
		}
		items = append(items, model.TopicItem{
			ID:       kw,
			Platform: model.PlatformBilibili,
			Keyword:  kw,
			Title:    kw,
			Raw:      raw,
		})
	}
	slog.Debug("bilibili: hotword done", "shape", shape, "items", len(items))
	return items, nil
}
