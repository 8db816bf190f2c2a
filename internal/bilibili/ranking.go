package bilibili

import (
	"context"
	"log/slog"

	"topic-crawler/internal/model"
	"topic-crawler/internal/parse"
)

// FetchRankingHotTopics reads the mobile hot-ranking list. When the ranking
// endpoint answers with an empty list the hot-keyword endpoint is probed
// instead; a failure of that fallback counts as "no data". HTTP failures of
// the ranking endpoint itself are returned.
func (c *Client) FetchRankingHotTopics(ctx context.Context, limit int) ([]model.HotTopic, error) {
	if limit <= 0 {
		return []model.HotTopic{}, nil
	}
	limit = min(limit, MaxRankingLimit)

	body, err := c.rankingBody(ctx, limit)
	if err != nil {
		return nil, err
	}
	_, entries := probeList(body, rankingRules)
	if len(entries) == 0 {
		entries = c.fallbackEntries(ctx)
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}

	items := make([]model.HotTopic, 0, len(entries))
	for i, e := range entries {
		raw, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if ht, ok := hotTopicFromEntry(raw, i+1); ok {
			items = append(items, ht)
		}
	}
	return items, nil
}

func (c *Client) fallbackEntries(ctx context.Context) []any {
	slog.Info("bilibili: ranking list empty, falling back to hotword")
	body, err := c.hotwordBody(ctx)
	if err != nil {
		slog.Warn("bilibili: hotword fallback failed", "error", err)
		return nil
	}
	_, entries := probeList(body, hotListRules)
	return entries
}

// hotTopicFromEntry maps one ranking entry; position is its 1-based index
// in the fetched list and is used when the entry carries no rank of its own.
func hotTopicFromEntry(raw map[string]any, position int) (model.HotTopic, bool) {
	kw := entryKeyword(raw)
	if kw == "" {
		return model.HotTopic{}, false
	}
	rank := position
	if r, ok := parse.Int(firstTruthy(raw["position"], raw["pos"])); ok && r > 0 {
		rank = int(r)
	}
	ht := model.HotTopic{
		Keyword: kw,
		Rank:    rank,
		Icon:    stringOf(raw["icon"]),
	}
	if v, ok := parse.StrictInt(raw["heat_score"]); ok {
		ht.HeatValue = &v
	}
	if v, ok := parse.StrictInt(raw["hot_id"]); ok {
		ht.HotID = &v
	}
	return ht, true
}
