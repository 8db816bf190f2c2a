package newsnow

import (
	"context"
	"log/slog"
	"time"

	"topic-crawler/internal/model"
)

// MinInterval is the shortest pause between two platforms of a batch.
const MinInterval = 50 * time.Millisecond

// FetchBatch fetches platforms one after another, pausing max(MinInterval,
// interval) between consecutive platforms. Every platform id appears in the
// result, with an empty list when nothing was fetched. A cancelled context
// stops the batch and returns what was fetched so far.
func (c *Client) FetchBatch(ctx context.Context, platforms []model.Platform, interval time.Duration, opts Options) (map[string][]model.NewsItem, error) {
	pause := max(interval, MinInterval)
	out := make(map[string][]model.NewsItem, len(platforms))
	for i, p := range platforms {
		if i > 0 {
			if err := c.sleep(ctx, pause); err != nil {
				return out, err
			}
		}
		items, err := c.FetchLatest(ctx, p.ID, p.Name, opts)
		if err != nil {
			return out, err
		}
		if items == nil {
			items = []model.NewsItem{}
		}
		out[p.ID] = items
	}
	slog.Info("newsnow: batch done", "platforms", len(platforms))
	return out, nil
}
