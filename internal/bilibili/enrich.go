package bilibili

import (
	"context"
	"log/slog"
	"sync"

	"topic-crawler/internal/model"

	"golang.org/x/sync/semaphore"
)

// TopicSearcher is the video-search adapter used for enrichment.
type TopicSearcher interface {
	FetchHotTopics(ctx context.Context, keyword string, limit int) ([]model.TopicItem, error)
}

// EnrichHotTopicsWithStats searches every topic's keyword with page size per
// and records how many videos came back and their mean view count. At most
// concurrency searches run at once. A failed search leaves VideoCount at 0
// and AvgViews nil; it never aborts the other topics. Items are updated in
// place and the same slice is returned.
func EnrichHotTopicsWithStats(ctx context.Context, s TopicSearcher, items []model.HotTopic, per, concurrency int) []model.HotTopic {
	if per <= 0 || len(items) == 0 {
		return items
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	gate := semaphore.NewWeighted(int64(concurrency))
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(it *model.HotTopic) {
			defer wg.Done()
			count, avg := gatedStats(ctx, gate, s, it.Keyword, per)
			it.VideoCount, it.AvgViews = &count, avg
		}(&items[i])
	}
	wg.Wait()
	return items
}

// gatedStats holds one permit for the duration of the search. A context
// cancelled while waiting for a permit counts as a failed search.
func gatedStats(ctx context.Context, gate *semaphore.Weighted, s TopicSearcher, keyword string, per int) (int, *int64) {
	if err := gate.Acquire(ctx, 1); err != nil {
		return 0, nil
	}
	defer gate.Release(1)
	return keywordStats(ctx, s, keyword, per)
}

// keywordStats returns the number of results (capped at per) and the
// truncated mean views over results that reported a view count.
func keywordStats(ctx context.Context, s TopicSearcher, keyword string, per int) (int, *int64) {
	results, err := s.FetchHotTopics(ctx, keyword, per)
	if err != nil {
		slog.Warn("bilibili: enrich search failed", "keyword", keyword, "error", err)
		return 0, nil
	}
	if len(results) > per {
		results = results[:per]
	}
	var sum, n int64
	for _, r := range results {
		if r.Views != nil {
			sum += *r.Views
			n++
		}
	}
	if n == 0 {
		return len(results), nil
	}
	avg := sum / n
	return len(results), &avg
}
