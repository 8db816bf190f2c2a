package worker

import (
	"context"
	"io"
	"log/slog"
	"time"

	"topic-crawler/internal/bilibili"
	"topic-crawler/internal/model"
	"topic-crawler/internal/newsnow"
	"topic-crawler/internal/snapshot"
	"topic-crawler/internal/storage"
)

// NewsSource fetches headlines for a list of platforms.
type NewsSource interface {
	FetchBatch(ctx context.Context, platforms []model.Platform, interval time.Duration, opts newsnow.Options) (map[string][]model.NewsItem, error)
}

// VideoSource is the subset of the bilibili client the collector needs.
type VideoSource interface {
	bilibili.TopicSearcher
	FetchRankingHotTopics(ctx context.Context, limit int) ([]model.HotTopic, error)
}

// SnapshotSaver persists snapshots; see storage.RedisStore.
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, source string, fetchedAt time.Time, payload any) (storage.Snapshot, error)
	MarkSeen(ctx context.Context, source, id string, d time.Duration) (bool, error)
}

// Sources written under DataRoot and to the store.
const (
	SourceNewsnow     = "newsnow"
	SourceBiliHot     = "bilibili_hot"
	SourceBiliHotword = "bilibili_hotword"
)

const (
	searchPerKeyword = 20
	autoKeywords     = 3
	seenTTL          = 72 * time.Hour
)

// Collector periodically fetches every source and writes the results to
// DataRoot and, when Store is set, to the snapshot store.
type Collector struct {
	News     NewsSource
	Video    VideoSource
	Store    SnapshotSaver
	DataRoot string
	Interval time.Duration

	Platforms    []model.Platform
	NewsOptions  newsnow.Options
	NewsInterval time.Duration

	HotLimit          int
	EnrichPer         int
	EnrichConcurrency int

	// Keywords are searched every run; when empty the top ranking keywords are used.
	Keywords []string

	now func() time.Time
}

func (w *Collector) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 30 * time.Minute
	}

	// initial run
	w.runOnce(ctx)

	t := time.NewTicker(w.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Collector) clock() time.Time {
	if w.now != nil {
		return w.now()
	}
	return time.Now().UTC()
}

func (w *Collector) runOnce(ctx context.Context) {
	if w.News != nil && len(w.Platforms) > 0 {
		w.collectNews(ctx)
	}
	if w.Video != nil {
		w.collectVideo(ctx)
	}
}

func (w *Collector) collectNews(ctx context.Context) {
	at := w.clock()
	batch, err := w.News.FetchBatch(ctx, w.Platforms, w.NewsInterval, w.NewsOptions)
	if err != nil {
		slog.Error("collector: news batch interrupted", "error", err)
		return
	}
	w.write(SourceNewsnow, at, batch)
	for pid, items := range batch {
		w.save(ctx, pid, at, model.StripRaw(items))
		fresh := 0
		for _, it := range items {
			if w.Store == nil {
				break
			}
			if ok, err := w.Store.MarkSeen(ctx, pid, it.ID, seenTTL); err == nil && ok {
				fresh++
			}
		}
		slog.Info("collector: news stored", "platform", pid, "items", len(items), "new", fresh)
	}
}

func (w *Collector) collectVideo(ctx context.Context) {
	at := w.clock()
	hot, err := w.Video.FetchRankingHotTopics(ctx, w.HotLimit)
	if err != nil {
		slog.Error("collector: bilibili ranking failed", "error", err)
	} else {
		hot = bilibili.EnrichHotTopicsWithStats(ctx, w.Video, hot, w.EnrichPer, w.EnrichConcurrency)
		w.write(SourceBiliHot, at, hot)
		w.save(ctx, SourceBiliHot, at, hot)
		slog.Info("collector: bilibili ranking stored", "topics", len(hot))
	}

	keywords := w.Keywords
	if len(keywords) == 0 {
		for _, h := range hot[:min(autoKeywords, len(hot))] {
			keywords = append(keywords, h.Keyword)
		}
	}
	var records []model.TopicItem
	for _, kw := range keywords {
		items, err := w.Video.FetchHotTopics(ctx, kw, searchPerKeyword)
		if err != nil {
			slog.Warn("collector: bilibili search failed", "keyword", kw, "error", err)
			continue
		}
		records = append(records, model.StripTopicRaw(items)...)
	}
	if len(keywords) == 0 {
		return
	}
	if records == nil {
		records = []model.TopicItem{}
	}
	w.write(model.PlatformBilibili, at, records)
	w.save(ctx, model.PlatformBilibili, at, records)
	slog.Info("collector: bilibili search stored", "keywords", len(keywords), "records", len(records))
}

// write stores payload at <DataRoot>/<source>/<date>.json without raw data.
func (w *Collector) write(source string, at time.Time, payload any) {
	if w.DataRoot == "" {
		return
	}
	path := snapshot.DatedPath(w.DataRoot, source, at)
	if err := snapshot.Write(io.Discard, path, payload, true); err != nil {
		slog.Error("collector: write snapshot failed", "path", path, "error", err)
	}
}

func (w *Collector) save(ctx context.Context, source string, at time.Time, payload any) {
	if w.Store == nil {
		return
	}
	if _, err := w.Store.SaveSnapshot(ctx, source, at, payload); err != nil {
		slog.Error("collector: store snapshot failed", "source", source, "error", err)
	}
}
