package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"topic-crawler/internal/model"
	"topic-crawler/internal/newsnow"
	"topic-crawler/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeNews struct {
	got []model.Platform
}

func (f *fakeNews) FetchBatch(ctx context.Context, platforms []model.Platform, interval time.Duration, opts newsnow.Options) (map[string][]model.NewsItem, error) {
	f.got = platforms
	out := map[string][]model.NewsItem{}
	for _, p := range platforms {
		out[p.ID] = []model.NewsItem{{ID: p.ID + "-1", Title: "t", Raw: map[string]any{"x": 1}}}
	}
	return out, nil
}

type fakeVideo struct {
	mu       sync.Mutex
	searched []string
}

func (f *fakeVideo) FetchRankingHotTopics(ctx context.Context, limit int) ([]model.HotTopic, error) {
	return []model.HotTopic{{Keyword: "k1", Rank: 1}, {Keyword: "k2", Rank: 2}, {Keyword: "k3", Rank: 3}, {Keyword: "k4", Rank: 4}}, nil
}

func (f *fakeVideo) FetchHotTopics(ctx context.Context, keyword string, limit int) ([]model.TopicItem, error) {
	f.mu.Lock()
	f.searched = append(f.searched, keyword)
	f.mu.Unlock()
	v := int64(10)
	return []model.TopicItem{{ID: keyword + "-v", Keyword: keyword, Views: &v}}, nil
}

func TestCollectorRunOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	store := storage.NewRedisStore(rdb)

	root := t.TempDir()
	news, video := &fakeNews{}, &fakeVideo{}
	c := &Collector{
		News:              news,
		Video:             video,
		Store:             store,
		DataRoot:          root,
		Platforms:         []model.Platform{{ID: "weibo", Name: "微博"}, {ID: "zhihu", Name: "知乎"}},
		HotLimit:          10,
		EnrichPer:         5,
		EnrichConcurrency: 2,
		now:               func() time.Time { return time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC) },
	}
	c.runOnce(context.Background())

	if len(news.got) != 2 {
		t.Fatalf("platforms passed = %v", news.got)
	}
	for _, name := range []string{"newsnow", "bilibili_hot", "bilibili"} {
		if _, err := os.Stat(filepath.Join(root, name, "2024-05-01.json")); err != nil {
			t.Errorf("%s snapshot missing: %v", name, err)
		}
	}

	b, err := os.ReadFile(filepath.Join(root, "bilibili_hot", "2024-05-01.json"))
	if err != nil {
		t.Fatal(err)
	}
	var hot []model.HotTopic
	if err := json.Unmarshal(b, &hot); err != nil {
		t.Fatal(err)
	}
	if len(hot) != 4 || hot[0].VideoCount == nil || *hot[0].VideoCount != 1 || *hot[0].AvgViews != 10 {
		t.Errorf("hot topics not enriched: %+v", hot)
	}

	// 4 enrichment searches plus the top 3 keywords
	if len(video.searched) != 7 {
		t.Errorf("searches = %v", video.searched)
	}

	snap, ok, err := store.LatestSnapshot(context.Background(), "weibo")
	if err != nil || !ok {
		t.Fatalf("weibo snapshot: ok=%v err=%v", ok, err)
	}
	if !json.Valid(snap.Items) {
		t.Errorf("snapshot items = %s", snap.Items)
	}
	if _, ok, _ := store.LatestSnapshot(context.Background(), "bilibili"); !ok {
		t.Error("bilibili snapshot missing from store")
	}
	if fresh, _ := store.MarkSeen(context.Background(), "weibo", "weibo-1", time.Hour); fresh {
		t.Error("collected items should be marked seen")
	}
}

func TestCollectorConfiguredKeywords(t *testing.T) {
	video := &fakeVideo{}
	c := &Collector{Video: video, Keywords: []string{"原神"}, HotLimit: 5}
	c.runOnce(context.Background())
	if len(video.searched) != 1 || video.searched[0] != "原神" {
		t.Fatalf("searches = %v", video.searched)
	}
}

type funcWorker func(ctx context.Context) error

func (f funcWorker) Start(ctx context.Context) error { return f(ctx) }

func TestManagerStopsOnFirstError(t *testing.T) {
	var stopped atomic.Bool
	boom := errors.New("boom")
	m := NewManager(
		funcWorker(func(ctx context.Context) error { return boom }),
		funcWorker(func(ctx context.Context) error {
			<-ctx.Done()
			stopped.Store(true)
			return nil
		}),
	)
	if err := m.Start(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Start = %v", err)
	}
	if !stopped.Load() {
		t.Fatal("other workers must be cancelled")
	}
}

func TestManagerCleanShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager(&HTTPServer{Addr: "127.0.0.1:0"}, &Collector{Interval: time.Hour})
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not stop")
	}
}
