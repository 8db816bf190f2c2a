package newsnow

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"topic-crawler/internal/fetch"
	"topic-crawler/internal/model"
)

// newTestClient returns a client against srv whose sleeps are recorded
// instead of slept.
func newTestClient(t *testing.T, srv *httptest.Server) (*Client, *[]time.Duration) {
	t.Helper()
	fc, err := fetch.New(fetch.Options{HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("fetch client: %v", err)
	}
	c := NewClient(srv.URL+"/api/s", fc)
	var sleeps []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	c.now = func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }
	return c, &sleeps
}

func noDetails() Options { return Options{Retries: 2} }

func TestFetchLatest_DropsBlankTitlesKeepsOriginalRank(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "weibo" {
			t.Errorf("id = %q", r.URL.Query().Get("id"))
		}
		if _, ok := r.URL.Query()["latest"]; !ok {
			t.Error("latest parameter missing")
		}
		if r.Header.Get("Cache-Control") != "no-cache" || r.Header.Get("Pragma") != "no-cache" {
			t.Error("no-cache headers missing")
		}
		if r.Header.Get("User-Agent") != fetch.DesktopUA {
			t.Errorf("user agent = %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte(`{"status":"success","items":[{"title":"  ","url":"http://a"},{"title":"Real Title","url":"http://b"}]}`))
	}))
	defer srv.Close()
	c, _ := newTestClient(t, srv)

	items, err := c.FetchLatest(context.Background(), "weibo", "微博", noDetails())
	if err != nil {
		t.Fatalf("FetchLatest: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	it := items[0]
	if it.Rank != 2 || it.Title != "Real Title" || it.ID != "http://b" || it.URL != "http://b" {
		t.Errorf("unexpected item: %+v", it)
	}
	if it.PlatformID != "weibo" || it.PlatformName != "微博" {
		t.Errorf("platform = %q/%q", it.PlatformID, it.PlatformName)
	}
	if !it.FetchTime.Equal(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("fetch time = %v", it.FetchTime)
	}
}

func TestFetchLatest_DropsNumericTitles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		items    string
		wantRank []int
	}{
		{"integer and float", `[{"title":"12345"},{"title":"  3.14 "},{"title":"Real"}]`, []int{3}},
		{"negative and exponent", `[{"title":"-7"},{"title":"1e5"},{"title":"2024年"}]`, []int{3}},
		{"mixed text kept", `[{"title":"3 things"},{"title":"0"}]`, []int{1}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, `{"status":"success","items":%s}`, tt.items)
			}))
			defer srv.Close()
			c, _ := newTestClient(t, srv)

			items, err := c.FetchLatest(context.Background(), "weibo", "", noDetails())
			if err != nil {
				t.Fatalf("FetchLatest: %v", err)
			}
			var ranks []int
			for _, it := range items {
				ranks = append(ranks, it.Rank)
			}
			if fmt.Sprint(ranks) != fmt.Sprint(tt.wantRank) {
				t.Errorf("ranks = %v, want %v", ranks, tt.wantRank)
			}
		})
	}
}

func TestFetchLatest_MapsEntries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"cache","items":[
			{"title":"no link"},
			{"title":42,"url":"http://num"},
			"garbage",
			{"title":" spaced ","url":" http://x/1 ","mobileUrl":"http://m/1"}
		]}`))
	}))
	defer srv.Close()
	c, _ := newTestClient(t, srv)

	items, err := c.FetchLatest(context.Background(), "zhihu", "", noDetails())
	if err != nil {
		t.Fatalf("FetchLatest: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(items), items)
	}
	first, second := items[0], items[1]
	if !strings.HasPrefix(first.ID, "zhihu:1:") || len(first.ID) != len("zhihu:1:")+16 {
		t.Errorf("synthetic id = %q", first.ID)
	}
	if first.ID != syntheticID("zhihu", 1, "no link") {
		t.Errorf("synthetic id must be stable, got %q", first.ID)
	}
	if first.PlatformName != "zhihu" {
		t.Errorf("platform name should default to id, got %q", first.PlatformName)
	}
	if second.Rank != 4 || second.Title != "spaced" || second.ID != "http://x/1" || second.MobileURL != "http://m/1" {
		t.Errorf("unexpected second item: %+v", second)
	}
	if second.Raw == nil {
		t.Error("raw payload missing")
	}
}

func TestFetchLatest_CapsAtHundred(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var b strings.Builder
		b.WriteString(`{"status":"success","items":[`)
		for i := 0; i < 120; i++ {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, `{"title":"t%d","url":"http://x/%d"}`, i, i)
		}
		b.WriteString("]}")
		w.Write([]byte(b.String()))
	}))
	defer srv.Close()
	c, _ := newTestClient(t, srv)

	items, err := c.FetchLatest(context.Background(), "toutiao", "今日头条", noDetails())
	if err != nil {
		t.Fatalf("FetchLatest: %v", err)
	}
	if len(items) != maxItems {
		t.Fatalf("expected %d items, got %d", maxItems, len(items))
	}
}

func TestFetchLatest_RetriesWithBackoff(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			http.Error(w, "busy", http.StatusServiceUnavailable)
		case 2:
			w.Write([]byte(`{"status":"error","items":[{"title":"ignored"}]}`))
		default:
			w.Write([]byte(`{"status":"success","items":[{"title":"ok"}]}`))
		}
	}))
	defer srv.Close()
	c, sleeps := newTestClient(t, srv)

	items, err := c.FetchLatest(context.Background(), "weibo", "微博", noDetails())
	if err != nil {
		t.Fatalf("FetchLatest: %v", err)
	}
	if len(items) != 1 || items[0].Title != "ok" {
		t.Fatalf("unexpected items: %+v", items)
	}
	want := []time.Duration{3 * time.Second, 4 * time.Second}
	if fmt.Sprint(*sleeps) != fmt.Sprint(want) {
		t.Fatalf("sleeps = %v, want %v", *sleeps, want)
	}
}

func TestFetchLatest_ExhaustedRetriesDegrade(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()
	c, sleeps := newTestClient(t, srv)

	items, err := c.FetchLatest(context.Background(), "weibo", "微博", Options{Retries: 1})
	if err != nil {
		t.Fatalf("exhausted retries must not error: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", items)
	}
	if calls.Load() != 2 || len(*sleeps) != 1 {
		t.Fatalf("calls=%d sleeps=%v", calls.Load(), *sleeps)
	}
}

func TestFetchLatest_EmptyPlatform(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	defer srv.Close()
	c, _ := newTestClient(t, srv)

	items, err := c.FetchLatest(context.Background(), "  ", "", DefaultOptions())
	if err != nil || len(items) != 0 {
		t.Fatalf("items=%v err=%v", items, err)
	}
}

func TestFetchLatest_CancelledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","items":[]}`))
	}))
	defer srv.Close()
	c, _ := newTestClient(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.FetchLatest(ctx, "weibo", "微博", DefaultOptions()); err == nil {
		t.Fatal("expected context error")
	}
}

const articleWithMeta = `<html><head>
<meta property="og:description" content="Meta summary">
<meta name="description" content="plain description">
<meta property="article:published_time" content="2024-04-30T10:00:00+08:00">
<meta property="og:image" content="/img/cover.png">
</head><body><p>body</p></body></html>`

const articleWithJSONLD = `<html><head>
<meta name="twitter:description" content="Twitter summary">
<script type="application/ld+json">{"@context":"https://schema.org","@graph":[{"@type":"WebPage"},{"@type":"NewsArticle","datePublished":"2024-04-29 09:30"}]}</script>
</head><body></body></html>`

func TestFetchLatest_DetailEnrichment(t *testing.T) {
	t.Parallel()

	var pageHits atomic.Int32
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/api/s", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"status":"success","items":[
			{"title":"a","url":"%[1]s/a"},
			{"title":"b","url":"ftp://files/b"},
			{"title":"c","url":"%[1]s/broken"},
			{"title":"d","url":"%[1]s/b"},
			{"title":"e","url":"%[1]s/a"}
		]}`, srv.URL)
	})
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		pageHits.Add(1)
		w.Write([]byte(articleWithMeta))
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		pageHits.Add(1)
		w.Write([]byte(articleWithJSONLD))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		pageHits.Add(1)
		http.Error(w, "gone", http.StatusNotFound)
	})
	c, _ := newTestClient(t, srv)

	items, err := c.FetchLatest(context.Background(), "p", "P", Options{MaxDetailFetches: 3})
	if err != nil {
		t.Fatalf("FetchLatest: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(items))
	}
	if pageHits.Load() != 3 {
		t.Fatalf("expected 3 detail fetches, got %d", pageHits.Load())
	}

	a := items[0]
	if a.Summary != "Meta summary" || a.Image != srv.URL+"/img/cover.png" {
		t.Errorf("a: summary=%q image=%q", a.Summary, a.Image)
	}
	if a.PublishTime == nil || !a.PublishTime.Equal(time.Date(2024, 4, 30, 2, 0, 0, 0, time.UTC)) {
		t.Errorf("a: publish time %v", a.PublishTime)
	}
	if items[1].Summary != "" || items[2].Summary != "" || items[2].PublishTime != nil {
		t.Error("skipped or failed pages must leave items untouched")
	}
	if items[2].Rank != 3 {
		t.Errorf("failed detail fetch changed rank: %d", items[2].Rank)
	}
	d := items[3]
	if d.Summary != "Twitter summary" {
		t.Errorf("d: summary=%q", d.Summary)
	}
	if d.PublishTime == nil || !d.PublishTime.Equal(time.Date(2024, 4, 29, 9, 30, 0, 0, time.UTC)) {
		t.Errorf("d: publish time %v", d.PublishTime)
	}
	if items[4].Summary != "" {
		t.Error("items beyond the detail budget must not be enriched")
	}
}

func TestExtractDetail(t *testing.T) {
	t.Parallel()

	base, _ := url.Parse("https://news.example.com/2024/05/01/story.html")
	long := strings.Repeat("Readable paragraph text about the story. ", 20)

	cases := []struct {
		name    string
		html    string
		summary string
		image   string
		publish string
	}{
		{
			name:    "meta order",
			html:    `<meta name="description" content="plain"><meta property="og:description" content="og"><meta name="pubdate" content="2024-05-01">`,
			summary: "og",
			publish: "2024-05-01T00:00:00Z",
		},
		{
			name:    "itemprop date and twitter image",
			html:    `<meta name="description" content="d"><meta itemprop="datePublished" content="2024/05/02 11:00"><meta name="twitter:image" content="https://cdn.example.com/x.jpg">`,
			summary: "d",
			image:   "https://cdn.example.com/x.jpg",
			publish: "2024-05-02T11:00:00Z",
		},
		{
			name:    "json-ld array with dateCreated",
			html:    `<meta name="description" content="d"><script type="application/ld+json">[{"@type":"Thing"},{"dateCreated":"2024-05-03T01:02:03Z"}]</script>`,
			summary: "d",
			publish: "2024-05-03T01:02:03Z",
		},
		{
			name:    "invalid json-ld ignored",
			html:    `<meta name="description" content="d"><script type="application/ld+json">{not json</script><script type="application/ld+json">{"datePublished":"2024-05-04"}</script>`,
			summary: "d",
			publish: "2024-05-04T00:00:00Z",
		},
		{
			name:    "readability excerpt fallback",
			html:    `<html><head><title>Story</title></head><body><article><h1>Story</h1><p>` + long + `</p><p>` + long + `</p></article></body></html>`,
			summary: strings.TrimSpace(long),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := extractDetail([]byte(tc.html), base)
			if !res.OK {
				t.Fatal("expected OK")
			}
			if tc.summary != "" && !strings.HasPrefix(res.Summary, tc.summary[:20]) {
				t.Errorf("summary = %q, want %q", res.Summary, tc.summary)
			}
			if res.Image != tc.image {
				t.Errorf("image = %q, want %q", res.Image, tc.image)
			}
			var got string
			if res.PublishTime != nil {
				got = res.PublishTime.Format(time.RFC3339)
			}
			if got != tc.publish {
				t.Errorf("publish = %q, want %q", got, tc.publish)
			}
		})
	}
}

func TestFetchBatch_PacesSequentially(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		if n > peak.Load() {
			peak.Store(n)
		}
		switch r.URL.Query().Get("id") {
		case "empty":
			w.Write([]byte(`{"status":"success","items":[]}`))
		default:
			fmt.Fprintf(w, `{"status":"success","items":[{"title":"%s headline"}]}`, r.URL.Query().Get("id"))
		}
	}))
	defer srv.Close()
	c, sleeps := newTestClient(t, srv)

	platforms := []model.Platform{{ID: "weibo", Name: "微博"}, {ID: "empty", Name: "Empty"}, {ID: "zhihu", Name: "知乎"}}
	out, err := c.FetchBatch(context.Background(), platforms, 10*time.Millisecond, noDetails())
	if err != nil {
		t.Fatalf("FetchBatch: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 keys, got %d", len(out))
	}
	if items, ok := out["empty"]; !ok || items == nil || len(items) != 0 {
		t.Errorf("empty platform must map to an empty list, got %#v", items)
	}
	if len(out["weibo"]) != 1 || out["zhihu"][0].PlatformName != "知乎" {
		t.Errorf("unexpected results: %+v", out)
	}
	want := []time.Duration{MinInterval, MinInterval}
	if fmt.Sprint(*sleeps) != fmt.Sprint(want) {
		t.Fatalf("sleeps = %v, want %v", *sleeps, want)
	}
	if peak.Load() != 1 {
		t.Fatalf("batch must be sequential, peak %d", peak.Load())
	}
}

func TestFetchBatch_UsesLongerInterval(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","items":[]}`))
	}))
	defer srv.Close()
	c, sleeps := newTestClient(t, srv)

	platforms := []model.Platform{{ID: "a"}, {ID: "b"}}
	if _, err := c.FetchBatch(context.Background(), platforms, time.Second, noDetails()); err != nil {
		t.Fatalf("FetchBatch: %v", err)
	}
	if len(*sleeps) != 1 || (*sleeps)[0] != time.Second {
		t.Fatalf("sleeps = %v", *sleeps)
	}
}
