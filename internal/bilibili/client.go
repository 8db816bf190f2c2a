// Package bilibili maps the video platform's search, hot-keyword and
// hot-ranking endpoints into normalized records.
package bilibili

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"topic-crawler/internal/fetch"
)

const (
	DefaultSearchURL  = "https://api.bilibili.com/x/web-interface/search/type"
	DefaultHotwordURL = "https://s.search.bilibili.com/main/hotword"
	DefaultRankingURL = "https://app.bilibili.com/x/v2/search/trending/ranking"

	// MaxRankingLimit is the largest page the ranking endpoint serves.
	MaxRankingLimit = 100
)

// Config selects endpoints; empty fields fall back to the public defaults.
type Config struct {
	SearchURL  string
	HotwordURL string
	RankingURL string
	// Cookie is sent with search requests; the search API rejects some
	// anonymous clients without a buvid3 cookie.
	Cookie string
}

// Client talks to the bilibili web and mobile APIs.
type Client struct {
	http       *fetch.Client
	searchURL  string
	hotwordURL string
	rankingURL string
	cookie     string
}

// NewClient wires a fetch client. A nil fc uses fetch.Default.
func NewClient(cfg Config, fc *fetch.Client) *Client {
	if fc == nil {
		fc = fetch.Default()
	}
	orDefault := func(v, d string) string {
		if strings.TrimSpace(v) == "" {
			return d
		}
		return strings.TrimSpace(v)
	}
	return &Client{
		http:       fc,
		searchURL:  orDefault(cfg.SearchURL, DefaultSearchURL),
		hotwordURL: orDefault(cfg.HotwordURL, DefaultHotwordURL),
		rankingURL: orDefault(cfg.RankingURL, DefaultRankingURL),
		cookie:     cfg.Cookie,
	}
}

func (c *Client) webHeaders() map[string]string {
	h := map[string]string{
		"User-Agent": fetch.DesktopUA,
		"Referer":    "https://www.bilibili.com/",
	}
	if c.cookie != "" {
		h["Cookie"] = c.cookie
	}
	return h
}

// searchVideos issues one video-type search and returns the raw result list.
func (c *Client) searchVideos(ctx context.Context, keyword string, pageSize int) ([]any, error) {
	body, err := c.http.JSON(ctx, fetch.Request{
		URL:     c.searchURL,
		Headers: c.webHeaders(),
		Query: url.Values{
			"search_type": {"video"},
			"keyword":     {keyword},
			"page":        {"1"},
			"page_size":   {strconv.Itoa(pageSize)},
		},
	})
	if err != nil {
		return nil, err
	}
	data, err := unwrapEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("bilibili: search %q: %w", keyword, err)
	}
	results, _ := lookup(data, "result").([]any)
	return results, nil
}

// hotwordBody returns the hot-keyword payload, unwrapped from the API
// envelope when there is one. Its shape varies and is probed by the caller.
func (c *Client) hotwordBody(ctx context.Context) (any, error) {
	body, err := c.http.JSON(ctx, fetch.Request{URL: c.hotwordURL, Headers: c.webHeaders()})
	if err != nil {
		return nil, err
	}
	if m, ok := body.(map[string]any); ok {
		if code, ok := m["code"]; ok && !isZeroCode(code) {
			return nil, fmt.Errorf("bilibili: hotword code %v: %v", code, m["message"])
		}
	}
	return body, nil
}

func (c *Client) rankingBody(ctx context.Context, limit int) (any, error) {
	return c.http.JSON(ctx, fetch.Request{
		URL:     c.rankingURL,
		Headers: map[string]string{"User-Agent": fetch.MobileUA, "Accept": "application/json"},
		Query:   url.Values{"limit": {strconv.Itoa(limit)}},
	})
}

// unwrapEnvelope returns the "data" member of a {"code":0,"data":...} body.
// Bodies without a code field are returned unchanged.
func unwrapEnvelope(body any) (any, error) {
	m, ok := body.(map[string]any)
	if !ok {
		return body, nil
	}
	code, ok := m["code"]
	if !ok {
		return body, nil
	}
	if !isZeroCode(code) {
		return nil, fmt.Errorf("api code %v: %v", code, m["message"])
	}
	return m["data"], nil
}

func isZeroCode(v any) bool {
	switch n := v.(type) {
	case json.Number:
		return n.String() == "0"
	case float64:
		return n == 0
	case string:
		return n == "0"
	}
	return false
}
