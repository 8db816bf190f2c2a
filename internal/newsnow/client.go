// Package newsnow reads the latest headlines of one platform from the
// newsnow aggregator and, best effort, enriches them from the article pages.
package newsnow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"topic-crawler/internal/fetch"
	"topic-crawler/internal/model"
)

const DefaultBaseURL = "https://newsnow.busiyi.world/api/s"

// maxItems caps how many entries of one response are considered.
const maxItems = 100

// Options tune a single FetchLatest call.
type Options struct {
	// Retries is the number of additional attempts after the first.
	Retries int
	// MaxDetailFetches bounds how many article pages are fetched.
	MaxDetailFetches int
}

// DefaultOptions returns 2 retries and 8 detail fetches.
func DefaultOptions() Options {
	return Options{Retries: 2, MaxDetailFetches: 8}
}

var errUnusableStatus = errors.New("newsnow: unusable response status")

// Client is safe for concurrent use.
type Client struct {
	http    *fetch.Client
	baseURL string
	sleep   func(context.Context, time.Duration) error
	now     func() time.Time
}

// NewClient wires a fetch client. A nil fc uses fetch.Default; an empty
// baseURL uses DefaultBaseURL.
func NewClient(baseURL string, fc *fetch.Client) *Client {
	if fc == nil {
		fc = fetch.Default()
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    fc,
		baseURL: strings.TrimSpace(baseURL),
		sleep:   sleepContext,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoff(attempt int) time.Duration {
	return time.Duration(3+attempt) * time.Second
}

// FetchLatest returns the platform's current headlines. Upstream failures
// are retried with a growing pause; once the retries are spent the result is
// an empty list and no error. Only a cancelled context is returned as an
// error.
func (c *Client) FetchLatest(ctx context.Context, platformID, platformName string, opts Options) ([]model.NewsItem, error) {
	platformID = strings.TrimSpace(platformID)
	if platformID == "" {
		return []model.NewsItem{}, nil
	}
	if platformName == "" {
		platformName = platformID
	}
	retries := max(opts.Retries, 0)

	var entries []any
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		entries, err = c.fetchEntries(ctx, platformID)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == retries {
			break
		}
		wait := backoff(attempt)
		slog.Warn("newsnow: fetch failed, retrying", "platform", platformID, "attempt", attempt+1, "wait", wait, "error", err)
		if serr := c.sleep(ctx, wait); serr != nil {
			return nil, serr
		}
	}
	if err != nil {
		slog.Warn("newsnow: giving up", "platform", platformID, "attempts", retries+1, "error", err)
		return []model.NewsItem{}, nil
	}

	items := c.mapEntries(platformID, platformName, entries)
	c.enrichDetails(ctx, items, opts.MaxDetailFetches)
	slog.Info("newsnow: fetched", "platform", platformID, "items", len(items))
	return items, nil
}

// fetchEntries performs one attempt. A body whose status is neither
// "success" nor "cache" counts as a failed attempt.
func (c *Client) fetchEntries(ctx context.Context, platformID string) ([]any, error) {
	body, err := c.http.JSON(ctx, fetch.Request{
		URL: c.baseURL,
		Headers: map[string]string{
			"User-Agent":    fetch.DesktopUA,
			"Cache-Control": "no-cache",
			"Pragma":        "no-cache",
		},
		Query: url.Values{"id": {platformID}, "latest": {""}},
	})
	if err != nil {
		return nil, err
	}
	m, ok := body.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: body is not an object", errUnusableStatus)
	}
	status, _ := m["status"].(string)
	if status != "success" && status != "cache" {
		return nil, fmt.Errorf("%w: %q", errUnusableStatus, status)
	}
	entries, _ := m["items"].([]any)
	return entries, nil
}

// mapEntries keeps entries with a non-blank, non-numeric string title. Rank
// is the entry's 1-based position in the upstream list, so dropped entries
// leave gaps.
func (c *Client) mapEntries(platformID, platformName string, entries []any) []model.NewsItem {
	if len(entries) > maxItems {
		entries = entries[:maxItems]
	}
	now := c.now()
	items := make([]model.NewsItem, 0, len(entries))
	for i, e := range entries {
		raw, ok := e.(map[string]any)
		if !ok {
			continue
		}
		title, _ := raw["title"].(string)
		title = strings.TrimSpace(title)
		if title == "" || numericTitle(title) {
			continue
		}
		rank := i + 1
		link, _ := raw["url"].(string)
		link = strings.TrimSpace(link)
		mobile, _ := raw["mobileUrl"].(string)

		id := link
		if id == "" {
			id = syntheticID(platformID, rank, title)
		}
		items = append(items, model.NewsItem{
			ID:           id,
			Title:        title,
			URL:          link,
			MobileURL:    strings.TrimSpace(mobile),
			PlatformID:   platformID,
			PlatformName: platformName,
			Rank:         rank,
			FetchTime:    now,
			Raw:          raw,
		})
	}
	return items
}

// numericTitle reports titles that are only a number, which upstream emits
// for placeholder rows.
func numericTitle(title string) bool {
	_, err := strconv.ParseFloat(title, 64)
	return err == nil
}

func syntheticID(platformID string, rank int, title string) string {
	sum := sha256.Sum256([]byte(title))
	return fmt.Sprintf("%s:%d:%s", platformID, rank, hex.EncodeToString(sum[:])[:16])
}
