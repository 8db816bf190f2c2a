package newsnow

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"topic-crawler/internal/fetch"
	"topic-crawler/internal/model"
	"topic-crawler/internal/parse"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// detailResult is what an article page contributed. OK is false when the
// page could not be fetched or parsed; the other fields are then empty.
type detailResult struct {
	OK          bool
	PublishTime *time.Time
	Summary     string
	Image       string
}

// Meta keys are matched case-insensitively against name, property and
// itemprop attributes, in this order.
var (
	publishTimeMeta = []string{
		"article:published_time",
		"og:article:published_time",
		"og:published_time",
		"datepublished",
		"pubdate",
		"publishdate",
		"publish_date",
		"publish-date",
		"dc.date.issued",
		"dc.date",
		"sailthru.date",
		"date",
	}
	summaryMeta = []string{"og:description", "twitter:description", "description"}
	imageMeta   = []string{"og:image", "og:image:url", "twitter:image", "twitter:image:src"}
)

var ldDateFields = []string{"datePublished", "dateCreated"}

// enrichDetails fetches article pages sequentially for up to limit items
// with an http(s) URL. Failures leave the item as it was.
func (c *Client) enrichDetails(ctx context.Context, items []model.NewsItem, limit int) {
	fetched := 0
	for i := range items {
		if fetched >= limit || ctx.Err() != nil {
			return
		}
		u, ok := articleURL(items[i].URL)
		if !ok {
			continue
		}
		fetched++
		res := c.fetchDetail(ctx, u)
		if !res.OK {
			continue
		}
		it := &items[i]
		if res.PublishTime != nil {
			it.PublishTime = res.PublishTime
		}
		if res.Summary != "" {
			it.Summary = res.Summary
		}
		if res.Image != "" {
			it.Image = res.Image
		}
	}
}

func articleURL(raw string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	return u, true
}

func (c *Client) fetchDetail(ctx context.Context, u *url.URL) detailResult {
	resp, err := c.http.Do(ctx, fetch.Request{
		URL: u.String(),
		Headers: map[string]string{
			"User-Agent": fetch.DesktopUA,
			"Accept":     "text/html,application/xhtml+xml",
		},
	})
	if err != nil {
		slog.Debug("newsnow: detail fetch failed", "url", u.String(), "error", err)
		return detailResult{}
	}
	return extractDetail(resp.Body, u)
}

// extractDetail reads publish time, summary and image from an article page.
// Meta tags win; JSON-LD supplies the publish time and readability the
// summary and image when the tags are missing.
func extractDetail(body []byte, pageURL *url.URL) detailResult {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return detailResult{}
	}
	meta := metaContent(doc)
	res := detailResult{OK: true}

	for _, key := range publishTimeMeta {
		if t, ok := parse.Date(meta[key]); ok {
			res.PublishTime = &t
			break
		}
	}
	if res.PublishTime == nil {
		if t, ok := jsonLDDate(doc); ok {
			res.PublishTime = &t
		}
	}
	res.Summary = firstMeta(meta, summaryMeta)
	res.Image = resolve(pageURL, firstMeta(meta, imageMeta))

	if res.Summary == "" || res.Image == "" {
		if article, err := readability.FromReader(bytes.NewReader(body), pageURL); err == nil {
			if res.Summary == "" {
				res.Summary = strings.TrimSpace(article.Excerpt)
			}
			if res.Image == "" {
				res.Image = resolve(pageURL, article.Image)
			}
		}
	}
	return res
}

// metaContent indexes every meta tag's content by its lower-cased name,
// property and itemprop. The first tag with a given key wins.
func metaContent(doc *goquery.Document) map[string]string {
	out := map[string]string{}
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content := strings.TrimSpace(s.AttrOr("content", ""))
		if content == "" {
			return
		}
		for _, attr := range []string{"name", "property", "itemprop"} {
			key := strings.ToLower(strings.TrimSpace(s.AttrOr(attr, "")))
			if key == "" {
				continue
			}
			if _, seen := out[key]; !seen {
				out[key] = content
			}
		}
	})
	return out
}

func firstMeta(meta map[string]string, keys []string) string {
	for _, k := range keys {
		if v := meta[k]; v != "" {
			return v
		}
	}
	return ""
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || base == nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ""
	}
	return u.String()
}

// jsonLDDate returns the first parsable datePublished or dateCreated found
// in the page's structured-data blocks. Objects, arrays and @graph
// containers are searched depth first.
func jsonLDDate(doc *goquery.Document) (time.Time, bool) {
	var found time.Time
	var ok bool
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var v any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &v); err != nil {
			return true
		}
		found, ok = ldDate(v)
		return !ok
	})
	return found, ok
}

func ldDate(v any) (time.Time, bool) {
	switch n := v.(type) {
	case []any:
		for _, e := range n {
			if t, ok := ldDate(e); ok {
				return t, true
			}
		}
	case map[string]any:
		for _, f := range ldDateFields {
			if s, isStr := n[f].(string); isStr {
				if t, ok := parse.Date(s); ok {
					return t, true
				}
			}
		}
		if g, ok := n["@graph"]; ok {
			return ldDate(g)
		}
	}
	return time.Time{}, false
}
