package bilibili

import (
	"context"
	"html"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"topic-crawler/internal/model"
	"topic-crawler/internal/parse"
)

// FetchHotTopics searches videos for keyword and maps up to limit results.
// An empty keyword or non-positive limit returns no items without a request.
func (c *Client) FetchHotTopics(ctx context.Context, keyword string, limit int) ([]model.TopicItem, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" || limit <= 0 {
		return []model.TopicItem{}, nil
	}
	results, err := c.searchVideos(ctx, keyword, limit)
	if err != nil {
		return nil, err
	}
	if len(results) > limit {
		results = results[:limit]
	}
	items := make([]model.TopicItem, 0, len(results))
	for _, r := range results {
		raw, ok := r.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, topicFromResult(keyword, raw))
	}
	slog.Debug("bilibili: search done", "keyword", keyword, "results", len(items))
	return items, nil
}

// topicFromResult maps one search hit. Malformed fields become absent.
func topicFromResult(keyword string, raw map[string]any) model.TopicItem {
	id := strings.TrimSpace(stringOf(raw["bvid"]))
	if id == "" {
		id = strings.TrimSpace(stringOf(raw["aid"]))
	}
	author := strings.TrimSpace(stringOf(raw["author"]))
	if author == "" {
		author = strings.TrimSpace(stringOf(raw["up_name"]))
	}
	it := model.TopicItem{
		ID:       id,
		Platform: model.PlatformBilibili,
		Keyword:  keyword,
		Title:    cleanTitle(stringOf(raw["title"])),
		Author:   author,
		Raw:      raw,
	}
	if t, ok := parse.UnixUTC(raw["pubdate"]); ok {
		it.PublishTime = &t
	}
	it.Views = count(raw["play"])
	it.Likes = count(raw["like"])
	it.Comments = count(firstTruthy(raw["video_review"], raw["review"]))
	it.LikeRate = likeRate(it.Likes, it.Views)
	return it
}

// count parses a counter field. Negative values are treated as absent.
func count(v any) *int64 {
	n, ok := parse.Int(v)
	if !ok || n < 0 {
		return nil
	}
	return &n
}

// likeRate is likes/views rounded to 6 places, or nil unless views > 0.
func likeRate(likes, views *int64) *float64 {
	if likes == nil || views == nil || *views <= 0 || *likes < 0 {
		return nil
	}
	r := math.Round(float64(*likes)/float64(*views)*1e6) / 1e6
	return &r
}

var highlightTag = regexp.MustCompile(`</?em[^>]*>`)

// cleanTitle removes the search highlight markup around matched keywords.
func cleanTitle(s string) string {
	return strings.TrimSpace(html.UnescapeString(highlightTag.ReplaceAllString(s, "")))
}
