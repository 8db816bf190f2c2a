package model

import "time"

// NewsItem is one headline from a news-aggregator platform.
type NewsItem struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	URL          string         `json:"url"`
	MobileURL    string         `json:"mobile_url,omitempty"`
	PlatformID   string         `json:"platform_id,omitempty"`
	PlatformName string         `json:"platform_name,omitempty"`
	Rank         int            `json:"rank,omitempty"`
	FetchTime    time.Time      `json:"fetch_time"`
	PublishTime  *time.Time     `json:"publish_time,omitempty"`
	Summary      string         `json:"summary,omitempty"`
	Image        string         `json:"image,omitempty"`
	Raw          map[string]any `json:"raw,omitempty"`
}

// TopicItem is one video-search result or hot-keyword entry.
type TopicItem struct {
	ID          string         `json:"id"`
	Platform    string         `json:"platform"`
	Keyword     string         `json:"keyword"`
	Title       string         `json:"title"`
	Author      string         `json:"author,omitempty"`
	PublishTime *time.Time     `json:"publish_time,omitempty"`
	Views       *int64         `json:"views,omitempty"`
	Likes       *int64         `json:"likes,omitempty"`
	Comments    *int64         `json:"comments,omitempty"`
	LikeRate    *float64       `json:"like_rate,omitempty"`
	Raw         map[string]any `json:"raw,omitempty"`
}

// HotTopic is one ranked entry of a platform-wide trending list.
// VideoCount and AvgViews stay nil until the topic is enriched.
type HotTopic struct {
	Keyword    string `json:"keyword"`
	Rank       int    `json:"rank"`
	HeatValue  *int64 `json:"heat_value,omitempty"`
	HotID      *int64 `json:"hot_id,omitempty"`
	Icon       string `json:"icon,omitempty"`
	VideoCount *int   `json:"video_count,omitempty"`
	AvgViews   *int64 `json:"avg_views,omitempty"`
}

// Platform names one news-aggregator source.
type Platform struct {
	ID   string `json:"id" mapstructure:"id"`
	Name string `json:"name,omitempty" mapstructure:"name"`
}

// PlatformBilibili tags records produced by the bilibili adapters.
const PlatformBilibili = "bilibili"

// StripRaw drops upstream payloads from news items.
func StripRaw(items []NewsItem) []NewsItem {
	out := make([]NewsItem, len(items))
	for i, it := range items {
		it.Raw = nil
		out[i] = it
	}
	return out
}

// StripTopicRaw drops upstream payloads from topic items.
func StripTopicRaw(items []TopicItem) []TopicItem {
	out := make([]TopicItem, len(items))
	for i, it := range items {
		it.Raw = nil
		out[i] = it
	}
	return out
}
