package report

import "topic-crawler/internal/model"

// Summary aggregates a set of video-search records.
type Summary struct {
	Count       int     `json:"count" yaml:"count"`
	ViewsSum    int64   `json:"views_sum" yaml:"views_sum"`
	LikeRateAvg float64 `json:"like_rate_avg" yaml:"like_rate_avg"`
}

// Summarize counts records, sums known views and averages the like rates
// of the records that have one (0 when none do).
func Summarize(records []model.TopicItem) Summary {
	s := Summary{Count: len(records)}
	var rateSum float64
	var rated int
	for _, r := range records {
		if r.Views != nil {
			s.ViewsSum += *r.Views
		}
		if r.LikeRate != nil {
			rateSum += *r.LikeRate
			rated++
		}
	}
	if rated > 0 {
		s.LikeRateAvg = rateSum / float64(rated)
	}
	return s
}
