// internal/model/performance.go
package model

import "time"

// PerformanceSnapshot is the rolling aggregate owned by the performance
// aggregator. AvgEngagement is a weighted rolling average: a new batch
// contributes proportionally to its size relative to the cumulative size.
type PerformanceSnapshot struct {
	TotalPosts    int     `db:"total_posts" json:"total_posts"`
	TotalReach    int     `db:"total_reach" json:"total_reach"`
	AvgEngagement float64 `db:"avg_engagement" json:"avg_engagement"`
}

// Fold merges one execution batch into the snapshot.
func (p *PerformanceSnapshot) Fold(posts, reach int, engagementSum float64) {
	if posts <= 0 {
		return
	}
	cumulative := p.TotalPosts + posts
	batchAvg := engagementSum / float64(posts)
	p.AvgEngagement = (p.AvgEngagement*float64(p.TotalPosts) + batchAvg*float64(posts)) / float64(cumulative)
	p.TotalPosts = cumulative
	p.TotalReach += reach
}

// SlotScore ranks one (channel, weekday, hour) bucket by observed engagement.
type SlotScore struct {
	Channel       string       `json:"channel"`
	Weekday       time.Weekday `json:"weekday"`
	Hour          int          `json:"hour"`
	AvgEngagement float64      `json:"avg_engagement"`
	Samples       int          `json:"samples"`
}

// Recommendation is the optimizer's advisory output; it is never applied
// automatically.
type Recommendation struct {
	CampaignID        string             `json:"campaign_id"`
	TimeSlots         []SlotScore        `json:"time_slots"`
	ContentMixWeights map[string]float64 `json:"content_mix_weights"`
	Notes             []string           `json:"notes,omitempty"`
}

// CalendarEntry is one planned post in the projected content calendar.
// Planning artifact only; nothing schedules or executes from it.
type CalendarEntry struct {
	Date           string `json:"date"` // YYYY-MM-DD
	Time           string `json:"time"` // HH:MM
	Channel        string `json:"channel"`
	Topic          string `json:"topic"`
	ContentType    string `json:"content_type"`
	EstimatedReach int    `json:"estimated_reach"`
}
