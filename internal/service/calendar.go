// internal/service/calendar.go
package service

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/unclebandit/campaign-engine/internal/model"
)

// CalendarProjector generates a forward-looking, non-binding content calendar
// for human review. It consumes the optimizer's recommendations where history
// exists and falls back to a static optimal-time table otherwise. It performs
// no scheduling and no execution.
type CalendarProjector struct {
	Optimizer *ScheduleOptimizer

	now func() time.Time
	rng *rand.Rand
}

// fallbackHour holds launch-era optimal posting hours per platform, used
// until a channel has enough history for the optimizer to rank slots.
var fallbackHour = map[string]int{
	"facebook":  13,
	"instagram": 11,
	"tiktok":    19,
	"hudl":      14,
}

const fallbackDefaultHour = 12

// NewCalendarProjector builds a projector. A non-zero seed makes the
// content-type picks reproducible; seed 0 uses wall-clock entropy.
func NewCalendarProjector(opt *ScheduleOptimizer, seed int64) *CalendarProjector {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &CalendarProjector{
		Optimizer: opt,
		now:       time.Now,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Project lays out one entry per day per channel over the horizon. Topic
// selection is round-robin; content type is picked by the optimizer's mix
// weights when available, uniformly otherwise.
func (p *CalendarProjector) Project(days int, channels, topics []string, contentTypes []string, campaignID string) []model.CalendarEntry {
	if days <= 0 || len(channels) == 0 {
		return nil
	}
	if len(contentTypes) == 0 {
		contentTypes = []string{"post"}
	}

	var weights map[string]float64
	slotHours := map[string]int{}
	if p.Optimizer != nil && campaignID != "" {
		rec := p.Optimizer.Recommend(campaignID)
		weights = rec.ContentMixWeights
		for _, s := range rec.TimeSlots {
			if _, ok := slotHours[s.Channel]; !ok {
				slotHours[s.Channel] = s.Hour
			}
		}
	}

	entries := []model.CalendarEntry{}
	topicIdx := 0
	start := p.now()
	for day := 0; day < days; day++ {
		date := start.AddDate(0, 0, day+1)
		for _, channel := range channels {
			hour, ok := slotHours[channel]
			if !ok {
				hour, ok = fallbackHour[channel]
				if !ok {
					hour = fallbackDefaultHour
				}
			}

			topic := ""
			if len(topics) > 0 {
				topic = topics[topicIdx%len(topics)]
				topicIdx++
			}

			entries = append(entries, model.CalendarEntry{
				Date:           date.Format("2006-01-02"),
				Time:           fmt.Sprintf("%02d:00", hour),
				Channel:        channel,
				Topic:          topic,
				ContentType:    p.pickContentType(contentTypes, weights),
				EstimatedReach: estimateReach(channel),
			})
		}
	}
	return entries
}

// pickContentType draws from the mix weights, uniform when no weights exist.
func (p *CalendarProjector) pickContentType(contentTypes []string, weights map[string]float64) string {
	if len(weights) == 0 {
		return contentTypes[p.rng.Intn(len(contentTypes))]
	}

	// deterministic iteration order for seeded runs
	keys := make([]string, 0, len(contentTypes))
	var total float64
	for _, ct := range contentTypes {
		if w, ok := weights[ct]; ok && w > 0 {
			keys = append(keys, ct)
			total += w
		}
	}
	if len(keys) == 0 || total <= 0 {
		return contentTypes[p.rng.Intn(len(contentTypes))]
	}
	sort.Strings(keys)

	roll := p.rng.Float64() * total
	for _, ct := range keys {
		roll -= weights[ct]
		if roll <= 0 {
			return ct
		}
	}
	return keys[len(keys)-1]
}

func estimateReach(channel string) int {
	if r, ok := platformReach[channel]; ok {
		return r
	}
	return 500
}
