// internal/service/optimizer.go
package service

import (
	"sort"
	"time"

	"github.com/unclebandit/campaign-engine/internal/model"
)

// ScheduleOptimizer is a read-only analysis over the aggregator's retained
// history. Its output is advisory: nothing here ever touches next_run or the
// cadence. An operator (or an explicit auto-apply policy) decides whether a
// recommendation becomes a cadence update.
type ScheduleOptimizer struct {
	Aggregator *PerformanceAggregator

	TopSlots    int     // how many slot recommendations to return
	FloorWeight float64 // minimum content-mix weight so no type starves
}

func NewScheduleOptimizer(agg *PerformanceAggregator) *ScheduleOptimizer {
	return &ScheduleOptimizer{
		Aggregator:  agg,
		TopSlots:    3,
		FloorWeight: 0.05,
	}
}

type slotKey struct {
	channel string
	weekday time.Weekday
	hour    int
}

// Recommend ranks (channel, weekday, hour) buckets by observed average
// engagement and derives content-mix weights from historical engagement
// share per content type.
func (o *ScheduleOptimizer) Recommend(campaignID string) *model.Recommendation {
	rec := &model.Recommendation{
		CampaignID:        campaignID,
		ContentMixWeights: map[string]float64{},
	}

	history := o.Aggregator.History(campaignID)
	if len(history) == 0 {
		rec.Notes = append(rec.Notes, "no execution history yet; keeping current schedule")
		return rec
	}
	if len(history) < 5 {
		rec.Notes = append(rec.Notes, "thin history; recommendations are low-confidence")
	}

	slots := map[slotKey]*bucketStat{}
	types := map[string]*bucketStat{}
	for _, res := range history {
		wd := res.TriggeredAt.Weekday()
		hr := res.TriggeredAt.Hour()
		for _, att := range res.Attempts {
			if att.Outcome != model.OutcomeSuccess {
				continue
			}
			k := slotKey{channel: att.Channel, weekday: wd, hour: hr}
			addBucket(slots, k, att.Engagement)
			addTypeBucket(types, att.ContentType, att.Engagement)
		}
	}

	scored := make([]model.SlotScore, 0, len(slots))
	for k, b := range slots {
		scored = append(scored, model.SlotScore{
			Channel:       k.channel,
			Weekday:       k.weekday,
			Hour:          k.hour,
			AvgEngagement: b.sum / float64(b.n),
			Samples:       b.n,
		})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].AvgEngagement != scored[j].AvgEngagement {
			return scored[i].AvgEngagement > scored[j].AvgEngagement
		}
		// stable order for equal scores
		if scored[i].Channel != scored[j].Channel {
			return scored[i].Channel < scored[j].Channel
		}
		return scored[i].Hour < scored[j].Hour
	})
	top := o.TopSlots
	if top <= 0 {
		top = 3
	}
	if len(scored) > top {
		scored = scored[:top]
	}
	rec.TimeSlots = scored

	rec.ContentMixWeights = o.mixWeights(types)
	return rec
}

// mixWeights normalizes engagement share per content type, clamped to the
// floor weight and renormalized so the weights still sum to one.
func (o *ScheduleOptimizer) mixWeights(types map[string]*bucketStat) map[string]float64 {
	weights := map[string]float64{}
	if len(types) == 0 {
		return weights
	}

	var total float64
	for _, b := range types {
		total += b.sum
	}
	floor := o.FloorWeight
	if floor <= 0 {
		floor = 0.05
	}

	if total <= 0 {
		uniform := 1 / float64(len(types))
		for ct := range types {
			weights[ct] = uniform
		}
		return weights
	}

	var clampedTotal float64
	for ct, b := range types {
		w := b.sum / total
		if w < floor {
			w = floor
		}
		weights[ct] = w
		clampedTotal += w
	}
	for ct := range weights {
		weights[ct] /= clampedTotal
	}
	return weights
}

type bucketStat struct {
	sum float64
	n   int
}

func addBucket(m map[slotKey]*bucketStat, k slotKey, v float64) {
	b := m[k]
	if b == nil {
		b = &bucketStat{}
		m[k] = b
	}
	b.sum += v
	b.n++
}

func addTypeBucket(m map[string]*bucketStat, k string, v float64) {
	b := m[k]
	if b == nil {
		b = &bucketStat{}
		m[k] = b
	}
	b.sum += v
	b.n++
}
