// internal/service/aggregator.go
package service

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/unclebandit/campaign-engine/internal/model"
	"github.com/unclebandit/campaign-engine/internal/repository"
)

// PerformanceAggregator folds execution results into rolling per-campaign and
// per-channel statistics. It is the only writer of the campaign performance
// snapshot. Record is safe for concurrent calls across campaigns; calls for
// the same campaign are serialized upstream because executions for one
// campaign never overlap.
type PerformanceAggregator struct {
	Registry repository.CampaignRegistryInterface

	mu          sync.RWMutex
	campaigns   map[string]*model.PerformanceSnapshot
	channels    map[string]*model.PerformanceSnapshot
	history     map[string][]*model.ExecutionResult
	historySize int
	log         zerolog.Logger
}

func NewPerformanceAggregator(registry repository.CampaignRegistryInterface, historySize int, log zerolog.Logger) *PerformanceAggregator {
	if historySize <= 0 {
		historySize = 50
	}
	return &PerformanceAggregator{
		Registry:    registry,
		campaigns:   make(map[string]*model.PerformanceSnapshot),
		channels:    make(map[string]*model.PerformanceSnapshot),
		history:     make(map[string][]*model.ExecutionResult),
		historySize: historySize,
		log:         log,
	}
}

// Record merges one execution result into the rolling statistics and pushes
// the updated campaign snapshot to the registry.
func (a *PerformanceAggregator) Record(result *model.ExecutionResult) error {
	a.mu.Lock()

	snap := a.campaigns[result.CampaignID]
	if snap == nil {
		snap = &model.PerformanceSnapshot{}
		a.campaigns[result.CampaignID] = snap
	}

	var reach int
	var engagement float64
	perChannel := map[string]*batch{}
	for _, att := range result.Attempts {
		b := perChannel[att.Channel]
		if b == nil {
			b = &batch{}
			perChannel[att.Channel] = b
		}
		b.posts++
		if att.Outcome == model.OutcomeSuccess {
			reach += att.ReachEstimate
			engagement += att.Engagement
			b.reach += att.ReachEstimate
			b.engagement += att.Engagement
		}
	}
	snap.Fold(result.PostsCreated, reach, engagement)

	for ch, b := range perChannel {
		cs := a.channels[ch]
		if cs == nil {
			cs = &model.PerformanceSnapshot{}
			a.channels[ch] = cs
		}
		cs.Fold(b.posts, b.reach, b.engagement)
	}

	h := append(a.history[result.CampaignID], result)
	if len(h) > a.historySize {
		h = h[len(h)-a.historySize:]
	}
	a.history[result.CampaignID] = h

	persisted := *snap
	a.mu.Unlock()

	if err := a.Registry.UpdatePerformance(result.CampaignID, persisted); err != nil {
		a.log.Warn().Str("campaign", result.CampaignID).Err(err).Msg("failed to persist performance snapshot")
		return err
	}
	return nil
}

type batch struct {
	posts      int
	reach      int
	engagement float64
}

// CampaignSnapshot returns a copy of the campaign's rolling statistics.
func (a *PerformanceAggregator) CampaignSnapshot(campaignID string) model.PerformanceSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if s := a.campaigns[campaignID]; s != nil {
		return *s
	}
	return model.PerformanceSnapshot{}
}

// ChannelSnapshot returns a copy of one channel's rolling statistics.
func (a *PerformanceAggregator) ChannelSnapshot(channel string) model.PerformanceSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if s := a.channels[channel]; s != nil {
		return *s
	}
	return model.PerformanceSnapshot{}
}

// History returns the retained execution results for a campaign, oldest
// first. Results are immutable, so sharing pointers is fine.
func (a *PerformanceAggregator) History(campaignID string) []*model.ExecutionResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]*model.ExecutionResult(nil), a.history[campaignID]...)
}
