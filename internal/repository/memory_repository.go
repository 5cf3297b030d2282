package repository

import (
	"sync"

	appErrors "github.com/unclebandit/campaign-engine/internal/errors"
	"github.com/unclebandit/campaign-engine/internal/model"
)

// MemoryCampaignRepository is the in-memory registry. It is the default for
// single-node deployments and for tests; the scheduler only ever talks to the
// interface, so swapping in the Postgres registry touches no scheduling logic.
//
// All writes go through one mutex, which linearizes run-state updates per
// campaign id. Reads hand out copies so callers never share mutable state
// with the store. Deleted campaigns stay in the map for audit; ids are
// never reused (they are uuids).
type MemoryCampaignRepository struct {
	mu        sync.RWMutex
	campaigns map[string]*model.Campaign
}

func NewMemoryCampaignRepository() *MemoryCampaignRepository {
	return &MemoryCampaignRepository{campaigns: make(map[string]*model.Campaign)}
}

func (r *MemoryCampaignRepository) Create(c *model.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := cloneCampaign(c)
	r.campaigns[c.ID] = cp
	return nil
}

func (r *MemoryCampaignRepository) GetByID(id string) (*model.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return cloneCampaign(c), nil
}

func (r *MemoryCampaignRepository) List(f model.CampaignFilter) ([]*model.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*model.Campaign{}
	for _, c := range r.campaigns {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Channel != "" && !contains(c.Channels, f.Channel) {
			continue
		}
		out = append(out, cloneCampaign(c))
	}
	return out, nil
}

func (r *MemoryCampaignRepository) UpdateRunState(id string, upd model.RunStateUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	if upd.Status != nil {
		c.Status = *upd.Status
	}
	if upd.NextRun != nil {
		t := *upd.NextRun
		c.NextRun = &t
	}
	if upd.LastRun != nil {
		t := *upd.LastRun
		c.LastRun = &t
	}
	if upd.InFlight != nil {
		c.InFlight = *upd.InFlight
	}
	if upd.SegmentCursor != nil {
		c.SegmentCursor = *upd.SegmentCursor
	}
	return nil
}

func (r *MemoryCampaignRepository) UpdatePerformance(id string, p model.PerformanceSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	c.Performance = p
	return nil
}

func cloneCampaign(c *model.Campaign) *model.Campaign {
	cp := *c
	cp.Channels = append([]string(nil), c.Channels...)
	cp.ContentTypes = append([]string(nil), c.ContentTypes...)
	cp.TargetSegments = append([]string(nil), c.TargetSegments...)
	cp.Cadence.Slots = append([]model.WeekdaySlot(nil), c.Cadence.Slots...)
	if c.NextRun != nil {
		t := *c.NextRun
		cp.NextRun = &t
	}
	if c.LastRun != nil {
		t := *c.LastRun
		cp.LastRun = &t
	}
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		cp.UpdatedAt = &t
	}
	return &cp
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

var _ CampaignRegistryInterface = (*MemoryCampaignRepository)(nil)
