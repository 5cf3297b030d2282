// internal/model/campaign.go
package model

import "time"

// Campaign status values. Deleted is terminal.
const (
	StatusActive  = "active"
	StatusPaused  = "paused"
	StatusDeleted = "deleted"
)

type Campaign struct {
	ID             string              `db:"id" json:"id"`
	Name           string              `db:"name" json:"name"`
	Cadence        Cadence             `db:"cadence" json:"cadence"`
	Channels       []string            `db:"channels" json:"channels"`
	ContentTypes   []string            `db:"content_types" json:"content_types"`
	TargetSegments []string            `db:"target_segments" json:"target_segments"`
	SegmentCursor  int                 `db:"segment_cursor" json:"segment_cursor"`
	Status         string              `db:"status" json:"status"`
	InFlight       bool                `db:"in_flight" json:"in_flight"`
	NextRun        *time.Time          `db:"next_run" json:"next_run,omitempty"`
	LastRun        *time.Time          `db:"last_run" json:"last_run,omitempty"`
	Performance    PerformanceSnapshot `db:"performance" json:"performance"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time          `db:"updated_at" json:"updated_at,omitempty"`
}

// NextTopic returns the target segment the next execution should use.
// Empty segment lists fall back to the campaign name.
func (c *Campaign) NextTopic() string {
	if len(c.TargetSegments) == 0 {
		return c.Name
	}
	return c.TargetSegments[c.SegmentCursor%len(c.TargetSegments)]
}

// RunStateUpdate carries the scheduling-related fields that may change after
// creation. Nil pointers mean "leave as is".
type RunStateUpdate struct {
	Status        *string
	NextRun       *time.Time
	LastRun       *time.Time
	InFlight      *bool
	SegmentCursor *int
}

// CampaignFilter narrows List results. Zero value matches everything.
type CampaignFilter struct {
	Status  string
	Channel string
}
