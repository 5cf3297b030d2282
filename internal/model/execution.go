// internal/model/execution.go
package model

import "time"

// Attempt outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// PostAttempt is the record of one (contentType, channel) delivery try.
type PostAttempt struct {
	Channel       string  `db:"channel" json:"channel"`
	ContentType   string  `db:"content_type" json:"content_type"`
	Topic         string  `db:"topic" json:"topic"`
	Outcome       string  `db:"outcome" json:"outcome"` // success, failure
	ReachEstimate int     `db:"reach_estimate" json:"reach_estimate"`
	Engagement    float64 `db:"engagement" json:"engagement"`
	RemoteID      string  `db:"remote_id" json:"remote_id,omitempty"`
	Error         string  `db:"last_error,omitempty" json:"error,omitempty"`
	Retried       bool    `db:"retried" json:"retried"`
}

// ExecutionResult is produced once per fired trigger and is immutable after
// the coordinator returns it.
type ExecutionResult struct {
	CampaignID     string        `db:"campaign_id" json:"campaign_id"`
	TriggeredAt    time.Time     `db:"triggered_at" json:"triggered_at"`
	Attempts       []PostAttempt `db:"attempts" json:"attempts"`
	PostsCreated   int           `db:"posts_created" json:"posts_created"`
	PostsSucceeded int           `db:"posts_succeeded" json:"posts_succeeded"`
	Errors         []string      `db:"errors" json:"errors,omitempty"`
}

// Finalize fills the derived aggregates from the attempt list.
func (r *ExecutionResult) Finalize() {
	r.PostsCreated = len(r.Attempts)
	r.PostsSucceeded = 0
	r.Errors = nil
	for _, a := range r.Attempts {
		if a.Outcome == OutcomeSuccess {
			r.PostsSucceeded++
		} else if a.Error != "" {
			r.Errors = append(r.Errors, a.Channel+"/"+a.ContentType+": "+a.Error)
		}
	}
}
