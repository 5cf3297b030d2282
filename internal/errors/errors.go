// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %s not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id string) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// IsNotFound reports whether err is a campaign-not-found error.
func IsNotFound(err error) bool {
	var nf *ErrCampaignNotFound
	return errors.As(err, &nf)
}

// ErrInvalidDefinition rejects a campaign definition at creation time.
// It never reaches the scheduler.
type ErrInvalidDefinition struct {
	Field  string
	Reason string
}

func (e *ErrInvalidDefinition) Error() string {
	return fmt.Sprintf("invalid campaign definition: %s %s", e.Field, e.Reason)
}

func NewInvalidDefinition(field, reason string) error {
	return &ErrInvalidDefinition{Field: field, Reason: reason}
}

// IsInvalidDefinition reports whether err is a validation error.
func IsInvalidDefinition(err error) bool {
	var iv *ErrInvalidDefinition
	return errors.As(err, &iv)
}

// ErrCollaborator wraps a content-generation or distribution failure.
// It is captured per attempt and aggregated into the execution result;
// it never propagates out of the execution coordinator. Timeouts are
// reported through the same type with Timeout set.
type ErrCollaborator struct {
	Collaborator string // "generator" or "distributor"
	Channel      string
	ContentType  string
	Timeout      bool
	Err          error
}

func (e *ErrCollaborator) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s timed out for %s/%s: %v", e.Collaborator, e.Channel, e.ContentType, e.Err)
	}
	return fmt.Sprintf("%s failed for %s/%s: %v", e.Collaborator, e.Channel, e.ContentType, e.Err)
}

func (e *ErrCollaborator) Unwrap() error { return e.Err }
