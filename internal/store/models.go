// Package store contains the persistence layer for postpilot.
package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a post record.
type Status string

const (
	// StatusPending is the only non-terminal status. A pending record may or
	// may not have a scheduled time yet.
	StatusPending Status = "pending"

	// Terminal statuses. No transition ever leaves these.
	StatusPosted      Status = "posted"
	StatusFailed      Status = "failed"
	StatusDryRun      Status = "dry_run"
	StatusNoPublisher Status = "no_publisher"
)

// Terminal reports whether a record in this status can still transition.
func (s Status) Terminal() bool {
	switch s {
	case StatusPosted, StatusFailed, StatusDryRun, StatusNoPublisher:
		return true
	}
	return false
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	return s == StatusPending || s.Terminal()
}

// ErrInvalidTransition is returned by Transition for a move the status
// machine does not allow.
var ErrInvalidTransition = fmt.Errorf("invalid status transition")

// PostRecord represents one post candidate moving through the lifecycle.
// Text is immutable after creation; edits happen upstream in the approval
// step, never here.
type PostRecord struct {
	ID            uuid.UUID  `json:"id"`
	Text          string     `json:"text"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	ScheduledTime *time.Time `json:"scheduled_time,omitempty"`
	Period        string     `json:"period,omitempty"`
	PostedAt      *time.Time `json:"posted_at,omitempty"`
	PublishID     string     `json:"publish_id,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// Transition moves the record to a new status, rejecting illegal moves.
// Terminal statuses are absorbing, and nothing transitions back to pending.
func (r *PostRecord) Transition(to Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	if r.Status.Terminal() {
		return fmt.Errorf("%w: %s is terminal, cannot move to %s", ErrInvalidTransition, r.Status, to)
	}
	if to == StatusPending {
		return fmt.Errorf("%w: records are only pending at creation", ErrInvalidTransition)
	}
	r.Status = to
	return nil
}

// Due reports whether the record is pending, has a scheduled time, and that
// time is at or before now.
func (r *PostRecord) Due(now time.Time) bool {
	if r.Status != StatusPending || r.ScheduledTime == nil {
		return false
	}
	return !r.ScheduledTime.After(now)
}

// HistoryEntry is one line of the append-only execution audit log.
type HistoryEntry struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Result    string    `json:"result"`
}
