package store

import (
	"context"
	"errors"

	"civicpulse-be/models"
)

var (
	// ErrNotFound is returned when an operation targets an id that is not
	// in the store.
	ErrNotFound = errors.New("issue not found")

	// ErrInvalidStatus is returned when a status update names a value
	// outside the status enumeration.
	ErrInvalidStatus = errors.New("invalid issue status")
)

// ChangeKind identifies what a change event describes.
type ChangeKind string

const (
	Created ChangeKind = "created"
	Upvoted ChangeKind = "upvoted"
	Updated ChangeKind = "updated"
)

// Event describes one committed mutation. Created and Updated carry the full
// record; Upvoted carries only the id and the new counter value.
type Event struct {
	Kind    ChangeKind    `json:"kind"`
	ID      string        `json:"id"`
	Issue   *models.Issue `json:"issue,omitempty"`
	Upvotes int64         `json:"upvotes,omitempty"`

	// Seq is the global commit sequence; subscribers observe events in
	// strictly increasing Seq order.
	Seq uint64 `json:"seq"`
}

// Subscription identifies one registered listener.
type Subscription struct {
	id  uint64
	sub *subscriber
	hub *hub
}

// StatusUpdate is the payload of UpdateStatus. Empty Notes and AssignedTo
// leave the prior values untouched.
type StatusUpdate struct {
	Status     models.IssueStatus
	Notes      string
	AssignedTo string
}

// Store is the authoritative collection of issues. All mutating operations
// are atomic: no caller ever observes a half-applied mutation, and every
// committed mutation produces exactly one event.
type Store interface {
	// Create validates the draft, assigns id, timestamps, status and the
	// upvote counter, and inserts the issue at the head of the collection.
	Create(ctx context.Context, draft models.IssueDraft) (*models.Issue, error)

	// Upvote atomically increments the issue's upvote counter by one.
	// It does not touch updatedAt.
	Upvote(ctx context.Context, id string) (*models.Issue, error)

	// UpdateStatus sets the issue's status and refreshes updatedAt.
	// Notes and AssignedTo are merged, not clobbered: empty values keep
	// whatever was there before.
	UpdateStatus(ctx context.Context, id string, upd StatusUpdate) (*models.Issue, error)

	// Get is a point lookup with no side effects.
	Get(ctx context.Context, id string) (*models.Issue, error)

	// Snapshot returns a consistent point-in-time copy of the whole
	// collection, newest first (reportedAt desc, insertion seq desc).
	Snapshot(ctx context.Context) ([]models.Issue, error)

	// Subscribe registers a listener for every mutation committed from
	// now on. The callback runs on a dedicated goroutine per subscriber
	// and never blocks a committing writer.
	Subscribe(fn func(Event)) *Subscription

	// Unsubscribe stops deliveries. After it returns the callback will
	// not be invoked again; queued undelivered events are dropped.
	// It waits for an in-flight callback to finish, so it must not be
	// called from inside the subscription's own callback.
	Unsubscribe(s *Subscription)
}
