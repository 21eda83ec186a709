package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"civicpulse-be/models"
)

// MemoryStore is the in-process Store implementation. A single store-wide
// mutex serializes commits; commits must be globally ordered for event
// fan-out anyway, so the commit section doubles as the ordering point. The
// critical section only touches in-memory state and the subscriber queues,
// so writers never wait on a subscriber.
type MemoryStore struct {
	*hub

	mu      sync.RWMutex
	issues  map[string]*models.Issue
	order   []string // ids, newest first
	nextSeq uint64

	now func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hub:    newHub(),
		issues: make(map[string]*models.Issue),
		now:    time.Now,
	}
}

func (m *MemoryStore) Create(ctx context.Context, draft models.IssueDraft) (*models.Issue, error) {
	if err := models.ValidateDraft(draft); err != nil {
		return nil, err
	}

	m.mu.Lock()
	now := m.now()
	m.nextSeq++
	issue := &models.Issue{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		Category:    draft.Category,
		Status:      models.Reported,
		Location:    draft.Location,
		ImageURL:    draft.ImageURL,
		Upvotes:     0,
		ReportedBy:  draft.ReportedBy,
		ReportedAt:  now,
		UpdatedAt:   now,
		Seq:         m.nextSeq,
	}
	m.issues[issue.ID] = issue
	// Timestamps are assigned in commit order, so inserting at the head
	// keeps the collection sorted by reportedAt desc with the insertion
	// sequence as tie-break.
	m.order = append([]string{issue.ID}, m.order...)

	out, evRecord := *issue, *issue
	m.publish(Event{Kind: Created, ID: issue.ID, Issue: &evRecord})
	m.mu.Unlock()

	return &out, nil
}

func (m *MemoryStore) Upvote(ctx context.Context, id string) (*models.Issue, error) {
	m.mu.Lock()
	issue, ok := m.issues[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	issue.Upvotes++

	out := *issue
	m.publish(Event{Kind: Upvoted, ID: out.ID, Upvotes: out.Upvotes})
	m.mu.Unlock()

	return &out, nil
}

func (m *MemoryStore) UpdateStatus(ctx context.Context, id string, upd StatusUpdate) (*models.Issue, error) {
	if !upd.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	m.mu.Lock()
	issue, ok := m.issues[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	issue.Status = upd.Status
	issue.UpdatedAt = m.now()
	if upd.Notes != "" {
		issue.ResolutionNotes = upd.Notes
	}
	if upd.AssignedTo != "" {
		issue.AssignedTo = upd.AssignedTo
	}

	out, evRecord := *issue, *issue
	m.publish(Event{Kind: Updated, ID: issue.ID, Issue: &evRecord})
	m.mu.Unlock()

	return &out, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*models.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	issue, ok := m.issues[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *issue
	return &out, nil
}

func (m *MemoryStore) Snapshot(ctx context.Context) ([]models.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Issue, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.issues[id])
	}
	return out, nil
}
