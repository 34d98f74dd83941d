package repository

import (
	"context"
	"sync"
	"time"

	"github.com/novatix/novatix-backend/internal/domain"
)

// MemoryEventRepository implements EventRepository with in-memory storage.
// Used in tests and local development.
type MemoryEventRepository struct {
	mu     sync.RWMutex
	events map[string]*domain.Event
}

// NewMemoryEventRepository creates a new MemoryEventRepository
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{
		events: make(map[string]*domain.Event),
	}
}

// Create creates a new event
func (r *MemoryEventRepository) Create(ctx context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[event.ID]; exists {
		return &domain.ValidationError{Message: "event already exists: " + event.ID}
	}
	if event.Version == 0 {
		event.Version = 1
	}
	r.events[event.ID] = cloneEvent(event)
	return nil
}

// GetByID retrieves an event by ID
func (r *MemoryEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, exists := r.events[id]
	if !exists {
		return nil, nil
	}
	return cloneEvent(event), nil
}

// Update persists the event if its version still matches
func (r *MemoryEventRepository) Update(ctx context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.events[event.ID]
	if !exists {
		return &domain.NotFoundError{Resource: "event", ID: event.ID}
	}
	if stored.Version != event.Version {
		return domain.ErrVersionConflict
	}

	updated := cloneEvent(event)
	updated.Version++
	updated.UpdatedAt = time.Now()
	r.events[event.ID] = updated

	// Reflect the new version back to the caller
	event.Version = updated.Version
	event.UpdatedAt = updated.UpdatedAt
	return nil
}

// cloneEvent returns a deep copy so callers never alias stored state
func cloneEvent(e *domain.Event) *domain.Event {
	out := *e
	out.CoOrganizers = make([]domain.CoOrganizerAgreement, len(e.CoOrganizers))
	copy(out.CoOrganizers, e.CoOrganizers)
	for i := range out.CoOrganizers {
		if e.CoOrganizers[i].RespondedAt != nil {
			t := *e.CoOrganizers[i].RespondedAt
			out.CoOrganizers[i].RespondedAt = &t
		}
	}
	return &out
}
