package memory

import (
	"context"
	"sort"
	"sync"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/storage"
)

// ControlStore is an in-memory implementation of storage.ControlStore.
type ControlStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Control // keyed by control id
}

// NewControlStore creates a new in-memory control store.
func NewControlStore() *ControlStore {
	return &ControlStore{
		data: make(map[string]*domain.Control),
	}
}

// Insert adds a new control. Returns ErrDuplicateKey if id exists.
func (s *ControlStore) Insert(_ context.Context, c *domain.Control) error {
	if c == nil || c.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[c.ID]; exists {
		return storage.ErrDuplicateKey
	}

	controlCopy := c.Clone()
	s.data[c.ID] = &controlCopy
	return nil
}

// GetByID retrieves a control by its ID. Returns ErrNotFound if not exists.
func (s *ControlStore) GetByID(_ context.Context, id string) (*domain.Control, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	controlCopy := c.Clone()
	return &controlCopy, nil
}

// ListByUser retrieves all controls for a user, ordered by id ASC.
func (s *ControlStore) ListByUser(_ context.Context, userID string) ([]*domain.Control, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Control
	for _, c := range s.data {
		if c.UserID == userID {
			controlCopy := c.Clone()
			result = append(result, &controlCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// Approve moves a pending or needs_review control to active.
func (s *ControlStore) Approve(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.data[id]
	if !exists {
		return storage.ErrNotFound
	}
	if !c.State.Actionable() {
		return storage.ErrInvalidInput
	}
	c.State = domain.ControlStateActive
	return nil
}

// Verify interface compliance at compile time.
var _ storage.ControlStore = (*ControlStore)(nil)
