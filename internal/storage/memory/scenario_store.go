package memory

import (
	"context"
	"sync"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/storage"
)

// ScenarioStore is an in-memory implementation of storage.ScenarioStore.
type ScenarioStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Scenario // keyed by scenario id
}

// NewScenarioStore creates a new in-memory scenario store.
func NewScenarioStore() *ScenarioStore {
	return &ScenarioStore{
		data: make(map[string]*domain.Scenario),
	}
}

// Insert adds a new scenario. Returns ErrDuplicateKey if id exists.
func (s *ScenarioStore) Insert(_ context.Context, sc *domain.Scenario) error {
	if sc == nil || sc.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[sc.ID]; exists {
		return storage.ErrDuplicateKey
	}

	scenarioCopy := sc.Clone()
	s.data[sc.ID] = &scenarioCopy
	return nil
}

// GetByID retrieves a scenario by its ID. Returns ErrNotFound if not exists.
func (s *ScenarioStore) GetByID(_ context.Context, id string) (*domain.Scenario, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sc, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	scenarioCopy := sc.Clone()
	return &scenarioCopy, nil
}

// Update replaces a stored scenario. Returns ErrNotFound if not exists.
func (s *ScenarioStore) Update(_ context.Context, sc *domain.Scenario) error {
	if sc == nil || sc.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[sc.ID]; !exists {
		return storage.ErrNotFound
	}

	scenarioCopy := sc.Clone()
	s.data[sc.ID] = &scenarioCopy
	return nil
}

// Verify interface compliance at compile time.
var _ storage.ScenarioStore = (*ScenarioStore)(nil)
