package memory

import (
	"context"
	"sort"
	"sync"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/storage"
)

// RiskStore is an in-memory implementation of storage.RiskStore.
type RiskStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Risk // keyed by risk id
}

// NewRiskStore creates a new in-memory risk store.
func NewRiskStore() *RiskStore {
	return &RiskStore{
		data: make(map[string]*domain.Risk),
	}
}

// Insert adds a new risk. Returns ErrDuplicateKey if id exists.
func (s *RiskStore) Insert(_ context.Context, r *domain.Risk) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	riskCopy := r.Clone()
	s.data[r.ID] = &riskCopy
	return nil
}

// GetByID retrieves a risk by its ID. Returns ErrNotFound if not exists.
func (s *RiskStore) GetByID(_ context.Context, id string) (*domain.Risk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	riskCopy := r.Clone()
	return &riskCopy, nil
}

// List retrieves risks matching filter, ordered by detected_at ASC, id ASC.
func (s *RiskStore) List(_ context.Context, filter storage.RiskFilter) ([]*domain.Risk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Risk
	for _, r := range s.data {
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.Severity != "" && r.Severity != filter.Severity {
			continue
		}
		if !filter.IncludeDismissed && r.Status == domain.RiskStatusDismissed {
			continue
		}
		riskCopy := r.Clone()
		result = append(result, &riskCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].DetectedAt.Equal(result[j].DetectedAt) {
			return result[i].DetectedAt.Before(result[j].DetectedAt)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// Dismiss marks a risk dismissed. Returns ErrNotFound if not exists.
func (s *RiskStore) Dismiss(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.data[id]
	if !exists {
		return storage.ErrNotFound
	}
	r.Status = domain.RiskStatusDismissed
	return nil
}

// Verify interface compliance at compile time.
var _ storage.RiskStore = (*RiskStore)(nil)
