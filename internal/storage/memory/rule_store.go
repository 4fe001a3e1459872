package memory

import (
	"context"
	"sort"
	"sync"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/storage"
)

// RuleStore is an in-memory implementation of storage.RuleStore.
type RuleStore struct {
	mu   sync.RWMutex
	data map[string]*domain.FinancialRule // keyed by rule id
}

// NewRuleStore creates a new in-memory rule store.
func NewRuleStore() *RuleStore {
	return &RuleStore{
		data: make(map[string]*domain.FinancialRule),
	}
}

// Insert adds a new rule. Returns ErrDuplicateKey if id exists.
func (s *RuleStore) Insert(_ context.Context, r *domain.FinancialRule) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.ID]; exists {
		return storage.ErrDuplicateKey
	}

	ruleCopy := *r
	s.data[r.ID] = &ruleCopy
	return nil
}

// ListByUser retrieves all rules for a user, ordered by id ASC.
func (s *RuleStore) ListByUser(_ context.Context, userID string) ([]*domain.FinancialRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FinancialRule
	for _, r := range s.data {
		if r.UserID == userID {
			ruleCopy := *r
			result = append(result, &ruleCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.RuleStore = (*RuleStore)(nil)
