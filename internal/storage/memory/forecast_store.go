package memory

import (
	"context"
	"sync"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/forecast"
	"tamio-engine/internal/storage"
)

// ForecastStore is an in-memory implementation of storage.ForecastStore.
type ForecastStore struct {
	mu   sync.RWMutex
	data map[string]domain.Forecast // keyed by user id
}

// NewForecastStore creates a new in-memory forecast store.
func NewForecastStore() *ForecastStore {
	return &ForecastStore{
		data: make(map[string]domain.Forecast),
	}
}

// Save replaces the stored forecast for f.UserID.
func (s *ForecastStore) Save(_ context.Context, f *domain.Forecast) error {
	if f == nil || f.UserID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[f.UserID] = f.Clone()
	return nil
}

// Get retrieves the first weeks weeks of a user's forecast.
func (s *ForecastStore) Get(_ context.Context, userID string, weeks int) (*domain.Forecast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, exists := s.data[userID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	out := f.Clone()
	if weeks > 0 && weeks < len(out.Weeks) {
		out.Weeks = out.Weeks[:weeks]
	}
	out.Summary = forecast.Summarize(out.Weeks)
	return &out, nil
}

// Verify interface compliance at compile time.
var _ storage.ForecastStore = (*ForecastStore)(nil)
