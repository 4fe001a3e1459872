package memory

import (
	"context"
	"sort"
	"sync"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/storage"
)

// ClientStore is an in-memory implementation of storage.ClientStore.
type ClientStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Client // keyed by client id
}

// NewClientStore creates a new in-memory client store.
func NewClientStore() *ClientStore {
	return &ClientStore{
		data: make(map[string]*domain.Client),
	}
}

// Insert adds a new client. Returns ErrDuplicateKey if id exists.
func (s *ClientStore) Insert(_ context.Context, c *domain.Client) error {
	if c == nil || c.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[c.ID]; exists {
		return storage.ErrDuplicateKey
	}

	clientCopy := *c
	s.data[c.ID] = &clientCopy
	return nil
}

// ListByUser retrieves all clients for a user, ordered by id ASC.
func (s *ClientStore) ListByUser(_ context.Context, userID string) ([]*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Client
	for _, c := range s.data {
		if c.UserID == userID {
			clientCopy := *c
			result = append(result, &clientCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// BucketStore is an in-memory implementation of storage.BucketStore.
type BucketStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ExpenseBucket // keyed by bucket id
}

// NewBucketStore creates a new in-memory expense bucket store.
func NewBucketStore() *BucketStore {
	return &BucketStore{
		data: make(map[string]*domain.ExpenseBucket),
	}
}

// Insert adds a new bucket. Returns ErrDuplicateKey if id exists.
func (s *BucketStore) Insert(_ context.Context, b *domain.ExpenseBucket) error {
	if b == nil || b.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[b.ID]; exists {
		return storage.ErrDuplicateKey
	}

	bucketCopy := *b
	s.data[b.ID] = &bucketCopy
	return nil
}

// ListByUser retrieves all buckets for a user, ordered by id ASC.
func (s *BucketStore) ListByUser(_ context.Context, userID string) ([]*domain.ExpenseBucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ExpenseBucket
	for _, b := range s.data {
		if b.UserID == userID {
			bucketCopy := *b
			result = append(result, &bucketCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// Verify interface compliance at compile time.
var (
	_ storage.ClientStore = (*ClientStore)(nil)
	_ storage.BucketStore = (*BucketStore)(nil)
)
