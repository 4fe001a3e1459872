package postgres

import (
	"context"
	"fmt"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/storage"
)

// ClientStore implements storage.ClientStore using PostgreSQL.
type ClientStore struct {
	pool *Pool
}

// NewClientStore creates a new ClientStore.
func NewClientStore(pool *Pool) *ClientStore {
	return &ClientStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ClientStore = (*ClientStore)(nil)

// Insert adds a new client. Returns ErrDuplicateKey if id exists.
func (s *ClientStore) Insert(ctx context.Context, c *domain.Client) error {
	query := `
		INSERT INTO clients (id, user_id, name, billing_amount, billing_frequency, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		c.ID, c.UserID, c.Name, c.BillingAmount, string(c.BillingFrequency), c.Status)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

// ListByUser retrieves all clients for a user, ordered by id ASC.
func (s *ClientStore) ListByUser(ctx context.Context, userID string) ([]*domain.Client, error) {
	query := `
		SELECT id, user_id, name, billing_amount::text, billing_frequency, status
		FROM clients
		WHERE user_id = $1
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var result []*domain.Client
	for rows.Next() {
		var c domain.Client
		var amount, freq string
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &amount, &freq, &c.Status); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		if c.BillingAmount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		c.BillingFrequency = domain.Frequency(freq)
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return result, nil
}

// BucketStore implements storage.BucketStore using PostgreSQL.
type BucketStore struct {
	pool *Pool
}

// NewBucketStore creates a new BucketStore.
func NewBucketStore(pool *Pool) *BucketStore {
	return &BucketStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BucketStore = (*BucketStore)(nil)

// Insert adds a new bucket. Returns ErrDuplicateKey if id exists.
func (s *BucketStore) Insert(ctx context.Context, b *domain.ExpenseBucket) error {
	query := `
		INSERT INTO expense_buckets (id, user_id, name, category, amount, frequency)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		b.ID, b.UserID, b.Name, b.Category, b.Amount, string(b.Frequency))
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert bucket: %w", err)
	}
	return nil
}

// ListByUser retrieves all buckets for a user, ordered by id ASC.
func (s *BucketStore) ListByUser(ctx context.Context, userID string) ([]*domain.ExpenseBucket, error) {
	query := `
		SELECT id, user_id, name, category, amount::text, frequency
		FROM expense_buckets
		WHERE user_id = $1
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	defer rows.Close()

	var result []*domain.ExpenseBucket
	for rows.Next() {
		var b domain.ExpenseBucket
		var amount, freq string
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.Category, &amount, &freq); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		if b.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		b.Frequency = domain.Frequency(freq)
		result = append(result, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate buckets: %w", err)
	}
	return result, nil
}
