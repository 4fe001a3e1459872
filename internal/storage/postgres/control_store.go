package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/storage"
)

// ControlStore implements storage.ControlStore using PostgreSQL.
type ControlStore struct {
	pool *Pool
}

// NewControlStore creates a new ControlStore.
func NewControlStore(pool *Pool) *ControlStore {
	return &ControlStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ControlStore = (*ControlStore)(nil)

const controlColumns = `id, user_id, name, why_it_exists, impact_amount::text, state,
	linked_risk_ids, draft_content, tamio_handles, user_handles`

// Insert adds a new control. Returns ErrDuplicateKey if id exists.
func (s *ControlStore) Insert(ctx context.Context, c *domain.Control) error {
	query := `
		INSERT INTO controls (
			id, user_id, name, why_it_exists, impact_amount, state,
			linked_risk_ids, draft_content, tamio_handles, user_handles
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		c.ID,
		c.UserID,
		c.Name,
		c.WhyItExists,
		c.ImpactAmount,
		string(c.State),
		c.LinkedRiskIDs,
		c.DraftContent,
		c.TamioHandles,
		c.UserHandles,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert control: %w", err)
	}
	return nil
}

// GetByID retrieves a control by its ID. Returns ErrNotFound if not exists.
func (s *ControlStore) GetByID(ctx context.Context, id string) (*domain.Control, error) {
	query := `SELECT ` + controlColumns + ` FROM controls WHERE id = $1`

	c, err := scanControl(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get control by id: %w", err)
	}
	return c, nil
}

// ListByUser retrieves all controls for a user, ordered by id ASC.
func (s *ControlStore) ListByUser(ctx context.Context, userID string) ([]*domain.Control, error) {
	query := `SELECT ` + controlColumns + ` FROM controls WHERE user_id = $1 ORDER BY id ASC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list controls: %w", err)
	}
	defer rows.Close()

	var result []*domain.Control
	for rows.Next() {
		c, err := scanControl(rows)
		if err != nil {
			return nil, fmt.Errorf("scan control: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate controls: %w", err)
	}
	return result, nil
}

// Approve moves a pending or needs_review control to active.
func (s *ControlStore) Approve(ctx context.Context, id string) error {
	query := `
		UPDATE controls SET state = 'active', updated_at = now()
		WHERE id = $1 AND state IN ('pending', 'needs_review')
	`

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("approve control: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Distinguish a missing control from one in a non-approvable state.
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM controls WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check control: %w", err)
	}
	if !exists {
		return storage.ErrNotFound
	}
	return storage.ErrInvalidInput
}

// scanControl scans a single row into a Control.
func scanControl(row pgx.Row) (*domain.Control, error) {
	var c domain.Control
	var state string
	var impact *string

	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.WhyItExists,
		&impact,
		&state,
		&c.LinkedRiskIDs,
		&c.DraftContent,
		&c.TamioHandles,
		&c.UserHandles,
	)
	if err != nil {
		return nil, err
	}

	c.State = domain.ControlState(state)
	if c.ImpactAmount, err = parseNullDecimal(impact); err != nil {
		return nil, err
	}
	return &c, nil
}
