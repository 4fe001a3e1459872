package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/storage"
)

// RiskStore implements storage.RiskStore using PostgreSQL.
type RiskStore struct {
	pool *Pool
}

// NewRiskStore creates a new RiskStore.
func NewRiskStore(pool *Pool) *RiskStore {
	return &RiskStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RiskStore = (*RiskStore)(nil)

const riskColumns = `id, user_id, title, severity, detection_type, status, context_bullets,
	primary_driver, due_horizon_label, impact_statement, cash_impact::text, context_data,
	linked_control_ids, detected_at`

// Insert adds a new risk. Returns ErrDuplicateKey if id exists.
func (s *RiskStore) Insert(ctx context.Context, r *domain.Risk) error {
	query := `
		INSERT INTO risks (
			id, user_id, title, severity, detection_type, status, context_bullets,
			primary_driver, due_horizon_label, impact_statement, cash_impact, context_data,
			linked_control_ids, detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	status := r.Status
	if status == "" {
		status = domain.RiskStatusActive
	}

	_, err := s.pool.Exec(ctx, query,
		r.ID,
		r.UserID,
		r.Title,
		string(r.Severity),
		string(r.DetectionType),
		string(status),
		r.ContextBullets,
		r.PrimaryDriver,
		r.DueHorizonLabel,
		r.ImpactStatement,
		r.CashImpact,
		r.ContextData,
		r.LinkedControlIDs,
		r.DetectedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert risk: %w", err)
	}
	return nil
}

// GetByID retrieves a risk by its ID. Returns ErrNotFound if not exists.
func (s *RiskStore) GetByID(ctx context.Context, id string) (*domain.Risk, error) {
	query := `SELECT ` + riskColumns + ` FROM risks WHERE id = $1`

	r, err := scanRisk(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get risk by id: %w", err)
	}
	return r, nil
}

// List retrieves risks matching filter, ordered by detected_at ASC, id ASC.
func (s *RiskStore) List(ctx context.Context, filter storage.RiskFilter) ([]*domain.Risk, error) {
	query := `
		SELECT ` + riskColumns + `
		FROM risks
		WHERE user_id = $1
		  AND ($2 = '' OR severity = $2)
		  AND ($3 OR status <> 'dismissed')
		ORDER BY detected_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, filter.UserID, string(filter.Severity), filter.IncludeDismissed)
	if err != nil {
		return nil, fmt.Errorf("list risks: %w", err)
	}
	defer rows.Close()

	var result []*domain.Risk
	for rows.Next() {
		r, err := scanRisk(rows)
		if err != nil {
			return nil, fmt.Errorf("scan risk: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate risks: %w", err)
	}
	return result, nil
}

// Dismiss marks a risk dismissed. Returns ErrNotFound if not exists.
func (s *RiskStore) Dismiss(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE risks SET status = 'dismissed' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("dismiss risk: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanRisk scans a single row into a Risk.
func scanRisk(row pgx.Row) (*domain.Risk, error) {
	var r domain.Risk
	var severity, detection, status string
	var cashImpact *string

	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.Title,
		&severity,
		&detection,
		&status,
		&r.ContextBullets,
		&r.PrimaryDriver,
		&r.DueHorizonLabel,
		&r.ImpactStatement,
		&cashImpact,
		&r.ContextData,
		&r.LinkedControlIDs,
		&r.DetectedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Severity = domain.Severity(severity)
	r.DetectionType = domain.DetectionType(detection)
	r.Status = domain.RiskStatus(status)
	if r.CashImpact, err = parseNullDecimal(cashImpact); err != nil {
		return nil, err
	}
	r.DetectedAt = r.DetectedAt.UTC()
	return &r, nil
}
