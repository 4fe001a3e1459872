package postgres

import (
	"context"
	"fmt"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/storage"
)

// RuleStore implements storage.RuleStore using PostgreSQL.
type RuleStore struct {
	pool *Pool
}

// NewRuleStore creates a new RuleStore.
func NewRuleStore(pool *Pool) *RuleStore {
	return &RuleStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RuleStore = (*RuleStore)(nil)

// Insert adds a new rule. Returns ErrDuplicateKey if id exists.
func (s *RuleStore) Insert(ctx context.Context, r *domain.FinancialRule) error {
	query := `
		INSERT INTO financial_rules (id, user_id, rule_type, threshold_config)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, r.ID, r.UserID, string(r.RuleType), r.ThresholdConfig)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert rule: %w", err)
	}
	return nil
}

// ListByUser retrieves all rules for a user, ordered by id ASC.
func (s *RuleStore) ListByUser(ctx context.Context, userID string) ([]*domain.FinancialRule, error) {
	query := `
		SELECT id, user_id, rule_type, threshold_config
		FROM financial_rules
		WHERE user_id = $1
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var result []*domain.FinancialRule
	for rows.Next() {
		var r domain.FinancialRule
		var ruleType string
		if err := rows.Scan(&r.ID, &r.UserID, &ruleType, &r.ThresholdConfig); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		r.RuleType = domain.RuleType(ruleType)
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return result, nil
}
