package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/storage"
)

// ScenarioStore implements storage.ScenarioStore using PostgreSQL.
// Scope, parameters and layers are stored as JSONB.
type ScenarioStore struct {
	pool *Pool
}

// NewScenarioStore creates a new ScenarioStore.
func NewScenarioStore(pool *Pool) *ScenarioStore {
	return &ScenarioStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScenarioStore = (*ScenarioStore)(nil)

// Insert adds a new scenario. Returns ErrDuplicateKey if id exists.
func (s *ScenarioStore) Insert(ctx context.Context, sc *domain.Scenario) error {
	query := `
		INSERT INTO scenarios (id, user_id, name, scenario_type, scope_config, parameters, status, layers)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		sc.ID,
		sc.UserID,
		sc.Name,
		string(sc.ScenarioType),
		sc.Scope,
		sc.Parameters,
		string(sc.Status),
		layersOrEmpty(sc.Layers),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert scenario: %w", err)
	}
	return nil
}

// GetByID retrieves a scenario by its ID. Returns ErrNotFound if not exists.
func (s *ScenarioStore) GetByID(ctx context.Context, id string) (*domain.Scenario, error) {
	query := `
		SELECT id, user_id, name, scenario_type, scope_config, parameters, status, layers
		FROM scenarios
		WHERE id = $1
	`

	sc, err := scanScenario(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get scenario by id: %w", err)
	}
	return sc, nil
}

// Update replaces a stored scenario, layers included.
func (s *ScenarioStore) Update(ctx context.Context, sc *domain.Scenario) error {
	query := `
		UPDATE scenarios
		SET name = $2, scenario_type = $3, scope_config = $4, parameters = $5,
		    status = $6, layers = $7, updated_at = now()
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		sc.ID,
		sc.Name,
		string(sc.ScenarioType),
		sc.Scope,
		sc.Parameters,
		string(sc.Status),
		layersOrEmpty(sc.Layers),
	)
	if err != nil {
		return fmt.Errorf("update scenario: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// layersOrEmpty keeps the NOT NULL layers column a JSON array.
func layersOrEmpty(layers []domain.ScenarioLayer) []domain.ScenarioLayer {
	if layers == nil {
		return []domain.ScenarioLayer{}
	}
	return layers
}

// scanScenario scans a single row into a Scenario.
func scanScenario(row pgx.Row) (*domain.Scenario, error) {
	var sc domain.Scenario
	var scenarioType, status string

	err := row.Scan(
		&sc.ID,
		&sc.UserID,
		&sc.Name,
		&scenarioType,
		&sc.Scope,
		&sc.Parameters,
		&status,
		&sc.Layers,
	)
	if err != nil {
		return nil, err
	}

	sc.ScenarioType = domain.ScenarioType(scenarioType)
	sc.Status = domain.ScenarioStatus(status)
	if len(sc.Layers) == 0 {
		sc.Layers = nil
	}
	return &sc, nil
}
