package storage

import (
	"context"

	"tamio-engine/internal/domain"
)

// RiskFilter narrows RiskStore.List.
type RiskFilter struct {
	UserID           string
	Severity         domain.Severity // empty matches any
	IncludeDismissed bool
}

// RiskStore provides access to detected risks.
type RiskStore interface {
	// Insert adds a new risk. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, r *domain.Risk) error

	// GetByID retrieves a risk by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Risk, error)

	// List retrieves risks matching filter, ordered by detected_at ASC, id ASC.
	List(ctx context.Context, filter RiskFilter) ([]*domain.Risk, error)

	// Dismiss marks a risk dismissed. Returns ErrNotFound if not exists.
	Dismiss(ctx context.Context, id string) error
}

// ControlStore provides access to mitigations.
type ControlStore interface {
	// Insert adds a new control. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, c *domain.Control) error

	// GetByID retrieves a control by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Control, error)

	// ListByUser retrieves all controls for a user, ordered by id ASC.
	ListByUser(ctx context.Context, userID string) ([]*domain.Control, error)

	// Approve moves a pending or needs_review control to active.
	// Returns ErrNotFound if not exists, ErrInvalidInput for any other state.
	Approve(ctx context.Context, id string) error
}

// ForecastStore provides access to the upstream weekly forecast.
type ForecastStore interface {
	// Save replaces the stored forecast for f.UserID.
	Save(ctx context.Context, f *domain.Forecast) error

	// Get retrieves the first weeks weeks of a user's forecast with a
	// recomputed summary. weeks <= 0 returns every stored week.
	// Returns ErrNotFound if the user has no forecast.
	Get(ctx context.Context, userID string, weeks int) (*domain.Forecast, error)
}

// RuleStore provides access to financial rules.
type RuleStore interface {
	// Insert adds a new rule. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, r *domain.FinancialRule) error

	// ListByUser retrieves all rules for a user, ordered by id ASC.
	ListByUser(ctx context.Context, userID string) ([]*domain.FinancialRule, error)
}

// ClientStore provides access to clients used as scenario scopes.
type ClientStore interface {
	// Insert adds a new client. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, c *domain.Client) error

	// ListByUser retrieves all clients for a user, ordered by id ASC.
	ListByUser(ctx context.Context, userID string) ([]*domain.Client, error)
}

// BucketStore provides access to expense buckets used as scenario scopes.
type BucketStore interface {
	// Insert adds a new bucket. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, b *domain.ExpenseBucket) error

	// ListByUser retrieves all buckets for a user, ordered by id ASC.
	ListByUser(ctx context.Context, userID string) ([]*domain.ExpenseBucket, error)
}

// ScenarioStore provides access to saved scenarios and their layers.
type ScenarioStore interface {
	// Insert adds a new scenario. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, s *domain.Scenario) error

	// GetByID retrieves a scenario by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Scenario, error)

	// Update replaces a stored scenario, layers included.
	// Returns ErrNotFound if not exists.
	Update(ctx context.Context, s *domain.Scenario) error
}
