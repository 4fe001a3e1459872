package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/storage"
)

func TestRiskStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRiskStore(pool)
	ctx := context.Background()

	risk := &domain.Risk{
		ID:               "risk-001",
		UserID:           "user-1",
		Title:            "Payroll at risk in week 4",
		Severity:         domain.SeverityUrgent,
		DetectionType:    domain.DetectionPayrollSafety,
		Status:           domain.RiskStatusActive,
		ContextBullets:   []string{"Payroll due Friday", "Balance below buffer"},
		CashImpact:       ptr(decimal.RequireFromString("-12500.50")),
		ContextData:      map[string]any{"week": float64(4)},
		LinkedControlIDs: []string{"control-1"},
		DetectedAt:       time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC),
	}

	require.NoError(t, store.Insert(ctx, risk))

	got, err := store.GetByID(ctx, "risk-001")
	require.NoError(t, err)

	assert.Equal(t, risk.Title, got.Title)
	assert.Equal(t, risk.Severity, got.Severity)
	assert.Equal(t, risk.DetectionType, got.DetectionType)
	assert.Equal(t, risk.ContextBullets, got.ContextBullets)
	assert.Equal(t, risk.LinkedControlIDs, got.LinkedControlIDs)
	assert.Equal(t, risk.ContextData, got.ContextData)
	assert.True(t, risk.DetectedAt.Equal(got.DetectedAt))
	require.NotNil(t, got.CashImpact)
	assert.True(t, risk.CashImpact.Equal(*got.CashImpact))
}

func TestRiskStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRiskStore(pool)
	ctx := context.Background()

	risk := &domain.Risk{ID: "risk-dup", UserID: "user-1", Title: "dup", Severity: domain.SeverityHigh, DetectedAt: time.Now()}
	require.NoError(t, store.Insert(ctx, risk))
	assert.ErrorIs(t, store.Insert(ctx, risk), storage.ErrDuplicateKey)
}

func TestRiskStore_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRiskStore(pool)
	ctx := context.Background()

	_, err := store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.Dismiss(ctx, "missing"), storage.ErrNotFound)
}

func TestRiskStore_ListAndDismiss(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewRiskStore(pool)
	ctx := context.Background()

	base := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	for _, r := range []*domain.Risk{
		{ID: "b", UserID: "user-1", Title: "b", Severity: domain.SeverityHigh, DetectedAt: base.Add(time.Hour)},
		{ID: "a", UserID: "user-1", Title: "a", Severity: domain.SeverityUrgent, DetectedAt: base.Add(time.Hour)},
		{ID: "c", UserID: "user-1", Title: "c", Severity: domain.SeverityHigh, DetectedAt: base},
		{ID: "x", UserID: "user-2", Title: "x", Severity: domain.SeverityHigh, DetectedAt: base},
	} {
		require.NoError(t, store.Insert(ctx, r))
	}
	require.NoError(t, store.Dismiss(ctx, "b"))

	active, err := store.List(ctx, storage.RiskFilter{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "c", active[0].ID)
	assert.Equal(t, "a", active[1].ID)

	all, err := store.List(ctx, storage.RiskFilter{UserID: "user-1", IncludeDismissed: true})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, domain.RiskStatusDismissed, all[2].Status)

	urgent, err := store.List(ctx, storage.RiskFilter{UserID: "user-1", Severity: domain.SeverityUrgent})
	require.NoError(t, err)
	require.Len(t, urgent, 1)
	assert.Equal(t, "a", urgent[0].ID)
}
