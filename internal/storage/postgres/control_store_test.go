package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/storage"
)

func TestControlStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewControlStore(pool)
	ctx := context.Background()

	control := &domain.Control{
		ID:            "control-1",
		UserID:        "user-1",
		Name:          "Chase overdue invoice",
		WhyItExists:   "Acme is 14 days late",
		ImpactAmount:  ptr(decimal.NewFromInt(8000)),
		State:         domain.ControlStatePending,
		LinkedRiskIDs: []string{"risk-1"},
		DraftContent:  map[string]any{"subject": "Invoice reminder"},
		TamioHandles:  []string{"draft email"},
		UserHandles:   []string{"send email"},
	}
	require.NoError(t, store.Insert(ctx, control))

	got, err := store.GetByID(ctx, "control-1")
	require.NoError(t, err)
	assert.Equal(t, control.Name, got.Name)
	assert.Equal(t, control.LinkedRiskIDs, got.LinkedRiskIDs)
	assert.Equal(t, control.DraftContent, got.DraftContent)
	assert.Equal(t, control.UserHandles, got.UserHandles)
	require.NotNil(t, got.ImpactAmount)
	assert.True(t, control.ImpactAmount.Equal(*got.ImpactAmount))

	assert.ErrorIs(t, store.Insert(ctx, control), storage.ErrDuplicateKey)
}

func TestControlStore_NullImpact(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewControlStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.Control{ID: "c", UserID: "u", Name: "n", State: domain.ControlStatePending}))

	got, err := store.GetByID(ctx, "c")
	require.NoError(t, err)
	assert.Nil(t, got.ImpactAmount)
}

func TestControlStore_Approve(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewControlStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.Control{ID: "pending", UserID: "u", Name: "p", State: domain.ControlStatePending}))
	require.NoError(t, store.Insert(ctx, &domain.Control{ID: "done", UserID: "u", Name: "d", State: domain.ControlStateCompleted}))

	require.NoError(t, store.Approve(ctx, "pending"))
	got, err := store.GetByID(ctx, "pending")
	require.NoError(t, err)
	assert.Equal(t, domain.ControlStateActive, got.State)

	assert.ErrorIs(t, store.Approve(ctx, "done"), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Approve(ctx, "missing"), storage.ErrNotFound)

	list, err := store.ListByUser(ctx, "u")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "done", list[0].ID)
}
