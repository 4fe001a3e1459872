package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/forecast"
	"tamio-engine/internal/storage"
)

func TestForecastStore_SaveAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewForecastStore(conn)
	ctx := context.Background()

	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	f := forecast.Flat("user-1", start, decimal.NewFromInt(100000), 13,
		decimal.NewFromInt(10000), decimal.RequireFromString("12500.25"))
	f.Weeks[0].Events = []domain.CashEvent{{
		Amount: decimal.NewFromInt(10000), Direction: domain.DirectionIn,
		Category: "revenue", SourceRef: "acme", Confidence: domain.ConfidenceHigh,
	}}
	require.NoError(t, store.Save(ctx, &f))

	got, err := store.Get(ctx, "user-1", 4)
	require.NoError(t, err)
	require.Len(t, got.Weeks, 4)
	assert.True(t, start.Equal(got.StartDate))
	assert.True(t, f.StartingCash.Equal(got.StartingCash))
	assert.True(t, f.Weeks[3].EndingBalance.Equal(got.Weeks[3].EndingBalance))
	require.Len(t, got.Weeks[0].Events, 1)
	assert.Equal(t, "acme", got.Weeks[0].Events[0].SourceRef)
	assert.NoError(t, forecast.Validate(*got))
	assert.Equal(t, 4, got.Summary.LowestCashWeek)

	all, err := store.Get(ctx, "user-1", 0)
	require.NoError(t, err)
	assert.Len(t, all.Weeks, 13)
}

func TestForecastStore_LatestVersionWins(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewForecastStore(conn)
	ctx := context.Background()

	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	first := forecast.Flat("user-1", start, decimal.NewFromInt(1000), 4, decimal.Zero, decimal.NewFromInt(100))
	second := forecast.Flat("user-1", start, decimal.NewFromInt(5000), 4, decimal.Zero, decimal.NewFromInt(100))

	require.NoError(t, store.Save(ctx, &first))
	require.NoError(t, store.Save(ctx, &second))

	got, err := store.Get(ctx, "user-1", 0)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5000).Equal(got.StartingCash))
	assert.Len(t, got.Weeks, 4)
}

func TestForecastStore_NotFound(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewForecastStore(conn).Get(context.Background(), "nobody", 13)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
