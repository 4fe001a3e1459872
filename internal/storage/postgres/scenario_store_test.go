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

func TestScenarioStore_RoundTripWithLayers(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewScenarioStore(pool)
	ctx := context.Background()

	effective := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	sc := &domain.Scenario{
		ID:           "scenario-1",
		UserID:       "user-1",
		Name:         "Lose Acme",
		ScenarioType: domain.ScenarioClientLoss,
		Scope:        domain.ScopeConfig{ClientID: "acme"},
		Parameters:   domain.ScenarioParameters{EffectiveDate: effective},
		Status:       domain.ScenarioStatusDraft,
	}
	require.NoError(t, store.Insert(ctx, sc))

	got, err := store.GetByID(ctx, "scenario-1")
	require.NoError(t, err)
	assert.Equal(t, sc.Scope, got.Scope)
	assert.True(t, effective.Equal(got.Parameters.EffectiveDate))
	assert.Nil(t, got.Parameters.Amount)
	assert.Empty(t, got.Layers)

	next := got.WithLayer(domain.ScenarioLayer{
		LayerType:  domain.ScenarioDecreasedExpense,
		LayerName:  "Cut software",
		Scope:      domain.ScopeConfig{BucketID: "software"},
		Parameters: domain.ScenarioParameters{EffectiveDate: effective, Amount: ptr(decimal.NewFromInt(2000))},
	})
	require.NoError(t, store.Update(ctx, &next))

	got, err = store.GetByID(ctx, "scenario-1")
	require.NoError(t, err)
	require.Len(t, got.Layers, 1)
	assert.Equal(t, "Cut software", got.Layers[0].LayerName)
	require.NotNil(t, got.Layers[0].Parameters.Amount)
	assert.True(t, decimal.NewFromInt(2000).Equal(*got.Layers[0].Parameters.Amount))
}

func TestScenarioStore_Errors(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewScenarioStore(pool)
	ctx := context.Background()

	_, err := store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.Update(ctx, &domain.Scenario{ID: "missing"}), storage.ErrNotFound)
}

func TestEntityAndRuleStores_ListByUser(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	clients := NewClientStore(pool)
	buckets := NewBucketStore(pool)
	rules := NewRuleStore(pool)

	require.NoError(t, clients.Insert(ctx, &domain.Client{
		ID: "acme", UserID: "user-1", Name: "Acme", BillingAmount: decimal.NewFromInt(15000),
		BillingFrequency: domain.FrequencyMonthly, Status: "active",
	}))
	require.NoError(t, buckets.Insert(ctx, &domain.ExpenseBucket{
		ID: "rent", UserID: "user-1", Name: "Rent", Category: "facilities", Amount: decimal.RequireFromString("4200.75"),
		Frequency: domain.FrequencyMonthly,
	}))
	require.NoError(t, rules.Insert(ctx, &domain.FinancialRule{
		ID: "rule-1", UserID: "user-1", RuleType: domain.RuleMinimumCashBuffer,
		ThresholdConfig: domain.ThresholdConfig{Months: 3},
	}))

	cs, err := clients.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.True(t, decimal.NewFromInt(15000).Equal(cs[0].BillingAmount))
	assert.Equal(t, domain.FrequencyMonthly, cs[0].BillingFrequency)

	bs, err := buckets.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, bs, 1)
	assert.Equal(t, "4200.75", bs[0].Amount.StringFixed(2))

	rs, err := rules.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, 3.0, rs[0].ThresholdConfig.Months)

	assert.ErrorIs(t, clients.Insert(ctx, cs[0]), storage.ErrDuplicateKey)
}
