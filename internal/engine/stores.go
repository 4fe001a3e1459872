package engine

import (
	"context"
	"fmt"

	"tamio-engine/internal/config"
	"tamio-engine/internal/fixtures"
	chstore "tamio-engine/internal/storage/clickhouse"
	"tamio-engine/internal/storage/memory"
	"tamio-engine/internal/storage/migrations"
	pgstore "tamio-engine/internal/storage/postgres"
)

// MemoryStores returns a fresh set of in-memory stores.
func MemoryStores() Stores {
	return Stores{
		Risks:     memory.NewRiskStore(),
		Controls:  memory.NewControlStore(),
		Forecasts: memory.NewForecastStore(),
		Rules:     memory.NewRuleStore(),
		Clients:   memory.NewClientStore(),
		Buckets:   memory.NewBucketStore(),
		Scenarios: memory.NewScenarioStore(),
	}
}

// OpenStores connects to Postgres and ClickHouse, applies the embedded
// migrations and returns the database-backed stores with a cleanup func.
// In memory mode it returns empty memory stores.
func OpenStores(ctx context.Context, cfg *config.Config) (Stores, func(), error) {
	if cfg.UseMemory {
		return MemoryStores(), func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return Stores{}, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return Stores{}, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	// ClickHouse
	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return Stores{}, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	stores := Stores{
		// PostgreSQL stores (risks, controls and user-authored records)
		Risks:     pgstore.NewRiskStore(pool),
		Controls:  pgstore.NewControlStore(pool),
		Rules:     pgstore.NewRuleStore(pool),
		Clients:   pgstore.NewClientStore(pool),
		Buckets:   pgstore.NewBucketStore(pool),
		Scenarios: pgstore.NewScenarioStore(pool),

		// ClickHouse stores (forecast weeks)
		Forecasts: chstore.NewForecastStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

// Seed loads a dataset into the stores.
func (s Stores) Seed(ctx context.Context, ds fixtures.Dataset) error {
	return fixtures.Load(ctx, fixtures.Stores{
		Risks:     s.Risks,
		Controls:  s.Controls,
		Forecasts: s.Forecasts,
		Rules:     s.Rules,
		Clients:   s.Clients,
		Buckets:   s.Buckets,
	}, ds)
}
