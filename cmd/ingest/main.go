// Package main loads upstream records (forecast, clients, buckets, risks,
// controls, rules) from a dataset JSON file into PostgreSQL and ClickHouse.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"tamio-engine/internal/config"
	"tamio-engine/internal/engine"
	"tamio-engine/internal/fixtures"
	"tamio-engine/internal/logging"
)

func main() {
	// Parse flags
	envFile := flag.String("env-file", ".env", "Optional .env file")
	dataFile := flag.String("data", "", "Dataset JSON file")
	useDemo := flag.Bool("demo", false, "Load the built-in demo dataset instead of --data")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (default POSTGRES_DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (default CLICKHOUSE_DSN)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *postgresDSN != "" {
		cfg.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.ClickhouseDSN = *clickhouseDSN
	}
	cfg.UseMemory = false

	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	// Validate flags
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if *dataFile == "" && !*useDemo {
		log.Fatal("--data or --demo is required")
	}

	ds, err := readDataset(*dataFile, *useDemo)
	if err != nil {
		log.Fatalf("Failed to read dataset: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, cleanup, err := engine.OpenStores(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open stores: %v", err)
	}
	defer cleanup()

	if err := stores.Seed(ctx, ds); err != nil {
		log.Errorf("Ingestion failed: %v", err)
		cleanup()
		os.Exit(1)
	}

	log.WithFields(logrus.Fields{
		"user_id":  ds.Forecast.UserID,
		"weeks":    len(ds.Forecast.Weeks),
		"clients":  len(ds.Clients),
		"buckets":  len(ds.Buckets),
		"risks":    len(ds.Risks),
		"controls": len(ds.Controls),
		"rules":    len(ds.Rules),
	}).Info("Dataset ingested")
}

func readDataset(path string, demo bool) (fixtures.Dataset, error) {
	if demo {
		return fixtures.Demo(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fixtures.Dataset{}, err
	}
	defer f.Close()
	return fixtures.ReadJSON(f)
}
