// Package main writes a Markdown decision report per user from the
// configured stores.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"tamio-engine/internal/config"
	"tamio-engine/internal/engine"
	"tamio-engine/internal/fixtures"
	"tamio-engine/internal/logging"
	"tamio-engine/internal/observability"
	"tamio-engine/internal/reporting"
)

func main() {
	// Parse flags
	envFile := flag.String("env-file", ".env", "Optional .env file")
	outputDir := flag.String("output-dir", "reports", "Output directory for generated files")
	users := flag.String("users", "", "Comma-separated user ids (default REFRESH_USERS)")
	useFixtures := flag.Bool("use-fixtures", false, "Use in-memory demo data instead of the databases")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *useFixtures {
		cfg.UseMemory = true
	}
	userIDs := cfg.RefreshUsers
	if *users != "" {
		userIDs = strings.Split(*users, ",")
	}
	if *useFixtures && len(userIDs) == 0 {
		userIDs = []string{fixtures.DemoUser}
	}

	log := logging.New(os.Stderr, cfg.LogLevel, "text")

	// Validate flags
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if len(userIDs) == 0 {
		log.Fatal("--users is required when REFRESH_USERS is empty")
	}

	ctx := context.Background()

	stores, cleanup, err := engine.OpenStores(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open stores: %v", err)
	}
	defer cleanup()
	if *useFixtures {
		if err := stores.Seed(ctx, fixtures.Demo()); err != nil {
			log.Fatalf("Failed to load fixtures: %v", err)
		}
	}

	metrics := observability.NewMetrics("", prometheus.NewRegistry())
	svc := engine.New(stores, engine.OptionsFromConfig(cfg), log, metrics)
	gen := reporting.NewGenerator(svc)

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	failed := 0
	for _, userID := range userIDs {
		userID = strings.TrimSpace(userID)
		r, err := gen.Generate(ctx, userID)
		if err != nil {
			log.WithField("user_id", userID).Errorf("Report failed: %v", err)
			failed++
			continue
		}
		path := filepath.Join(*outputDir, userID+".md")
		if err := os.WriteFile(path, []byte(reporting.RenderMarkdown(r)), 0644); err != nil {
			log.WithField("user_id", userID).Errorf("Write failed: %v", err)
			failed++
			continue
		}
		fmt.Printf("  - %s\n", path)
	}

	if failed > 0 {
		cleanup()
		os.Exit(1)
	}
}
