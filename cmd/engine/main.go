// Package main is a command-line front end to the engine. It loads a
// dataset (the built-in demo or a JSON file) into memory stores and runs
// one operation per subcommand.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tamio-engine/internal/config"
	"tamio-engine/internal/engine"
	"tamio-engine/internal/fixtures"
	"tamio-engine/internal/logging"
	"tamio-engine/internal/observability"
)

const (
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

var (
	flagData     string
	flagUser     string
	flagFormat   string
	flagWeeks    int
	flagPolicy   string
	flagLogLevel string
	flagEnvFile  string
)

var rootCmd = &cobra.Command{
	Use:           "engine",
	Short:         "Decision queue and scenario engine",
	Long:          "Prioritize cash-flow risks, find the danger zone, rank fixes and compare what-if scenarios.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		switch flagFormat {
		case formatJSON, formatMarkdown:
			return nil
		default:
			return fmt.Errorf("--format must be %q or %q, got %q", formatJSON, formatMarkdown, flagFormat)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagData, "data", "d", "", "Dataset JSON file (default: built-in demo dataset)")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", fixtures.DemoUser, "User id")
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", formatMarkdown, "Output format (json, markdown)")
	rootCmd.PersistentFlags().IntVarP(&flagWeeks, "weeks", "w", 0, "Forecast horizon in weeks (0 uses FORECAST_WEEKS)")
	rootCmd.PersistentFlags().StringVar(&flagPolicy, "policy", "", "Buffer policy (fraction, rule; default BUFFER_POLICY)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "Optional .env file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadDataset reads the --data file or falls back to the demo dataset.
func loadDataset() (fixtures.Dataset, error) {
	if flagData == "" {
		return fixtures.Demo(), nil
	}
	f, err := os.Open(flagData)
	if err != nil {
		return fixtures.Dataset{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return fixtures.ReadJSON(f)
}

// newService builds an engine over memory stores seeded with the dataset.
// Engine logs go to stderr so stdout stays machine readable.
func newService(ctx context.Context) (*engine.Service, error) {
	cfg, err := config.Load(flagEnvFile)
	if err != nil {
		return nil, err
	}
	log := logging.New(os.Stderr, flagLogLevel, "text")

	ds, err := loadDataset()
	if err != nil {
		return nil, err
	}
	stores := engine.MemoryStores()
	if err := stores.Seed(ctx, ds); err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	log.WithFields(logrus.Fields{
		"risks":    len(ds.Risks),
		"controls": len(ds.Controls),
		"weeks":    len(ds.Forecast.Weeks),
	}).Debug("Dataset loaded")

	metrics := observability.NewMetrics("", prometheus.NewRegistry())
	return engine.New(stores, engine.OptionsFromConfig(cfg), log, metrics), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
