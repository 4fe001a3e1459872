// Package config loads engine settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Buffer policies for the danger zone analysis.
const (
	BufferPolicyFraction = "fraction"
	BufferPolicyRule     = "rule"
)

// Config holds engine configuration. Every field has an environment
// variable; command-line flags override after Load.
type Config struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:""`

	PostgresDSN   string `env:"POSTGRES_DSN"`
	ClickhouseDSN string `env:"CLICKHOUSE_DSN"`
	UseMemory     bool   `env:"USE_MEMORY" envDefault:"false"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	BufferPolicy   string  `env:"BUFFER_POLICY" envDefault:"fraction"`
	BufferFraction float64 `env:"BUFFER_FRACTION" envDefault:"0.20"`
	MaxFixes       int     `env:"MAX_FIXES" envDefault:"3"`
	ForecastWeeks  int     `env:"FORECAST_WEEKS" envDefault:"13"`

	RefreshSchedule string   `env:"REFRESH_SCHEDULE" envDefault:"@every 15m"`
	RefreshUsers    []string `env:"REFRESH_USERS" envSeparator:","`
	ReportDir       string   `env:"REPORT_DIR"` // empty disables report files
}

// Load reads envFile into the environment when it exists, then parses
// the environment. Variables already set take precedence over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks settings that env tags cannot express.
func (c *Config) Validate() error {
	switch c.BufferPolicy {
	case BufferPolicyFraction, BufferPolicyRule:
	default:
		return fmt.Errorf("BUFFER_POLICY must be %q or %q, got %q", BufferPolicyFraction, BufferPolicyRule, c.BufferPolicy)
	}
	if c.BufferFraction < 0 {
		return fmt.Errorf("BUFFER_FRACTION must not be negative")
	}
	if c.ForecastWeeks <= 0 {
		return fmt.Errorf("FORECAST_WEEKS must be positive")
	}
	if !c.UseMemory && (strings.TrimSpace(c.PostgresDSN) == "" || strings.TrimSpace(c.ClickhouseDSN) == "") {
		return fmt.Errorf("POSTGRES_DSN and CLICKHOUSE_DSN are required unless USE_MEMORY is set")
	}
	return nil
}
