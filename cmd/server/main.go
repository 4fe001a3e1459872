// Package main runs the engine as an HTTP service:
// - JSON API and WebSocket queue stream
// - Scheduled refresh of configured users (cron)
// - Prometheus metrics, health and status endpoints
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"tamio-engine/internal/api"
	"tamio-engine/internal/config"
	"tamio-engine/internal/engine"
	"tamio-engine/internal/fixtures"
	"tamio-engine/internal/logging"
	"tamio-engine/internal/observability"
	"tamio-engine/internal/refresh"
)

// Server holds the running components.
type Server struct {
	cfg       *config.Config
	log       *logrus.Logger
	metrics   *observability.Metrics
	service   *engine.Service
	hub       *api.Hub
	scheduler *refresh.Scheduler
	started   time.Time
}

func main() {
	envFile := envFileArg(os.Args[1:], ".env")

	cfg, err := config.Load(envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// Parse flags (environment values as defaults)
	flag.String("env-file", envFile, "Optional .env file loaded before parsing the environment")
	flag.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP API listen address")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Separate Prometheus metrics address (empty serves /metrics on the API)")
	flag.StringVar(&cfg.PostgresDSN, "postgres-dsn", cfg.PostgresDSN, "PostgreSQL connection string")
	flag.StringVar(&cfg.ClickhouseDSN, "clickhouse-dsn", cfg.ClickhouseDSN, "ClickHouse connection string")
	flag.BoolVar(&cfg.UseMemory, "use-memory", cfg.UseMemory, "Use in-memory storage seeded with the demo dataset")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.BufferPolicy, "buffer-policy", cfg.BufferPolicy, "Danger zone buffer policy (fraction, rule)")
	flag.StringVar(&cfg.RefreshSchedule, "refresh-schedule", cfg.RefreshSchedule, "Cron schedule for queue refresh")
	refreshUsers := flag.String("refresh-users", strings.Join(cfg.RefreshUsers, ","), "Comma-separated user ids refreshed on schedule")
	flag.StringVar(&cfg.ReportDir, "report-dir", cfg.ReportDir, "Directory for per-user Markdown reports written on refresh")

	flag.Parse()
	cfg.RefreshUsers = splitList(*refreshUsers)

	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics("", reg)

	server := &Server{
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		service: engine.New(stores, engine.OptionsFromConfig(cfg), log, metrics),
		hub:     api.NewHub(nil, log, metrics),
		started: time.Now(),
	}
	server.service.SetNotifier(server.hub)

	if len(cfg.RefreshUsers) > 0 {
		server.scheduler, err = refresh.New(server.service, refresh.Options{
			Schedule:  cfg.RefreshSchedule,
			Users:     cfg.RefreshUsers,
			ReportDir: cfg.ReportDir,
		}, log, metrics)
		if err != nil {
			log.Fatalf("Failed to create refresh scheduler: %v", err)
		}
	}

	// Channel to signal completion
	done := make(chan struct{})

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Infof("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			log.Warnf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err = server.Run(ctx)
	close(done)

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Server error: %v", err)
	}
	log.Info("Shutdown complete")
}

// envFileArg finds -env-file before the other flags are defined, since
// their defaults come from the environment it loads.
func envFileArg(args []string, def string) string {
	for i, arg := range args {
		name := strings.TrimLeft(arg, "-")
		switch {
		case strings.HasPrefix(name, "env-file="):
			return strings.TrimPrefix(name, "env-file=")
		case name == "env-file" && i+1 < len(args):
			return args[i+1]
		}
	}
	return def
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// createStores opens the configured stores. Memory mode is seeded with the
// demo dataset.
func createStores(ctx context.Context, cfg *config.Config, log *logrus.Logger) (engine.Stores, func(), error) {
	stores, cleanup, err := engine.OpenStores(ctx, cfg)
	if err != nil {
		return engine.Stores{}, nil, err
	}
	if !cfg.UseMemory {
		log.Info("Using PostgreSQL and ClickHouse stores")
		return stores, cleanup, nil
	}

	if err := stores.Seed(ctx, fixtures.Demo()); err != nil {
		cleanup()
		return engine.Stores{}, nil, fmt.Errorf("seed demo data: %w", err)
	}
	log.WithField("user_id", fixtures.DemoUser).Info("Using in-memory stores with demo data")
	return stores, cleanup, nil
}

// Run serves HTTP until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	h := api.NewHandler(s.service, s.log)
	router := api.NewRouter(h, s.hub, s.metrics)
	router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)

	servers := []*http.Server{{
		Addr:              s.cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}}
	if s.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", s.metrics.Handler())
		servers = append(servers, &http.Server{Addr: s.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			s.log.Infof("Starting HTTP server on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http server %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	if s.scheduler != nil {
		s.scheduler.Start(ctx)
	}

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case runErr = <-errCh:
	}

	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	s.hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Warnf("HTTP server %s shutdown", srv.Addr)
		}
	}
	return runErr
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status      string    `json:"status"`
	Uptime      string    `json:"uptime"`
	Started     time.Time `json:"started"`
	Storage     string    `json:"storage"`
	RefreshRuns int       `json:"refresh_runs"`
	LastRefresh time.Time `json:"last_refresh,omitempty"`
	NextRefresh time.Time `json:"next_refresh,omitempty"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:  "running",
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Started: s.started,
		Storage: "postgres+clickhouse",
	}
	if s.cfg.UseMemory {
		resp.Storage = "memory"
	}
	if s.scheduler != nil {
		resp.RefreshRuns, resp.LastRefresh = s.scheduler.Stats()
		resp.NextRefresh = s.scheduler.Next(time.Now())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
