// Package refresh recomputes queues and danger zones on a cron schedule so
// stream subscribers see upstream changes without a user mutation.
package refresh

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"tamio-engine/internal/observability"
	"tamio-engine/internal/queue"
	"tamio-engine/internal/reporting"
)

// Engine is the service surface a refresh run calls.
type Engine interface {
	reporting.Source
	RefreshUser(ctx context.Context, userID string) (queue.Queue, error)
}

// Options configures a Scheduler.
type Options struct {
	Schedule  string   // standard cron expression or descriptor such as "@every 15m"
	Users     []string // users refreshed on every run
	ReportDir string   // when set, a Markdown report per user is written here
}

// Scheduler runs refresh jobs.
type Scheduler struct {
	engine    Engine
	opts      Options
	schedule  cron.Schedule
	log       *logrus.Logger
	metrics   *observability.Metrics
	generator *reporting.Generator
	now       func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	lastRun time.Time
	runs    int
}

// New creates a scheduler. The schedule is parsed up front so a bad schedule
// fails at startup.
func New(engine Engine, opts Options, log *logrus.Logger, metrics *observability.Metrics) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(opts.Schedule)
	if err != nil {
		return nil, fmt.Errorf("parse refresh schedule %q: %w", opts.Schedule, err)
	}
	s := &Scheduler{
		engine:   engine,
		opts:     opts,
		schedule: schedule,
		log:      log,
		metrics:  metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}
	s.generator = reporting.NewGenerator(engine).WithClock(func() time.Time { return s.now() })
	return s, nil
}

// Next returns the first activation after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Stats returns the number of completed runs and when the last one ended.
func (s *Scheduler) Stats() (runs int, lastRun time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs, s.lastRun
}

// RunOnce refreshes every configured user. A failing user does not stop
// the others; all failures are returned together.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()
	var result *multierror.Error

	for _, userID := range s.opts.Users {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}
		if err := s.refreshUser(ctx, userID); err != nil {
			s.log.WithError(err).WithField("user_id", userID).Warn("Refresh failed")
			result = multierror.Append(result, fmt.Errorf("user %s: %w", userID, err))
		}
	}

	err := result.ErrorOrNil()
	now := s.now()
	s.metrics.RecordRefresh(now.Unix(), err)
	s.metrics.RecordOperation("refresh", time.Since(start).Seconds())

	s.mu.Lock()
	s.runs++
	s.lastRun = now
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"users":    len(s.opts.Users),
		"duration": time.Since(start).String(),
		"failed":   err != nil,
	}).Info("Refresh completed")
	return err
}

func (s *Scheduler) refreshUser(ctx context.Context, userID string) error {
	q, err := s.engine.RefreshUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("queue: %w", err)
	}
	dz, err := s.engine.DangerZone(ctx, userID, 0, "")
	if err != nil {
		return fmt.Errorf("danger zone: %w", err)
	}

	fields := logrus.Fields{"user_id": userID, "requires_decision": q.Summary.RequiresDecision}
	if dz != nil {
		fields["breach_weeks"] = len(dz.BelowBufferWeeks)
	}
	s.log.WithFields(fields).Debug("User refreshed")

	if s.opts.ReportDir == "" {
		return nil
	}
	return s.writeReport(ctx, userID)
}

func (s *Scheduler) writeReport(ctx context.Context, userID string) error {
	r, err := s.generator.Generate(ctx, userID)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := os.MkdirAll(s.opts.ReportDir, 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(s.opts.ReportDir, userID+".md")
	if err := os.WriteFile(path, []byte(reporting.RenderMarkdown(r)), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Start schedules RunOnce and returns immediately. Overlapping runs are
// skipped. The scheduler stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	logger := cronLogger{log: s.log}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() {
		_ = s.RunOnce(ctx)
	}))

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()

	c.Start()
	s.log.WithFields(logrus.Fields{
		"schedule": s.opts.Schedule,
		"users":    len(s.opts.Users),
		"next":     s.Next(time.Now()).Format(time.RFC3339),
	}).Info("Refresh scheduler started")

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop stops scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	log *logrus.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kvFields(keysAndValues)).Debug("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithError(err).WithFields(kvFields(keysAndValues)).Error("cron: " + msg)
}

func kvFields(kv []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
