package reporting

import (
	"context"
	"fmt"
	"time"

	"tamio-engine/internal/dangerzone"
	"tamio-engine/internal/fixes"
	"tamio-engine/internal/insight"
	"tamio-engine/internal/queue"
)

// Source is the engine surface a report reads.
type Source interface {
	QueueFixes(ctx context.Context, userID string, maxFixes int) (queue.Queue, []fixes.RiskFixes, error)
	DangerZone(ctx context.Context, userID string, weeks int, policy string) (*dangerzone.DangerZone, error)
	Insights(ctx context.Context, userID string, weeks int) ([]insight.Insight, error)
}

// Generator produces reports from engine results.
type Generator struct {
	source Source
	now    func() time.Time // Injectable clock for deterministic output

	// Zero values use the engine's configured defaults.
	maxFixes int
	weeks    int
	policy   string
}

// NewGenerator creates a new report generator.
func NewGenerator(source Source) *Generator {
	return &Generator{
		source: source,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithParams overrides the fix cap, forecast horizon and buffer policy.
func (g *Generator) WithParams(maxFixes, weeks int, policy string) *Generator {
	g.maxFixes, g.weeks, g.policy = maxFixes, weeks, policy
	return g
}

// Generate produces a report for one user.
func (g *Generator) Generate(ctx context.Context, userID string) (*Report, error) {
	q, fx, err := g.source.QueueFixes(ctx, userID, g.maxFixes)
	if err != nil {
		return nil, fmt.Errorf("queue: %w", err)
	}

	dz, err := g.source.DangerZone(ctx, userID, g.weeks, g.policy)
	if err != nil {
		return nil, fmt.Errorf("danger zone: %w", err)
	}

	insights, err := g.source.Insights(ctx, userID, g.weeks)
	if err != nil {
		return nil, fmt.Errorf("insights: %w", err)
	}

	return &Report{
		GeneratedAt: g.now(),
		UserID:      userID,
		Queue:       q,
		Fixes:       fx,
		DangerZone:  dz,
		Insights:    insights,
	}, nil
}
