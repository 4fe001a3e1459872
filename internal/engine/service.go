// Package engine loads records from the stores, runs the pure core
// components and applies the two user mutations.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"tamio-engine/internal/config"
	"tamio-engine/internal/dangerzone"
	"tamio-engine/internal/domain"
	"tamio-engine/internal/fixes"
	"tamio-engine/internal/insight"
	"tamio-engine/internal/observability"
	"tamio-engine/internal/queue"
	"tamio-engine/internal/scenario"
	"tamio-engine/internal/storage"
)

// Stores groups the data-access dependencies.
type Stores struct {
	Risks     storage.RiskStore
	Controls  storage.ControlStore
	Forecasts storage.ForecastStore
	Rules     storage.RuleStore
	Clients   storage.ClientStore
	Buckets   storage.BucketStore
	Scenarios storage.ScenarioStore
}

// Options tunes the service.
type Options struct {
	BufferPolicy   string // config.BufferPolicyFraction or config.BufferPolicyRule
	BufferFraction decimal.Decimal
	MaxFixes       int
	ForecastWeeks  int
}

// DefaultOptions mirrors the config defaults.
func DefaultOptions() Options {
	return Options{
		BufferPolicy:   config.BufferPolicyFraction,
		BufferFraction: dangerzone.DefaultBufferFraction,
		MaxFixes:       fixes.DefaultMaxFixes,
		ForecastWeeks:  13,
	}
}

// OptionsFromConfig converts loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BufferPolicy:   cfg.BufferPolicy,
		BufferFraction: decimal.NewFromFloat(cfg.BufferFraction),
		MaxFixes:       cfg.MaxFixes,
		ForecastWeeks:  cfg.ForecastWeeks,
	}
}

// Notifier receives a user's queue after a mutation or refresh.
type Notifier interface {
	QueueUpdated(userID string, q queue.Queue)
}

// Service is the engine facade. It is safe for concurrent use once
// constructed; SetNotifier must be called before serving.
type Service struct {
	stores   Stores
	opts     Options
	log      *logrus.Logger
	metrics  *observability.Metrics
	notifier Notifier
}

// New creates a Service. metrics may be nil.
func New(stores Stores, opts Options, log *logrus.Logger, metrics *observability.Metrics) *Service {
	if opts.ForecastWeeks <= 0 {
		opts.ForecastWeeks = 13
	}
	if opts.BufferPolicy == "" {
		opts.BufferPolicy = config.BufferPolicyFraction
	}
	return &Service{stores: stores, opts: opts, log: log, metrics: metrics}
}

// SetNotifier registers the receiver of recomputed queues.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *Service) observe(operation string, start time.Time) {
	s.metrics.RecordOperation(operation, time.Since(start).Seconds())
}

// storeErr converts storage.ErrNotFound into a typed NotFoundError and
// wraps everything else.
func storeErr(kind, id string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return domain.Missing(kind, id)
	}
	return fmt.Errorf("load %s %s: %w", kind, id, err)
}

// Queue builds the decision queue for a user.
func (s *Service) Queue(ctx context.Context, userID string) (queue.Queue, error) {
	defer s.observe("queue", time.Now())

	risks, controls, err := s.loadRisksAndControls(ctx, userID)
	if err != nil {
		return queue.Queue{}, err
	}

	q, err := queue.Build(risks, controls)
	if err != nil {
		s.metrics.RecordQueueBuild(nil, err)
		return queue.Queue{}, err
	}
	s.metrics.RecordQueueBuild(sectionSizes(q), nil)

	s.log.WithFields(logrus.Fields{
		"user_id":           userID,
		"requires_decision": q.Summary.RequiresDecision,
		"being_handled":     q.Summary.BeingHandled,
		"monitoring":        q.Summary.Monitoring,
	}).Debug("Decision queue built")
	return q, nil
}

func sectionSizes(q queue.Queue) map[string]int {
	return map[string]int{
		string(queue.SectionRequiresDecision): q.Summary.RequiresDecision,
		string(queue.SectionBeingHandled):     q.Summary.BeingHandled,
		string(queue.SectionMonitoring):       q.Summary.Monitoring,
	}
}

func (s *Service) loadRisksAndControls(ctx context.Context, userID string) ([]domain.Risk, []domain.Control, error) {
	riskPtrs, err := s.stores.Risks.List(ctx, storage.RiskFilter{UserID: userID})
	if err != nil {
		return nil, nil, fmt.Errorf("list risks for %s: %w", userID, err)
	}
	controlPtrs, err := s.stores.Controls.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("list controls for %s: %w", userID, err)
	}
	return deref(riskPtrs), deref(controlPtrs), nil
}

func deref[T any](ptrs []*T) []T {
	out := make([]T, len(ptrs))
	for i, p := range ptrs {
		out[i] = *p
	}
	return out
}

// QueueFixes builds the queue and the fixes for every item that needs a
// decision.
func (s *Service) QueueFixes(ctx context.Context, userID string, maxFixes int) (queue.Queue, []fixes.RiskFixes, error) {
	q, err := s.Queue(ctx, userID)
	if err != nil {
		return queue.Queue{}, nil, err
	}
	if maxFixes <= 0 {
		maxFixes = s.opts.MaxFixes
	}
	out, err := fixes.GenerateForQueue(q, maxFixes)
	if err != nil {
		return queue.Queue{}, nil, err
	}
	return q, out, nil
}

// forecastFor loads the user's forecast. weeks <= 0 uses the configured
// horizon.
func (s *Service) forecastFor(ctx context.Context, userID string, weeks int) (domain.Forecast, error) {
	if weeks <= 0 {
		weeks = s.opts.ForecastWeeks
	}
	f, err := s.stores.Forecasts.Get(ctx, userID, weeks)
	if err != nil {
		return domain.Forecast{}, storeErr("forecast", userID, err)
	}
	return *f, nil
}

// buffer resolves the buffer amount for a policy. The rule policy uses the
// user's first minimum_cash_buffer rule and falls back to the fraction
// policy when none exists.
func (s *Service) buffer(ctx context.Context, f domain.Forecast, policy string) (decimal.Decimal, error) {
	if policy == "" {
		policy = s.opts.BufferPolicy
	}
	switch policy {
	case config.BufferPolicyFraction:
		return dangerzone.FractionBuffer(f.StartingCash, s.opts.BufferFraction), nil
	case config.BufferPolicyRule:
		rules, err := s.stores.Rules.ListByUser(ctx, f.UserID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("list rules for %s: %w", f.UserID, err)
		}
		for _, r := range rules {
			if r.RuleType == domain.RuleMinimumCashBuffer {
				return dangerzone.BufferFromRule(*r, f)
			}
		}
		s.log.WithField("user_id", f.UserID).Debug("No minimum_cash_buffer rule, using fraction buffer")
		return dangerzone.FractionBuffer(f.StartingCash, s.opts.BufferFraction), nil
	default:
		return decimal.Zero, domain.Invalid("policy", "unknown buffer policy %q", policy)
	}
}

// DangerZone analyzes the user's forecast against the buffer policy.
// A nil zone means no week is below the buffer.
func (s *Service) DangerZone(ctx context.Context, userID string, weeks int, policy string) (*dangerzone.DangerZone, error) {
	defer s.observe("danger_zone", time.Now())

	f, err := s.forecastFor(ctx, userID, weeks)
	if err != nil {
		return nil, err
	}
	buffer, err := s.buffer(ctx, f, policy)
	if err != nil {
		return nil, err
	}

	dz, err := dangerzone.Analyze(f, buffer)
	if err != nil {
		return nil, err
	}

	breach := 0
	if dz != nil {
		breach = len(dz.BelowBufferWeeks)
	}
	s.metrics.RecordBreachWeeks(breach)
	return dz, nil
}

// Insights runs the insight detectors over the user's forecast.
func (s *Service) Insights(ctx context.Context, userID string, weeks int) ([]insight.Insight, error) {
	defer s.observe("insights", time.Now())

	f, err := s.forecastFor(ctx, userID, weeks)
	if err != nil {
		return nil, err
	}
	buffer, err := s.buffer(ctx, f, "")
	if err != nil {
		return nil, err
	}
	return insight.Generate(insight.PointsFromForecast(f), buffer), nil
}

// Fixes ranks the fixes for one risk. maxFixes <= 0 uses the configured cap.
func (s *Service) Fixes(ctx context.Context, riskID string, maxFixes int) ([]fixes.Recommendation, error) {
	defer s.observe("fixes", time.Now())

	risk, err := s.stores.Risks.GetByID(ctx, riskID)
	if err != nil {
		return nil, storeErr("risk", riskID, err)
	}
	controlPtrs, err := s.stores.Controls.ListByUser(ctx, risk.UserID)
	if err != nil {
		return nil, fmt.Errorf("list controls for %s: %w", risk.UserID, err)
	}
	controls := deref(controlPtrs)

	byID := make(map[string]domain.Control, len(controls))
	for _, c := range controls {
		byID[c.ID] = c
	}
	links := queue.BuildLinks([]domain.Risk{*risk}, controls)
	linked := make([]domain.Control, 0, len(links[riskID]))
	for _, cid := range links[riskID] {
		c, ok := byID[cid]
		if !ok {
			return nil, domain.Missing("control", cid)
		}
		linked = append(linked, c)
	}

	if maxFixes <= 0 {
		maxFixes = s.opts.MaxFixes
	}
	return fixes.Generate(*risk, linked, maxFixes)
}

// simulator loads everything a scenario for userID reads.
func (s *Service) simulator(ctx context.Context, userID string) (*scenario.Simulator, error) {
	f, err := s.forecastFor(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	clients, err := s.stores.Clients.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list clients for %s: %w", userID, err)
	}
	buckets, err := s.stores.Buckets.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list buckets for %s: %w", userID, err)
	}
	rules, err := s.stores.Rules.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list rules for %s: %w", userID, err)
	}

	return scenario.New(scenario.Options{
		Forecast: f,
		Clients:  deref(clients),
		Buckets:  deref(buckets),
		Rules:    deref(rules),
	})
}

func (s *Service) recordComparison(cmp scenario.Comparison, err error) {
	var failed []string
	for _, e := range cmp.RuleEvaluations {
		if !e.Passed {
			failed = append(failed, string(e.RuleType))
		}
	}
	s.metrics.RecordComparison(cmp.BufferSafe, failed, err)
}

// CompareScenario builds sc against its owner's forecast and saves it as a
// draft so layers can be added later. Scenarios without an id are compared
// but not saved.
func (s *Service) CompareScenario(ctx context.Context, sc domain.Scenario) (scenario.Comparison, error) {
	defer s.observe("compare", time.Now())

	if sc.UserID == "" {
		return scenario.Comparison{}, domain.Invalid("user_id", "required")
	}
	sim, err := s.simulator(ctx, sc.UserID)
	if err != nil {
		return scenario.Comparison{}, err
	}

	cmp, err := sim.Compare(sc)
	s.recordComparison(cmp, err)
	if err != nil {
		return scenario.Comparison{}, err
	}

	if sc.ID != "" {
		if sc.Status == "" {
			sc.Status = domain.ScenarioStatusDraft
		}
		if err := s.saveScenario(ctx, &sc); err != nil {
			return scenario.Comparison{}, err
		}
	}

	s.log.WithFields(logrus.Fields{
		"user_id":     sc.UserID,
		"scenario_id": sc.ID,
		"type":        sc.ScenarioType,
		"buffer_safe": cmp.BufferSafe,
	}).Info("Scenario compared")
	return cmp, nil
}

func (s *Service) saveScenario(ctx context.Context, sc *domain.Scenario) error {
	err := s.stores.Scenarios.Insert(ctx, sc)
	if errors.Is(err, storage.ErrDuplicateKey) {
		err = s.stores.Scenarios.Update(ctx, sc)
	}
	if err != nil {
		return fmt.Errorf("save scenario %s: %w", sc.ID, err)
	}
	return nil
}

// AddLayer appends a layer to a saved scenario, replays every delta and
// persists the extended scenario. Nothing is saved when the layer is
// invalid.
func (s *Service) AddLayer(ctx context.Context, scenarioID string, layer domain.ScenarioLayer) (domain.Scenario, scenario.Comparison, error) {
	defer s.observe("add_layer", time.Now())

	saved, err := s.stores.Scenarios.GetByID(ctx, scenarioID)
	if err != nil {
		return domain.Scenario{}, scenario.Comparison{}, storeErr("scenario", scenarioID, err)
	}
	sim, err := s.simulator(ctx, saved.UserID)
	if err != nil {
		return domain.Scenario{}, scenario.Comparison{}, err
	}

	next, cmp, err := sim.AddLayer(*saved, layer)
	s.recordComparison(cmp, err)
	if err != nil {
		return domain.Scenario{}, scenario.Comparison{}, err
	}
	if err := s.stores.Scenarios.Update(ctx, &next); err != nil {
		return domain.Scenario{}, scenario.Comparison{}, storeErr("scenario", scenarioID, err)
	}

	s.log.WithFields(logrus.Fields{
		"scenario_id": scenarioID,
		"layer_type":  layer.LayerType,
		"layers":      len(next.Layers),
	}).Info("Scenario layer added")
	return next, cmp, nil
}

// ApproveControl activates a pending or needs_review control and returns
// the owner's recomputed queue, which is also pushed to the notifier.
func (s *Service) ApproveControl(ctx context.Context, controlID string) (queue.Queue, error) {
	c, err := s.stores.Controls.GetByID(ctx, controlID)
	if err != nil {
		return queue.Queue{}, storeErr("control", controlID, err)
	}

	if err := s.stores.Controls.Approve(ctx, controlID); err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			return queue.Queue{}, domain.Invalid("state", "control %s is %s and cannot be approved", controlID, c.State)
		}
		return queue.Queue{}, storeErr("control", controlID, err)
	}

	s.log.WithFields(logrus.Fields{"user_id": c.UserID, "control_id": controlID}).Info("Control approved")
	return s.refreshQueue(ctx, c.UserID)
}

// DismissRisk dismisses a risk and returns the owner's recomputed queue,
// which is also pushed to the notifier.
func (s *Service) DismissRisk(ctx context.Context, riskID string) (queue.Queue, error) {
	r, err := s.stores.Risks.GetByID(ctx, riskID)
	if err != nil {
		return queue.Queue{}, storeErr("risk", riskID, err)
	}
	if err := s.stores.Risks.Dismiss(ctx, riskID); err != nil {
		return queue.Queue{}, storeErr("risk", riskID, err)
	}

	s.log.WithFields(logrus.Fields{"user_id": r.UserID, "risk_id": riskID}).Info("Risk dismissed")
	return s.refreshQueue(ctx, r.UserID)
}

// RefreshUser recomputes a user's queue and pushes it to the notifier.
func (s *Service) RefreshUser(ctx context.Context, userID string) (queue.Queue, error) {
	return s.refreshQueue(ctx, userID)
}

func (s *Service) refreshQueue(ctx context.Context, userID string) (queue.Queue, error) {
	q, err := s.Queue(ctx, userID)
	if err != nil {
		return queue.Queue{}, err
	}
	if s.notifier != nil {
		s.notifier.QueueUpdated(userID, q)
	}
	return q, nil
}

