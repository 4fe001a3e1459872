// Package scenario applies what-if scenarios to a weekly forecast and
// compares the result against the user's financial rules.
package scenario

import (
	"fmt"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/forecast"
	"tamio-engine/internal/rules"
)

// Options contains the inputs a Simulator works against.
type Options struct {
	Forecast domain.Forecast
	Clients  []domain.Client
	Buckets  []domain.ExpenseBucket
	Rules    []domain.FinancialRule
}

// Simulator builds scenario forecasts. It holds no mutable state after
// construction and is safe for concurrent use.
type Simulator struct {
	base      domain.Forecast
	clients   map[string]domain.Client
	buckets   map[string]domain.ExpenseBucket
	rules     []domain.FinancialRule
	evaluator *rules.Evaluator
}

// Comparison is the base forecast next to the scenario forecast, with every
// configured rule evaluated on both.
type Comparison struct {
	ScenarioID         string             `json:"scenario_id"`
	BaseForecast       domain.Forecast    `json:"base_forecast"`
	ScenarioForecast   domain.Forecast    `json:"scenario_forecast"`
	RuleEvaluations    []rules.Evaluation `json:"rule_evaluations"`
	SuggestedScenarios []Suggestion       `json:"suggested_scenarios"`
	BufferSafe         bool               `json:"buffer_safe"`
}

// New creates a simulator. The forecast must satisfy the forecast
// invariants and every rule must be valid.
func New(opts Options) (*Simulator, error) {
	if err := forecast.Validate(opts.Forecast); err != nil {
		return nil, fmt.Errorf("new simulator: %w", err)
	}

	evaluator := rules.NewEvaluator()
	for _, r := range opts.Rules {
		if err := evaluator.Validate(r); err != nil {
			return nil, err
		}
	}

	s := &Simulator{
		base:      opts.Forecast.Clone(),
		clients:   make(map[string]domain.Client, len(opts.Clients)),
		buckets:   make(map[string]domain.ExpenseBucket, len(opts.Buckets)),
		rules:     append([]domain.FinancialRule(nil), opts.Rules...),
		evaluator: evaluator,
	}
	for _, c := range opts.Clients {
		s.clients[c.ID] = c
	}
	for _, b := range opts.Buckets {
		s.buckets[b.ID] = b
	}
	return s, nil
}

// Base returns a copy of the forecast the simulator was built with.
func (s *Simulator) Base() domain.Forecast {
	return s.base.Clone()
}

// Build applies the scenario's base delta and then each layer, in order,
// to a copy of base. Weeks before the effective date are unchanged and
// balances are carried through every later week.
//
// Every delta is validated before any week is touched. base is never
// modified.
func (s *Simulator) Build(sc domain.Scenario, base domain.Forecast) (domain.Forecast, error) {
	if err := forecast.Validate(base); err != nil {
		return domain.Forecast{}, fmt.Errorf("build scenario %s: %w", sc.ID, err)
	}

	deltas := sc.Deltas()
	if err := s.validate(deltas); err != nil {
		return domain.Forecast{}, err
	}

	out := base.Clone()
	for i, d := range deltas {
		if err := s.apply(&out, d); err != nil {
			return domain.Forecast{}, fmt.Errorf("apply delta %d (%s): %w", i, d.Type, err)
		}
	}
	forecast.Rebalance(&out)

	if err := forecast.Validate(out); err != nil {
		return domain.Forecast{}, fmt.Errorf("build scenario %s: %w", sc.ID, err)
	}
	return out, nil
}

// Compare builds the scenario against the simulator's forecast and
// evaluates every rule against both forecasts.
func (s *Simulator) Compare(sc domain.Scenario) (Comparison, error) {
	scenarioForecast, err := s.Build(sc, s.base)
	if err != nil {
		return Comparison{}, err
	}

	evals, err := s.evaluator.Compare(s.rules, s.base, scenarioForecast)
	if err != nil {
		return Comparison{}, err
	}

	return Comparison{
		ScenarioID:         sc.ID,
		BaseForecast:       s.base.Clone(),
		ScenarioForecast:   scenarioForecast,
		RuleEvaluations:    evals,
		SuggestedScenarios: Suggest(sc),
		BufferSafe:         rules.AllPassed(evals),
	}, nil
}

// AddLayer appends layer to the scenario and replays every delta in order.
// The returned scenario is a new value; sc is not modified.
func (s *Simulator) AddLayer(sc domain.Scenario, layer domain.ScenarioLayer) (domain.Scenario, Comparison, error) {
	next := sc.WithLayer(layer)
	cmp, err := s.Compare(next)
	if err != nil {
		return domain.Scenario{}, Comparison{}, err
	}
	return next, cmp, nil
}
