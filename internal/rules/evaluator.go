// Package rules evaluates user-configured financial rules against
// forecasts.
package rules

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/forecast"
	"tamio-engine/internal/money"
)

// CriterionResult is the outcome of one rule against one forecast.
type CriterionResult struct {
	Name      string `json:"name"`
	Threshold string `json:"threshold"`
	Actual    string `json:"actual"`
	Pass      bool   `json:"pass"`
}

// Evaluation compares one rule across the base and scenario forecasts.
// Passed is the scenario result.
type Evaluation struct {
	RuleID     string          `json:"rule_id"`
	RuleType   domain.RuleType `json:"rule_type"`
	Passed     bool            `json:"passed"`
	BasePassed bool            `json:"base_passed"`
	Base       CriterionResult `json:"base"`
	Scenario   CriterionResult `json:"scenario"`
}

// Evaluator evaluates financial rules.
type Evaluator struct{}

// NewEvaluator creates a new rule evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Validate checks a rule's type and thresholds.
func (e *Evaluator) Validate(rule domain.FinancialRule) error {
	switch rule.RuleType {
	case domain.RuleMinimumCashBuffer:
		if rule.ThresholdConfig.Months <= 0 {
			return domain.Invalid("threshold_config.months", "must be positive on rule %s", rule.ID)
		}
	case domain.RuleMinimumRunwayWeeks:
		if rule.ThresholdConfig.Weeks <= 0 {
			return domain.Invalid("threshold_config.weeks", "must be positive on rule %s", rule.ID)
		}
	default:
		return domain.Invalid("rule_type", "unknown rule type %q on rule %s", rule.RuleType, rule.ID)
	}
	return nil
}

// Evaluate checks one rule against one forecast.
func (e *Evaluator) Evaluate(rule domain.FinancialRule, f domain.Forecast) (CriterionResult, error) {
	if err := e.Validate(rule); err != nil {
		return CriterionResult{}, err
	}

	switch rule.RuleType {
	case domain.RuleMinimumCashBuffer:
		// lowest cash >= months × monthly burn
		months := decimal.NewFromFloat(rule.ThresholdConfig.Months)
		required := forecast.MonthlyBurn(f).Mul(months)
		lowest := f.Summary.LowestCashAmount
		return CriterionResult{
			Name:      fmt.Sprintf("Minimum cash buffer (%s months)", months.String()),
			Threshold: ">= " + money.Format(required),
			Actual:    fmt.Sprintf("%s in week %d", money.Format(lowest), f.Summary.LowestCashWeek),
			Pass:      lowest.GreaterThanOrEqual(required),
		}, nil

	default: // domain.RuleMinimumRunwayWeeks
		weeks := rule.ThresholdConfig.Weeks
		return CriterionResult{
			Name:      fmt.Sprintf("Minimum runway (%d weeks)", weeks),
			Threshold: fmt.Sprintf(">= %d weeks", weeks),
			Actual:    fmt.Sprintf("%d weeks", f.Summary.RunwayWeeks),
			Pass:      f.Summary.RunwayWeeks >= weeks,
		}, nil
	}
}

// Compare evaluates every rule against both forecasts, in rule order.
func (e *Evaluator) Compare(rules []domain.FinancialRule, base, scenario domain.Forecast) ([]Evaluation, error) {
	out := make([]Evaluation, 0, len(rules))
	for _, r := range rules {
		b, err := e.Evaluate(r, base)
		if err != nil {
			return nil, err
		}
		s, err := e.Evaluate(r, scenario)
		if err != nil {
			return nil, err
		}
		out = append(out, Evaluation{
			RuleID:     r.ID,
			RuleType:   r.RuleType,
			Passed:     s.Pass,
			BasePassed: b.Pass,
			Base:       b,
			Scenario:   s,
		})
	}
	return out, nil
}

// AllPassed reports whether every scenario evaluation passed. It drives the
// "buffer safe" badge; no rules means safe.
func AllPassed(evals []Evaluation) bool {
	for _, ev := range evals {
		if !ev.Passed {
			return false
		}
	}
	return true
}
