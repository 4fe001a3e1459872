package rules

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/forecast"
)

var start = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

func flat(startingCash, in, out int64) domain.Forecast {
	return forecast.Flat("u1", start, decimal.NewFromInt(startingCash), 13, decimal.NewFromInt(in), decimal.NewFromInt(out))
}

func TestEvaluate_MinimumCashBuffer(t *testing.T) {
	e := NewEvaluator()
	rule := domain.FinancialRule{ID: "buf", RuleType: domain.RuleMinimumCashBuffer, ThresholdConfig: domain.ThresholdConfig{Months: 1}}

	// burn = 15,000 × 52/12 = 65,000; lowest = 105,000 in week 1
	res, err := e.Evaluate(rule, flat(100000, 20000, 15000))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !res.Pass {
		t.Errorf("expected pass, got %+v", res)
	}
	if res.Threshold != ">= $65,000" {
		t.Errorf("Threshold = %q", res.Threshold)
	}

	// lowest = 100,000 - 13×15,000 = -95,000
	res, err = e.Evaluate(rule, flat(100000, 0, 15000))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Pass {
		t.Errorf("expected fail, got %+v", res)
	}
}

func TestEvaluate_BoundaryIsInclusive(t *testing.T) {
	e := NewEvaluator()
	// burn = 12,000 × 52/12 = 52,000; two months = 104,000; lowest = 104,000
	f := forecast.Flat("u1", start, decimal.NewFromInt(116000), 1, decimal.Zero, decimal.NewFromInt(12000))
	rule := domain.FinancialRule{ID: "buf", RuleType: domain.RuleMinimumCashBuffer, ThresholdConfig: domain.ThresholdConfig{Months: 2}}

	res, err := e.Evaluate(rule, f)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !res.Pass {
		t.Errorf("equal to threshold should pass: %+v", res)
	}
}

func TestEvaluate_MinimumRunway(t *testing.T) {
	e := NewEvaluator()
	rule := domain.FinancialRule{ID: "run", RuleType: domain.RuleMinimumRunwayWeeks, ThresholdConfig: domain.ThresholdConfig{Weeks: 8}}

	// 50,000 - n×10,000 stays >= 0 for 5 weeks
	res, err := e.Evaluate(rule, flat(50000, 0, 10000))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if res.Pass || res.Actual != "5 weeks" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestValidate(t *testing.T) {
	e := NewEvaluator()
	tests := []struct {
		name string
		rule domain.FinancialRule
	}{
		{"unknown type", domain.FinancialRule{RuleType: "max_spend"}},
		{"zero months", domain.FinancialRule{RuleType: domain.RuleMinimumCashBuffer}},
		{"zero weeks", domain.FinancialRule{RuleType: domain.RuleMinimumRunwayWeeks}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := e.Validate(tt.rule); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	e := NewEvaluator()
	rules := []domain.FinancialRule{
		{ID: "buf", RuleType: domain.RuleMinimumCashBuffer, ThresholdConfig: domain.ThresholdConfig{Months: 1}},
		{ID: "run", RuleType: domain.RuleMinimumRunwayWeeks, ThresholdConfig: domain.ThresholdConfig{Weeks: 4}},
	}

	evals, err := e.Compare(rules, flat(100000, 20000, 15000), flat(100000, 0, 15000))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if len(evals) != 2 {
		t.Fatalf("expected 2 evaluations, got %d", len(evals))
	}
	if evals[0].RuleID != "buf" || evals[0].Passed || !evals[0].BasePassed {
		t.Errorf("buffer evaluation mismatch: %+v", evals[0])
	}
	if !evals[1].Passed {
		t.Errorf("runway should pass: %+v", evals[1])
	}
	if AllPassed(evals) {
		t.Error("AllPassed should be false")
	}
	if !AllPassed(nil) {
		t.Error("no rules should be safe")
	}
}
