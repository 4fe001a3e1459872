package dangerzone

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/forecast"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// fromEndings builds a reconciled forecast whose weeks end on the given
// balances.
func fromEndings(startingCash int64, endings ...int64) domain.Forecast {
	f := domain.Forecast{
		StartDate:    time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		StartingCash: d(startingCash),
	}
	prev := startingCash
	for i, e := range endings {
		w := domain.ForecastWeek{WeekNumber: i + 1}
		if e >= prev {
			w.CashIn = d(e - prev)
			w.CashOut = decimal.Zero
		} else {
			w.CashIn = decimal.Zero
			w.CashOut = d(prev - e)
		}
		f.Weeks = append(f.Weeks, w)
		prev = e
	}
	forecast.Rebalance(&f)
	return f
}

func TestAnalyze_SparseBreach(t *testing.T) {
	f := fromEndings(100000, 80000, 95000, 60000, 110000)

	dz, err := Analyze(f, d(90000))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if dz == nil {
		t.Fatal("expected danger zone")
	}

	if len(dz.BelowBufferWeeks) != 2 || dz.BelowBufferWeeks[0] != 1 || dz.BelowBufferWeeks[1] != 3 {
		t.Errorf("below weeks = %v, want [1 3]", dz.BelowBufferWeeks)
	}
	if dz.StartWeek != 1 || dz.EndWeek != 3 {
		t.Errorf("bounds = [%d, %d], want [1, 3]", dz.StartWeek, dz.EndWeek)
	}
	if dz.LowestPoint.Week != 3 || !dz.LowestPoint.Amount.Equal(d(60000)) {
		t.Errorf("lowest = %+v, want {3 60000}", dz.LowestPoint)
	}
}

func TestAnalyze_NoBreach(t *testing.T) {
	f := fromEndings(100000, 120000, 130000)
	dz, err := Analyze(f, d(90000))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if dz != nil {
		t.Errorf("expected nil, got %+v", dz)
	}
}

func TestAnalyze_EqualToBufferDoesNotQualify(t *testing.T) {
	f := fromEndings(100000, 90000, 91000)
	dz, err := Analyze(f, d(90000))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if dz != nil {
		t.Errorf("ending == buffer must not breach, got %+v", dz)
	}
}

func TestAnalyze_LowestPointTieKeepsEarliest(t *testing.T) {
	f := fromEndings(100000, 50000, 70000, 50000)
	dz, err := Analyze(f, d(90000))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if dz.LowestPoint.Week != 1 {
		t.Errorf("lowest week = %d, want 1", dz.LowestPoint.Week)
	}
}

// Every listed week is below the buffer and no omitted week is.
func TestAnalyze_Soundness(t *testing.T) {
	f := fromEndings(100000, 95000, 40000, 92000, 89999, 150000, 10000, 90000)
	buffer := d(90000)

	dz, err := Analyze(f, buffer)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	listed := make(map[int]bool)
	for _, wk := range dz.BelowBufferWeeks {
		listed[wk] = true
	}
	for _, w := range f.Weeks {
		below := w.EndingBalance.LessThan(buffer)
		if below != listed[w.WeekNumber] {
			t.Errorf("week %d: below=%v listed=%v", w.WeekNumber, below, listed[w.WeekNumber])
		}
	}
}

func TestAnalyze_DoesNotMutateInput(t *testing.T) {
	f := fromEndings(100000, 80000, 95000)
	before := f.Clone()

	if _, err := Analyze(f, d(90000)); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for i := range f.Weeks {
		if !f.Weeks[i].EndingBalance.Equal(before.Weeks[i].EndingBalance) {
			t.Errorf("week %d mutated", i+1)
		}
	}
}

func TestAnalyze_RejectsUnreconciledForecast(t *testing.T) {
	f := fromEndings(100000, 80000, 95000)
	f.Weeks[1].StartingBalance = d(1)

	_, err := Analyze(f, d(90000))
	if !errors.Is(err, domain.ErrInvariant) {
		t.Errorf("expected ErrInvariant, got %v", err)
	}
}

func TestBufferPolicies(t *testing.T) {
	if got := DefaultBuffer(d(100000)); !got.Equal(d(20000)) {
		t.Errorf("DefaultBuffer = %s, want 20000", got)
	}

	f := forecast.Flat("u1", time.Now(), d(100000), 13, d(20000), d(15000))
	rule := domain.FinancialRule{
		RuleType:        domain.RuleMinimumCashBuffer,
		ThresholdConfig: domain.ThresholdConfig{Months: 2},
	}
	got, err := BufferFromRule(rule, f)
	if err != nil {
		t.Fatalf("BufferFromRule: %v", err)
	}
	if !got.Round(2).Equal(d(130000)) {
		t.Errorf("BufferFromRule = %s, want 130000", got)
	}

	rule.RuleType = domain.RuleMinimumRunwayWeeks
	if _, err := BufferFromRule(rule, f); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}
