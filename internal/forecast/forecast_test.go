package forecast

import (
	"errors"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"

	"tamio-engine/internal/domain"
)

var day0 = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestFlat_Reconciles(t *testing.T) {
	f := Flat("u1", day0, d(100000), 13, d(20000), d(15000))

	if err := Validate(f); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !f.Weeks[0].EndingBalance.Equal(d(105000)) {
		t.Errorf("week 1 ending = %s, want 105000", f.Weeks[0].EndingBalance)
	}
	if !f.Weeks[12].EndingBalance.Equal(d(165000)) {
		t.Errorf("week 13 ending = %s, want 165000", f.Weeks[12].EndingBalance)
	}
	if f.Summary.RunwayWeeks != 13 {
		t.Errorf("runway = %d, want 13", f.Summary.RunwayWeeks)
	}
	if f.Summary.LowestCashWeek != 1 {
		t.Errorf("lowest week = %d, want 1", f.Summary.LowestCashWeek)
	}
	if !f.Summary.TotalCashIn.Equal(d(260000)) {
		t.Errorf("total in = %s", f.Summary.TotalCashIn)
	}
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	f := Flat("u1", day0, d(1000), 3, d(100), d(50))
	f.Weeks[1].EndingBalance = d(1)
	f.Weeks[2].WeekNumber = 7

	err := Validate(f)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrInvariant) {
		t.Errorf("expected ErrInvariant, got %v", err)
	}

	var merr *multierror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("expected *multierror.Error, got %T", err)
	}
	// week 2 ending, week 3 number, week 3 carry-over
	if len(merr.Errors) != 3 {
		t.Errorf("expected 3 violations, got %d: %v", len(merr.Errors), merr.Errors)
	}
}

func TestSummarize_EarliestLowestOnTie(t *testing.T) {
	weeks := []domain.ForecastWeek{
		{WeekNumber: 1, EndingBalance: d(50)},
		{WeekNumber: 2, EndingBalance: d(10)},
		{WeekNumber: 3, EndingBalance: d(10)},
		{WeekNumber: 4, EndingBalance: d(-5)},
		{WeekNumber: 5, EndingBalance: d(20)},
	}
	s := Summarize(weeks)

	if s.LowestCashWeek != 4 || !s.LowestCashAmount.Equal(d(-5)) {
		t.Errorf("lowest = (%d, %s), want (4, -5)", s.LowestCashWeek, s.LowestCashAmount)
	}
	if s.RunwayWeeks != 3 {
		t.Errorf("runway = %d, want 3", s.RunwayWeeks)
	}

	s = Summarize(weeks[:3])
	if s.LowestCashWeek != 2 {
		t.Errorf("tie should keep week 2, got %d", s.LowestCashWeek)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.RunwayWeeks != 0 || s.LowestCashWeek != 0 || !s.LowestCashAmount.IsZero() {
		t.Errorf("expected zero summary, got %+v", s)
	}
}

func TestMonthlyBurn(t *testing.T) {
	f := Flat("u1", day0, d(100000), 13, d(20000), d(15000))
	got := MonthlyBurn(f).Round(2)
	if !got.Equal(d(65000)) {
		t.Errorf("monthly burn = %s, want 65000", got)
	}
	if !MonthlyBurn(domain.Forecast{}).IsZero() {
		t.Error("empty forecast should have zero burn")
	}
}

func TestRebalance_PropagatesChange(t *testing.T) {
	f := Flat("u1", day0, d(1000), 4, d(100), d(100))
	f.Weeks[1].CashOut = d(600)
	Rebalance(&f)

	if err := Validate(f); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !f.Weeks[0].EndingBalance.Equal(d(1000)) {
		t.Errorf("week 1 should be unchanged, got %s", f.Weeks[0].EndingBalance)
	}
	if !f.Weeks[3].EndingBalance.Equal(d(500)) {
		t.Errorf("week 4 ending = %s, want 500", f.Weeks[3].EndingBalance)
	}
	if f.Summary.LowestCashWeek != 2 {
		t.Errorf("lowest week = %d, want 2", f.Summary.LowestCashWeek)
	}
}
