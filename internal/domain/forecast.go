package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of the ledger a cash event lands on.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Confidence is the upstream forecaster's certainty tier for an event.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// CashEvent is a single expected movement of cash inside a forecast week.
type CashEvent struct {
	Amount     decimal.Decimal `json:"amount"`
	Direction  Direction       `json:"direction"`
	Category   string          `json:"category"`
	SourceRef  string          `json:"source_ref"` // client or bucket id
	Confidence Confidence      `json:"confidence"`
}

// ForecastWeek is one row of the weekly cash-flow forecast.
// EndingBalance = StartingBalance + CashIn - CashOut.
type ForecastWeek struct {
	WeekNumber      int             `json:"week_number"` // 1-based
	StartingBalance decimal.Decimal `json:"starting_balance"`
	CashIn          decimal.Decimal `json:"cash_in"`
	CashOut         decimal.Decimal `json:"cash_out"`
	EndingBalance   decimal.Decimal `json:"ending_balance"`
	Events          []CashEvent     `json:"events"`
}

// Side returns the week's cash_in or cash_out total for a direction.
func (w *ForecastWeek) Side(dir Direction) *decimal.Decimal {
	if dir == DirectionIn {
		return &w.CashIn
	}
	return &w.CashOut
}

// ForecastSummary is derived from the weeks and can always be recomputed.
type ForecastSummary struct {
	RunwayWeeks      int             `json:"runway_weeks"`
	LowestCashWeek   int             `json:"lowest_cash_week"`
	LowestCashAmount decimal.Decimal `json:"lowest_cash_amount"`
	TotalCashIn      decimal.Decimal `json:"total_cash_in"`
	TotalCashOut     decimal.Decimal `json:"total_cash_out"`
}

// Forecast is the shared weekly time series contract.
// Week n covers [StartDate + 7(n-1) days, StartDate + 7n days).
type Forecast struct {
	UserID       string          `json:"user_id"`
	StartDate    time.Time       `json:"start_date"`
	StartingCash decimal.Decimal `json:"starting_cash"`
	Weeks        []ForecastWeek  `json:"weeks"`
	Summary      ForecastSummary `json:"summary"`
}

// Clone returns a deep copy so callers can derive new forecasts without
// touching the original.
func (f Forecast) Clone() Forecast {
	out := f
	out.Weeks = make([]ForecastWeek, len(f.Weeks))
	for i, w := range f.Weeks {
		w.Events = append([]CashEvent(nil), w.Events...)
		out.Weeks[i] = w
	}
	return out
}

// WeekStart returns the first day of the given 1-based week.
func (f Forecast) WeekStart(weekNumber int) time.Time {
	return f.StartDate.AddDate(0, 0, 7*(weekNumber-1))
}

// WeekIndexOf maps a date to a 0-based index into Weeks by calendar day in
// the start date's location. Dates before the first week clamp to 0. The
// second return is false when the date falls after the horizon.
func (f Forecast) WeekIndexOf(date time.Time) (int, bool) {
	if !date.After(f.StartDate) {
		return 0, len(f.Weeks) > 0
	}
	idx := calendarDays(f.StartDate, date) / 7
	if idx >= len(f.Weeks) {
		return 0, false
	}
	return idx, true
}

// calendarDays counts whole calendar days from a to b, ignoring clock time
// and DST offsets.
func calendarDays(a, b time.Time) int {
	b = b.In(a.Location())
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// End returns the exclusive end date of the horizon.
func (f Forecast) End() time.Time {
	return f.StartDate.AddDate(0, 0, 7*len(f.Weeks))
}
