// Package forecast holds the invariant checks and derived-value computations
// shared by every component that reads or produces a weekly forecast.
package forecast

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"

	"tamio-engine/internal/domain"
)

var weeksPerYear = decimal.NewFromInt(52)

// Validate checks the forecast invariants:
//   - week numbers start at 1 and have no gaps
//   - ending = starting + in - out for every week
//   - week 1 starts at starting_cash and week n+1 starts at week n's ending
//
// All violations are reported together as *domain.InvariantError values
// aggregated in a *multierror.Error.
func Validate(f domain.Forecast) error {
	var result *multierror.Error

	for i, w := range f.Weeks {
		if w.WeekNumber != i+1 {
			result = multierror.Append(result, &domain.InvariantError{
				Week:   w.WeekNumber,
				Reason: fmt.Sprintf("expected week number %d at position %d", i+1, i),
			})
		}

		expected := w.StartingBalance.Add(w.CashIn).Sub(w.CashOut)
		if !expected.Equal(w.EndingBalance) {
			result = multierror.Append(result, &domain.InvariantError{
				Week:   w.WeekNumber,
				Reason: fmt.Sprintf("ending balance %s does not reconcile, expected %s", w.EndingBalance, expected),
			})
		}

		prev := f.StartingCash
		if i > 0 {
			prev = f.Weeks[i-1].EndingBalance
		}
		if !w.StartingBalance.Equal(prev) {
			result = multierror.Append(result, &domain.InvariantError{
				Week:   w.WeekNumber,
				Reason: fmt.Sprintf("starting balance %s does not carry over previous balance %s", w.StartingBalance, prev),
			})
		}
	}

	return result.ErrorOrNil()
}

// Summarize derives the summary block from the weeks.
// An empty series yields a zero summary.
func Summarize(weeks []domain.ForecastWeek) domain.ForecastSummary {
	var s domain.ForecastSummary
	if len(weeks) == 0 {
		return s
	}

	runwayOpen := true
	s.LowestCashWeek = weeks[0].WeekNumber
	s.LowestCashAmount = weeks[0].EndingBalance

	for _, w := range weeks {
		s.TotalCashIn = s.TotalCashIn.Add(w.CashIn)
		s.TotalCashOut = s.TotalCashOut.Add(w.CashOut)

		if runwayOpen {
			if w.EndingBalance.IsNegative() {
				runwayOpen = false
			} else {
				s.RunwayWeeks++
			}
		}

		// Strict comparison keeps the earliest week on ties.
		if w.EndingBalance.LessThan(s.LowestCashAmount) {
			s.LowestCashWeek = w.WeekNumber
			s.LowestCashAmount = w.EndingBalance
		}
	}

	return s
}

// Rebalance recomputes starting and ending balances from f.StartingCash and
// each week's cash_in/cash_out, then refreshes the summary. It modifies f in
// place and must only be called on a forecast the caller owns.
func Rebalance(f *domain.Forecast) {
	balance := f.StartingCash
	for i := range f.Weeks {
		w := &f.Weeks[i]
		w.StartingBalance = balance
		w.EndingBalance = balance.Add(w.CashIn).Sub(w.CashOut)
		balance = w.EndingBalance
	}
	f.Summary = Summarize(f.Weeks)
}

// MonthlyBurn is the average weekly cash_out scaled to a month (× 52/12).
func MonthlyBurn(f domain.Forecast) decimal.Decimal {
	if len(f.Weeks) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, w := range f.Weeks {
		total = total.Add(w.CashOut)
	}
	// Multiply before dividing so whole-unit burns stay exact.
	return total.Mul(weeksPerYear).Div(decimal.NewFromInt(int64(12 * len(f.Weeks))))
}

// Flat builds a reconciled forecast with the same cash_in and cash_out every
// week. Used by fixtures and tests.
func Flat(userID string, startDate time.Time, startingCash decimal.Decimal, weeks int, cashIn, cashOut decimal.Decimal) domain.Forecast {
	f := domain.Forecast{
		UserID:       userID,
		StartDate:    startDate,
		StartingCash: startingCash,
		Weeks:        make([]domain.ForecastWeek, weeks),
	}
	for i := range f.Weeks {
		f.Weeks[i] = domain.ForecastWeek{
			WeekNumber: i + 1,
			CashIn:     cashIn,
			CashOut:    cashOut,
		}
	}
	Rebalance(&f)
	return f
}
