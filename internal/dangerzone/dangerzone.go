// Package dangerzone finds the weeks where a forecast drops below a cash
// buffer.
package dangerzone

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/forecast"
)

// DefaultBufferFraction is the share of starting cash used as the buffer
// when no rule is configured.
var DefaultBufferFraction = decimal.NewFromFloat(0.20)

// Point is a single (week, amount) coordinate.
type Point struct {
	Week   int             `json:"week"`
	Amount decimal.Decimal `json:"amount"`
}

// DangerZone describes the weeks whose ending balance is below the buffer.
// StartWeek and EndWeek bound the breach set; weeks between them may be
// above the buffer.
type DangerZone struct {
	StartWeek        int             `json:"start_week"`
	EndWeek          int             `json:"end_week"`
	LowestPoint      Point           `json:"lowest_point"`
	BelowBufferWeeks []int           `json:"below_buffer_weeks"`
	BufferAmount     decimal.Decimal `json:"buffer_amount"`
}

// Analyze scans the forecast once. It returns nil when no week is below
// bufferAmount. LowestPoint is the minimum over all weeks, earliest on ties.
func Analyze(f domain.Forecast, bufferAmount decimal.Decimal) (*DangerZone, error) {
	if err := forecast.Validate(f); err != nil {
		return nil, fmt.Errorf("analyze danger zone: %w", err)
	}
	if len(f.Weeks) == 0 {
		return nil, nil
	}

	var below []int
	lowest := Point{Week: f.Weeks[0].WeekNumber, Amount: f.Weeks[0].EndingBalance}

	for _, w := range f.Weeks {
		if w.EndingBalance.LessThan(bufferAmount) {
			below = append(below, w.WeekNumber)
		}
		if w.EndingBalance.LessThan(lowest.Amount) {
			lowest = Point{Week: w.WeekNumber, Amount: w.EndingBalance}
		}
	}

	if len(below) == 0 {
		return nil, nil
	}

	return &DangerZone{
		StartWeek:        below[0],
		EndWeek:          below[len(below)-1],
		LowestPoint:      lowest,
		BelowBufferWeeks: below,
		BufferAmount:     bufferAmount,
	}, nil
}

// DefaultBuffer is 20% of starting cash.
func DefaultBuffer(startingCash decimal.Decimal) decimal.Decimal {
	return startingCash.Mul(DefaultBufferFraction)
}

// FractionBuffer is fraction × starting cash.
func FractionBuffer(startingCash, fraction decimal.Decimal) decimal.Decimal {
	return startingCash.Mul(fraction)
}

// BufferFromRule derives the buffer from a minimum_cash_buffer rule:
// months × monthly burn of the forecast.
func BufferFromRule(rule domain.FinancialRule, f domain.Forecast) (decimal.Decimal, error) {
	if rule.RuleType != domain.RuleMinimumCashBuffer {
		return decimal.Zero, domain.Invalid("rule_type", "buffer requires %s, got %q", domain.RuleMinimumCashBuffer, rule.RuleType)
	}
	if rule.ThresholdConfig.Months <= 0 {
		return decimal.Zero, domain.Invalid("threshold_config.months", "must be positive")
	}
	months := decimal.NewFromFloat(rule.ThresholdConfig.Months)
	return forecast.MonthlyBurn(f).Mul(months), nil
}
