// Package insight scans a forecast series for salient events and renders
// them as chart annotations.
package insight

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/idhash"
	"tamio-engine/internal/money"
)

// Type classifies an insight for presentation.
type Type string

const (
	TypeWarning     Type = "warning"
	TypeOpportunity Type = "opportunity"
	TypeTrend       Type = "trend"
	TypeAction      Type = "action" // reserved for caller-supplied insights
)

// Position places the marker above or below the series.
type Position string

const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
)

// Detector thresholds, in currency units.
var (
	DropThreshold     = decimal.NewFromInt(100000)
	RecoveryThreshold = decimal.NewFromInt(150000)

	minimumPointFactor   = decimal.NewFromInt(2)
	bufferApproachFactor = decimal.NewFromFloat(1.3)
)

// ChartPoint is one week of the expected series plus its band.
type ChartPoint struct {
	Label     string          `json:"label"`
	Position  decimal.Decimal `json:"position"`
	BestCase  decimal.Decimal `json:"best_case"`
	WorstCase decimal.Decimal `json:"worst_case"`
}

// Insight is a single chart annotation.
type Insight struct {
	ID          string          `json:"id"`
	WeekIndex   int             `json:"week_index"` // 0-based
	Type        Type            `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	DataPoint   decimal.Decimal `json:"data_point"`
	Position    Position        `json:"position"`
}

// PointsFromForecast maps ending balances onto the position series. The
// upstream forecast has no confidence band, so best and worst case equal
// the position.
func PointsFromForecast(f domain.Forecast) []ChartPoint {
	points := make([]ChartPoint, len(f.Weeks))
	for i, w := range f.Weeks {
		points[i] = ChartPoint{
			Label:     fmt.Sprintf("Week %d", w.WeekNumber),
			Position:  w.EndingBalance,
			BestCase:  w.EndingBalance,
			WorstCase: w.EndingBalance,
		}
	}
	return points
}

// Generate runs the five detectors in order and returns at most five
// insights. Every detector reads only the position series; ties go to the
// first occurrence.
func Generate(points []ChartPoint, bufferThreshold decimal.Decimal) []Insight {
	if len(points) == 0 {
		return nil
	}

	minIdx := indexOfMin(points)
	var out []Insight

	// 1. minimum point
	if minIdx > 0 && points[minIdx].Position.LessThan(bufferThreshold.Mul(minimumPointFactor)) {
		p := points[minIdx].Position
		out = append(out, Insight{
			ID:          idhash.ComputeInsightID("minimum_point", minIdx),
			WeekIndex:   minIdx,
			Type:        TypeWarning,
			Title:       "Lowest cash point",
			Description: fmt.Sprintf("Cash bottoms out at %s in %s.", money.Format(p), label(points, minIdx)),
			DataPoint:   p,
			Position:    PositionBottom,
		})
	}

	// 2. buffer approach
	approach := bufferThreshold.Mul(bufferApproachFactor)
	for i, pt := range points {
		if !pt.Position.LessThan(approach) {
			continue
		}
		if i != minIdx {
			out = append(out, Insight{
				ID:          idhash.ComputeInsightID("buffer_approach", i),
				WeekIndex:   i,
				Type:        TypeWarning,
				Title:       "Approaching buffer",
				Description: fmt.Sprintf("Cash falls within 30%% of the %s buffer in %s.", money.Format(bufferThreshold), label(points, i)),
				DataPoint:   pt.Position,
				Position:    PositionBottom,
			})
		}
		break
	}

	// 3. peak
	maxIdx := indexOfMax(points)
	if maxIdx != 0 && maxIdx != len(points)-1 {
		p := points[maxIdx].Position
		out = append(out, Insight{
			ID:          idhash.ComputeInsightID("peak", maxIdx),
			WeekIndex:   maxIdx,
			Type:        TypeOpportunity,
			Title:       "Cash peak",
			Description: fmt.Sprintf("Cash peaks at %s in %s, a window for planned spend.", money.Format(p), label(points, maxIdx)),
			DataPoint:   p,
			Position:    PositionTop,
		})
	}

	// 4. largest drop
	if i, drop := largestStep(points, func(prev, cur decimal.Decimal) decimal.Decimal { return prev.Sub(cur) }); i > 0 &&
		drop.GreaterThan(DropThreshold) && i != minIdx {
		out = append(out, Insight{
			ID:          idhash.ComputeInsightID("largest_drop", i),
			WeekIndex:   i,
			Type:        TypeTrend,
			Title:       "Sharp drop",
			Description: fmt.Sprintf("Cash drops %s in %s.", money.Format(drop), label(points, i)),
			DataPoint:   points[i].Position,
			Position:    PositionBottom,
		})
	}

	// 5. largest recovery
	if i, rise := largestStep(points, func(prev, cur decimal.Decimal) decimal.Decimal { return cur.Sub(prev) }); i > 0 &&
		rise.GreaterThan(RecoveryThreshold) {
		out = append(out, Insight{
			ID:          idhash.ComputeInsightID("largest_recovery", i),
			WeekIndex:   i,
			Type:        TypeTrend,
			Title:       "Strong recovery",
			Description: fmt.Sprintf("Cash recovers %s in %s.", money.Format(rise), label(points, i)),
			DataPoint:   points[i].Position,
			Position:    PositionTop,
		})
	}

	return out
}

func indexOfMin(points []ChartPoint) int {
	idx := 0
	for i := 1; i < len(points); i++ {
		if points[i].Position.LessThan(points[idx].Position) {
			idx = i
		}
	}
	return idx
}

func indexOfMax(points []ChartPoint) int {
	idx := 0
	for i := 1; i < len(points); i++ {
		if points[i].Position.GreaterThan(points[idx].Position) {
			idx = i
		}
	}
	return idx
}

// largestStep returns the index i >= 1 maximizing step(points[i-1], points[i])
// and the step value. It returns (0, zero) for fewer than two points.
func largestStep(points []ChartPoint, step func(prev, cur decimal.Decimal) decimal.Decimal) (int, decimal.Decimal) {
	if len(points) < 2 {
		return 0, decimal.Zero
	}
	best := 1
	bestVal := step(points[0].Position, points[1].Position)
	for i := 2; i < len(points); i++ {
		v := step(points[i-1].Position, points[i].Position)
		if v.GreaterThan(bestVal) {
			best, bestVal = i, v
		}
	}
	return best, bestVal
}

func label(points []ChartPoint, i int) string {
	if points[i].Label != "" {
		return points[i].Label
	}
	return fmt.Sprintf("week %d", i+1)
}
