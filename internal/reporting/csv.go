package reporting

import (
	"fmt"
	"strings"

	"tamio-engine/internal/scenario"
)

// RenderComparisonCSV renders the base and scenario forecasts week by week
// as CSV string. Amounts are plain decimals with two places.
func RenderComparisonCSV(cmp scenario.Comparison) string {
	var sb strings.Builder

	// Header
	sb.WriteString("week_number,base_cash_in,base_cash_out,base_ending,")
	sb.WriteString("scenario_cash_in,scenario_cash_out,scenario_ending,delta\n")

	// Rows
	for i, b := range cmp.BaseForecast.Weeks {
		if i >= len(cmp.ScenarioForecast.Weeks) {
			break
		}
		s := cmp.ScenarioForecast.Weeks[i]
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%s,%s,%s,%s,%s\n",
			b.WeekNumber,
			b.CashIn.StringFixed(2),
			b.CashOut.StringFixed(2),
			b.EndingBalance.StringFixed(2),
			s.CashIn.StringFixed(2),
			s.CashOut.StringFixed(2),
			s.EndingBalance.StringFixed(2),
			s.EndingBalance.Sub(b.EndingBalance).StringFixed(2),
		))
	}

	return sb.String()
}
