package reporting

import (
	"fmt"
	"strings"

	"tamio-engine/internal/money"
	"tamio-engine/internal/scenario"
)

// RenderComparisonMarkdown renders a scenario comparison as Markdown string.
func RenderComparisonMarkdown(cmp scenario.Comparison) string {
	var sb strings.Builder

	sb.WriteString("# Scenario Comparison\n\n")
	if cmp.ScenarioID != "" {
		sb.WriteString(fmt.Sprintf("Scenario: %s\n\n", cmp.ScenarioID))
	}
	verdict := "SAFE"
	if !cmp.BufferSafe {
		verdict = "UNSAFE"
	}
	sb.WriteString(fmt.Sprintf("## Verdict: %s\n\n", verdict))

	// Summary
	base, sc := cmp.BaseForecast.Summary, cmp.ScenarioForecast.Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Base | Scenario |\n")
	sb.WriteString("|--------|------|----------|\n")
	sb.WriteString(fmt.Sprintf("| Runway (weeks) | %d | %d |\n", base.RunwayWeeks, sc.RunwayWeeks))
	sb.WriteString(fmt.Sprintf("| Lowest cash | %s (week %d) | %s (week %d) |\n",
		money.Format(base.LowestCashAmount), base.LowestCashWeek, money.Format(sc.LowestCashAmount), sc.LowestCashWeek))
	sb.WriteString(fmt.Sprintf("| Total cash in | %s | %s |\n", money.Format(base.TotalCashIn), money.Format(sc.TotalCashIn)))
	sb.WriteString(fmt.Sprintf("| Total cash out | %s | %s |\n", money.Format(base.TotalCashOut), money.Format(sc.TotalCashOut)))
	sb.WriteString("\n")

	// Rules table
	sb.WriteString("## Rules\n\n")
	if len(cmp.RuleEvaluations) == 0 {
		sb.WriteString("No rules configured.\n\n")
	} else {
		sb.WriteString("| # | Rule | Threshold | Base | Scenario | Pass |\n")
		sb.WriteString("|---|------|-----------|------|----------|------|\n")
		passed := 0
		for i, e := range cmp.RuleEvaluations {
			passStr := "PASS"
			if !e.Passed {
				passStr = "FAIL"
			} else {
				passed++
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s |\n",
				i+1, e.Scenario.Name, e.Scenario.Threshold, e.Base.Actual, e.Scenario.Actual, passStr))
		}
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("Rules: %d/%d passed\n\n", passed, len(cmp.RuleEvaluations)))
	}

	// Suggestions
	if len(cmp.SuggestedScenarios) > 0 {
		sb.WriteString("## Suggested Next Layers\n\n")
		for _, s := range cmp.SuggestedScenarios {
			sb.WriteString(fmt.Sprintf("- %s (%s): %s\n", s.Title, s.ScenarioType, s.Description))
		}
	}

	return sb.String()
}
