package reporting

import (
	"fmt"
	"strings"
	"time"

	"tamio-engine/internal/money"
	"tamio-engine/internal/queue"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Decision Report\n\n")
	sb.WriteString(fmt.Sprintf("User: %s | Generated: %s\n\n", r.UserID, r.GeneratedAt.Format(time.RFC3339)))

	// Queue summary
	sb.WriteString("## Decision Queue\n\n")
	sb.WriteString("| Section | Items |\n")
	sb.WriteString("|---------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Requires decision | %d |\n", r.Queue.Summary.RequiresDecision))
	sb.WriteString(fmt.Sprintf("| Being handled | %d |\n", r.Queue.Summary.BeingHandled))
	sb.WriteString(fmt.Sprintf("| Monitoring | %d |\n", r.Queue.Summary.Monitoring))
	sb.WriteString(fmt.Sprintf("| Total | %d |\n", r.Queue.Summary.Total))
	sb.WriteString("\n")

	for _, section := range queue.Sections {
		items := r.Queue.Section(section)
		if len(items) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("### %s\n\n", sectionTitle(section)))
		sb.WriteString("| # | Alert | Severity | Impact | Recommendation |\n")
		sb.WriteString("|---|-------|----------|--------|----------------|\n")
		for i, it := range items {
			impact := "-"
			if it.Alert.CashImpact != nil {
				impact = money.Format(*it.Alert.CashImpact)
			}
			rec := "-"
			if it.Recommendation != nil {
				rec = fmt.Sprintf("%s (%s)", it.Recommendation.Name, it.Recommendation.State)
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
				i+1, it.Alert.Title, it.Alert.Severity, impact, rec))
		}
		sb.WriteString("\n")
	}

	// Fixes
	if len(r.Fixes) > 0 {
		sb.WriteString("## Recommended Fixes\n\n")
		for _, rf := range r.Fixes {
			sb.WriteString(fmt.Sprintf("### %s\n\n", rf.RiskID))
			for i, f := range rf.Fixes {
				sb.WriteString(fmt.Sprintf("%d. **%s** (%s): %s\n", i+1, f.Title, f.Action.Type, f.BufferImprovement))
			}
			sb.WriteString("\n")
		}
	}

	// Danger zone
	sb.WriteString("## Danger Zone\n\n")
	if r.DangerZone == nil {
		sb.WriteString("Cash stays above the buffer for the whole horizon.\n\n")
	} else {
		dz := r.DangerZone
		sb.WriteString(fmt.Sprintf("Buffer: %s\n\n", money.Format(dz.BufferAmount)))
		sb.WriteString(fmt.Sprintf("Weeks %d to %d, below buffer in weeks %s.\n\n", dz.StartWeek, dz.EndWeek, joinInts(dz.BelowBufferWeeks)))
		sb.WriteString(fmt.Sprintf("Lowest point: %s in week %d.\n\n", money.Format(dz.LowestPoint.Amount), dz.LowestPoint.Week))
	}

	// Insights
	if len(r.Insights) > 0 {
		sb.WriteString("## Insights\n\n")
		for _, in := range r.Insights {
			sb.WriteString(fmt.Sprintf("- [%s] %s: %s\n", in.Type, in.Title, in.Description))
		}
	}

	return sb.String()
}

func sectionTitle(s queue.Section) string {
	switch s {
	case queue.SectionRequiresDecision:
		return "Requires Decision"
	case queue.SectionBeingHandled:
		return "Being Handled"
	default:
		return "Monitoring"
	}
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ", ")
}
