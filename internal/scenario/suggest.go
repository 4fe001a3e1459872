package scenario

import "tamio-engine/internal/domain"

// Suggestion is a candidate next layer for a scenario.
type Suggestion struct {
	ScenarioType domain.ScenarioType `json:"scenario_type"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
}

// followUps lists the second-order responses worth layering after a delta
// of the given type.
func followUps(t domain.ScenarioType) []domain.ScenarioType {
	switch t {
	case domain.ScenarioClientLoss:
		return []domain.ScenarioType{domain.ScenarioDecreasedExpense, domain.ScenarioFiring, domain.ScenarioPaymentDelayOut}
	case domain.ScenarioClientGain:
		return []domain.ScenarioType{domain.ScenarioHiring, domain.ScenarioContractorGain}
	case domain.ScenarioClientChange:
		return []domain.ScenarioType{domain.ScenarioHiring, domain.ScenarioDecreasedExpense}
	case domain.ScenarioHiring:
		return []domain.ScenarioType{domain.ScenarioClientGain, domain.ScenarioPaymentDelayOut}
	case domain.ScenarioFiring:
		return []domain.ScenarioType{domain.ScenarioContractorLoss, domain.ScenarioDecreasedExpense}
	case domain.ScenarioContractorGain:
		return []domain.ScenarioType{domain.ScenarioIncreasedExpense}
	case domain.ScenarioContractorLoss:
		return []domain.ScenarioType{domain.ScenarioDecreasedExpense, domain.ScenarioClientGain}
	case domain.ScenarioIncreasedExpense:
		return []domain.ScenarioType{domain.ScenarioPaymentDelayOut, domain.ScenarioDecreasedExpense}
	case domain.ScenarioDecreasedExpense:
		return []domain.ScenarioType{domain.ScenarioClientGain}
	case domain.ScenarioPaymentDelayIn:
		return []domain.ScenarioType{domain.ScenarioPaymentDelayOut, domain.ScenarioDecreasedExpense}
	case domain.ScenarioPaymentDelayOut:
		return []domain.ScenarioType{domain.ScenarioDecreasedExpense}
	default:
		return []domain.ScenarioType{domain.ScenarioDecreasedExpense, domain.ScenarioPaymentDelayOut}
	}
}

// Suggest proposes next layers from the scenario's last delta, skipping
// types the scenario already applies.
func Suggest(sc domain.Scenario) []Suggestion {
	deltas := sc.Deltas()
	applied := make(map[domain.ScenarioType]struct{}, len(deltas))
	for _, d := range deltas {
		applied[d.Type] = struct{}{}
	}

	var out []Suggestion
	for _, t := range followUps(deltas[len(deltas)-1].Type) {
		if _, done := applied[t]; done {
			continue
		}
		title, description := domain.Describe(t)
		out = append(out, Suggestion{ScenarioType: t, Title: title, Description: description})
	}
	return out
}
