package fixes

import "tamio-engine/internal/domain"

// SuggestedScenarios maps a detection type to the scenario types worth
// running for it, most useful first. Unknown detection types take the
// default arm.
func SuggestedScenarios(dt domain.DetectionType) []domain.ScenarioType {
	switch dt {
	case domain.DetectionPaymentOverdue, domain.DetectionLatePayment:
		return []domain.ScenarioType{domain.ScenarioPaymentDelayOut, domain.ScenarioDecreasedExpense}
	case domain.DetectionCashShortfall, domain.DetectionBufferBreach:
		return []domain.ScenarioType{domain.ScenarioDecreasedExpense, domain.ScenarioPaymentDelayOut, domain.ScenarioClientGain}
	case domain.DetectionPayrollSafety:
		return []domain.ScenarioType{domain.ScenarioPaymentDelayOut, domain.ScenarioDecreasedExpense, domain.ScenarioFiring}
	case domain.DetectionClientChurn:
		return []domain.ScenarioType{domain.ScenarioClientLoss, domain.ScenarioClientGain, domain.ScenarioDecreasedExpense}
	case domain.DetectionExpenseSpike:
		return []domain.ScenarioType{domain.ScenarioDecreasedExpense, domain.ScenarioPaymentDelayOut}
	case domain.DetectionRevenueVariance:
		return []domain.ScenarioType{domain.ScenarioClientChange, domain.ScenarioPaymentDelayIn}
	case domain.DetectionConcentrationRisk:
		return []domain.ScenarioType{domain.ScenarioClientLoss, domain.ScenarioClientGain}
	default:
		return []domain.ScenarioType{domain.ScenarioPaymentDelayOut, domain.ScenarioDecreasedExpense}
	}
}
