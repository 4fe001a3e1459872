package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Severity of a detected risk. Total order: urgent > high > normal.
type Severity string

const (
	SeverityUrgent Severity = "urgent"
	SeverityHigh   Severity = "high"
	SeverityNormal Severity = "normal"
)

// RiskStatus is the lifecycle state of a risk.
type RiskStatus string

const (
	RiskStatusActive    RiskStatus = "active"
	RiskStatusDismissed RiskStatus = "dismissed"
)

// DetectionType tags the upstream detector that raised a risk.
// Unknown values are legal; consumers must have a default arm.
type DetectionType string

const (
	DetectionCashShortfall     DetectionType = "cash_shortfall"
	DetectionPaymentOverdue    DetectionType = "payment_overdue"
	DetectionLatePayment       DetectionType = "late_payment"
	DetectionBufferBreach      DetectionType = "buffer_breach"
	DetectionClientChurn       DetectionType = "client_churn"
	DetectionExpenseSpike      DetectionType = "expense_spike"
	DetectionPayrollSafety     DetectionType = "payroll_safety"
	DetectionRevenueVariance   DetectionType = "revenue_variance"
	DetectionConcentrationRisk DetectionType = "concentration_risk"
)

// Risk is a detected financial risk (an "alert" in the UI).
type Risk struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user_id"`
	Title            string           `json:"title"`
	Severity         Severity         `json:"severity"`
	DetectionType    DetectionType    `json:"detection_type"`
	Status           RiskStatus       `json:"status"`
	ContextBullets   []string         `json:"context_bullets"`
	PrimaryDriver    string           `json:"primary_driver"`
	DueHorizonLabel  string           `json:"due_horizon_label"`
	ImpactStatement  string           `json:"impact_statement"`
	CashImpact       *decimal.Decimal `json:"cash_impact"`
	ContextData      map[string]any   `json:"context_data"`
	LinkedControlIDs []string         `json:"linked_control_ids"`
	DetectedAt       time.Time        `json:"detected_at"`
}

// ControlState is the lifecycle state of a mitigation.
type ControlState string

const (
	ControlStatePending     ControlState = "pending"
	ControlStateActive      ControlState = "active"
	ControlStateCompleted   ControlState = "completed"
	ControlStateNeedsReview ControlState = "needs_review"
)

// Control is a proposed or active mitigation for one or more risks.
// A positive ImpactAmount improves the cash position.
type Control struct {
	ID            string           `json:"id"`
	UserID        string           `json:"user_id"`
	Name          string           `json:"name"`
	WhyItExists   string           `json:"why_it_exists"`
	ImpactAmount  *decimal.Decimal `json:"impact_amount"`
	State         ControlState     `json:"state"`
	LinkedRiskIDs []string         `json:"linked_risk_ids"`
	DraftContent  map[string]any   `json:"draft_content"`
	TamioHandles  []string         `json:"tamio_handles"`
	UserHandles   []string         `json:"user_handles"`
}

// Clone returns a copy that shares no slices, maps or pointers with r.
// ContextData is copied one level deep.
func (r Risk) Clone() Risk {
	out := r
	out.ContextBullets = append([]string(nil), r.ContextBullets...)
	out.LinkedControlIDs = append([]string(nil), r.LinkedControlIDs...)
	out.ContextData = cloneMap(r.ContextData)
	if r.CashImpact != nil {
		v := *r.CashImpact
		out.CashImpact = &v
	}
	return out
}

// Clone returns a copy that shares no slices, maps or pointers with c.
func (c Control) Clone() Control {
	out := c
	out.LinkedRiskIDs = append([]string(nil), c.LinkedRiskIDs...)
	out.TamioHandles = append([]string(nil), c.TamioHandles...)
	out.UserHandles = append([]string(nil), c.UserHandles...)
	out.DraftContent = cloneMap(c.DraftContent)
	if c.ImpactAmount != nil {
		v := *c.ImpactAmount
		out.ImpactAmount = &v
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
