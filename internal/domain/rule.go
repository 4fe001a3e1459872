package domain

// RuleType identifies a financial rule evaluated against forecasts.
type RuleType string

const (
	RuleMinimumCashBuffer  RuleType = "minimum_cash_buffer"
	RuleMinimumRunwayWeeks RuleType = "minimum_runway_weeks"
)

// ThresholdConfig holds rule-specific thresholds.
// minimum_cash_buffer reads Months; minimum_runway_weeks reads Weeks.
type ThresholdConfig struct {
	Months float64 `json:"months,omitempty"`
	Weeks  int     `json:"weeks,omitempty"`
}

// FinancialRule is a user-configured guard rail.
type FinancialRule struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	RuleType        RuleType        `json:"rule_type"`
	ThresholdConfig ThresholdConfig `json:"threshold_config"`
}
