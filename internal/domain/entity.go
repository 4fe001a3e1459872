package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is how often a recurring amount repeats.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

// Next returns the occurrence after t. Unknown frequencies repeat weekly.
func (f Frequency) Next(t time.Time) time.Time {
	switch f {
	case FrequencyBiweekly:
		return t.AddDate(0, 0, 14)
	case FrequencyMonthly:
		return t.AddDate(0, 1, 0)
	case FrequencyQuarterly:
		return t.AddDate(0, 3, 0)
	default:
		return t.AddDate(0, 0, 7)
	}
}

// Client is a revenue source a scenario can be scoped to.
type Client struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	Name             string          `json:"name"`
	BillingAmount    decimal.Decimal `json:"billing_amount"`
	BillingFrequency Frequency       `json:"billing_frequency"`
	Status           string          `json:"status"`
}

// ExpenseBucket is a recurring cost a scenario can be scoped to.
type ExpenseBucket struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Frequency Frequency       `json:"frequency"`
}
