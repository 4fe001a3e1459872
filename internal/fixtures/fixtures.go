// Package fixtures provides a deterministic demo dataset for memory mode.
package fixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/forecast"
	"tamio-engine/internal/storage"
)

// DemoUser owns every record in the demo dataset.
const DemoUser = "demo"

// DemoStart is the first day of week 1 (a Monday).
var DemoStart = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

// Stores is the subset of stores the dataset is written to.
type Stores struct {
	Risks     storage.RiskStore
	Controls  storage.ControlStore
	Forecasts storage.ForecastStore
	Rules     storage.RuleStore
	Clients   storage.ClientStore
	Buckets   storage.BucketStore
}

// Dataset is the full set of demo records.
type Dataset struct {
	Forecast domain.Forecast        `json:"forecast"`
	Clients  []domain.Client        `json:"clients"`
	Buckets  []domain.ExpenseBucket `json:"buckets"`
	Risks    []domain.Risk          `json:"risks"`
	Controls []domain.Control       `json:"controls"`
	Rules    []domain.FinancialRule `json:"rules"`
}

// ReadJSON decodes a dataset. The forecast must reconcile; its summary is
// recomputed from the weeks.
func ReadJSON(r io.Reader) (Dataset, error) {
	var ds Dataset
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ds); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	if err := forecast.Validate(ds.Forecast); err != nil {
		return Dataset{}, fmt.Errorf("dataset forecast: %w", err)
	}
	ds.Forecast.Summary = forecast.Summarize(ds.Forecast.Weeks)
	return ds, nil
}

// Recurring is one cash stream of the demo forecast. First is the date of
// the first occurrence.
type Recurring struct {
	SourceRef string
	Category  string
	Direction domain.Direction
	Amount    decimal.Decimal
	Frequency domain.Frequency
	First     time.Time
}

func amount(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func amountPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// Demo returns the demo dataset. The forecast dips below the 20% buffer in
// weeks 8, 10 and 12 when payroll lands between client payments.
func Demo() Dataset {
	clients := []domain.Client{
		{ID: "acme", UserID: DemoUser, Name: "Acme Corp", BillingAmount: amount(15000), BillingFrequency: domain.FrequencyMonthly, Status: "active"},
		{ID: "globex", UserID: DemoUser, Name: "Globex", BillingAmount: amount(6000), BillingFrequency: domain.FrequencyBiweekly, Status: "active"},
		{ID: "initech", UserID: DemoUser, Name: "Initech", BillingAmount: amount(4000), BillingFrequency: domain.FrequencyWeekly, Status: "active"},
	}
	buckets := []domain.ExpenseBucket{
		{ID: "payroll", UserID: DemoUser, Name: "Payroll", Category: "payroll", Amount: amount(24000), Frequency: domain.FrequencyBiweekly},
		{ID: "rent", UserID: DemoUser, Name: "Office rent", Category: "facilities", Amount: amount(5000), Frequency: domain.FrequencyMonthly},
		{ID: "software", UserID: DemoUser, Name: "Software", Category: "software", Amount: amount(1500), Frequency: domain.FrequencyMonthly},
	}

	streams := []Recurring{
		{SourceRef: "acme", Category: "revenue", Direction: domain.DirectionIn, Amount: amount(15000), Frequency: domain.FrequencyMonthly, First: DemoStart},
		{SourceRef: "globex", Category: "revenue", Direction: domain.DirectionIn, Amount: amount(6000), Frequency: domain.FrequencyBiweekly, First: DemoStart},
		{SourceRef: "initech", Category: "revenue", Direction: domain.DirectionIn, Amount: amount(4000), Frequency: domain.FrequencyWeekly, First: DemoStart},
		{SourceRef: "payroll", Category: "payroll", Direction: domain.DirectionOut, Amount: amount(24000), Frequency: domain.FrequencyBiweekly, First: DemoStart.AddDate(0, 0, 7)},
		{SourceRef: "rent", Category: "facilities", Direction: domain.DirectionOut, Amount: amount(5000), Frequency: domain.FrequencyMonthly, First: DemoStart},
		{SourceRef: "software", Category: "software", Direction: domain.DirectionOut, Amount: amount(1500), Frequency: domain.FrequencyMonthly, First: DemoStart},
	}

	detected := DemoStart.Add(-24 * time.Hour)
	risks := []domain.Risk{
		{
			ID: "risk-payroll", UserID: DemoUser, Title: "Payroll not covered in week 8",
			Severity: domain.SeverityUrgent, DetectionType: domain.DetectionPayrollSafety, Status: domain.RiskStatusActive,
			ContextBullets:   []string{"Payroll of $24,000 due Feb 24", "Balance drops below zero after payroll"},
			PrimaryDriver:    "payroll",
			DueHorizonLabel:  "Week 8",
			ImpactStatement:  "Payroll shortfall of $3,000",
			CashImpact:       amountPtr(-3000),
			LinkedControlIDs: []string{"ctl-chase-globex"},
			DetectedAt:       detected,
		},
		{
			ID: "risk-acme-late", UserID: DemoUser, Title: "Acme paying later than terms",
			Severity: domain.SeverityHigh, DetectionType: domain.DetectionLatePayment, Status: domain.RiskStatusActive,
			ContextBullets:  []string{"Last two invoices paid 12 days late"},
			PrimaryDriver:   "acme",
			DueHorizonLabel: "Next 30 days",
			ImpactStatement: "$15,000 receipt at risk",
			CashImpact:      amountPtr(-15000),
			DetectedAt:      detected.Add(time.Hour),
		},
		{
			ID: "risk-software", UserID: DemoUser, Title: "Software spend up 40%",
			Severity: domain.SeverityNormal, DetectionType: domain.DetectionExpenseSpike, Status: domain.RiskStatusActive,
			PrimaryDriver: "software",
			DetectedAt:    detected.Add(2 * time.Hour),
		},
		{
			ID: "risk-concentration", UserID: DemoUser, Title: "Acme is 45% of revenue",
			Severity: domain.SeverityNormal, DetectionType: domain.DetectionConcentrationRisk, Status: domain.RiskStatusActive,
			PrimaryDriver: "acme",
			DetectedAt:    detected.Add(3 * time.Hour),
		},
	}
	controls := []domain.Control{
		{
			ID: "ctl-chase-globex", UserID: DemoUser, Name: "Chase Globex invoice early",
			WhyItExists:   "Pull the week 9 receipt into week 7",
			ImpactAmount:  amountPtr(6000),
			State:         domain.ControlStatePending,
			LinkedRiskIDs: []string{"risk-payroll"},
			DraftContent:  map[string]any{"subject": "Invoice #1042", "channel": "email"},
			TamioHandles:  []string{"Draft reminder email"},
			UserHandles:   []string{"Send the email"},
		},
		{
			ID: "ctl-acme-reminder", UserID: DemoUser, Name: "Automated reminders for Acme",
			WhyItExists:   "Reminders at 3 and 7 days past due",
			State:         domain.ControlStateActive,
			LinkedRiskIDs: []string{"risk-acme-late"},
			TamioHandles:  []string{"Send reminders"},
		},
		{
			ID: "ctl-software-audit", UserID: DemoUser, Name: "Audit unused seats",
			ImpactAmount:  amountPtr(400),
			State:         domain.ControlStateCompleted,
			LinkedRiskIDs: []string{"risk-software"},
		},
	}
	rules := []domain.FinancialRule{
		{ID: "rule-buffer", UserID: DemoUser, RuleType: domain.RuleMinimumCashBuffer, ThresholdConfig: domain.ThresholdConfig{Months: 0.1}},
		{ID: "rule-runway", UserID: DemoUser, RuleType: domain.RuleMinimumRunwayWeeks, ThresholdConfig: domain.ThresholdConfig{Weeks: 8}},
	}

	return Dataset{
		Forecast: BuildForecast(DemoUser, DemoStart, amount(20000), 13, streams),
		Clients:  clients,
		Buckets:  buckets,
		Risks:    risks,
		Controls: controls,
		Rules:    rules,
	}
}

// BuildForecast lays recurring streams onto a weekly forecast and
// reconciles the balances.
func BuildForecast(userID string, start time.Time, startingCash decimal.Decimal, weeks int, streams []Recurring) domain.Forecast {
	f := forecast.Flat(userID, start, startingCash, weeks, decimal.Zero, decimal.Zero)
	end := f.End()

	for _, s := range streams {
		for t := s.First; t.Before(end); t = s.Frequency.Next(t) {
			i, ok := f.WeekIndexOf(t)
			if !ok {
				continue
			}
			w := &f.Weeks[i]
			if s.Direction == domain.DirectionIn {
				w.CashIn = w.CashIn.Add(s.Amount)
			} else {
				w.CashOut = w.CashOut.Add(s.Amount)
			}
			w.Events = append(w.Events, domain.CashEvent{
				Amount:     s.Amount,
				Direction:  s.Direction,
				Category:   s.Category,
				SourceRef:  s.SourceRef,
				Confidence: domain.ConfidenceHigh,
			})
		}
	}

	forecast.Rebalance(&f)
	return f
}

// Load writes the dataset into the stores.
func Load(ctx context.Context, stores Stores, ds Dataset) error {
	if err := stores.Forecasts.Save(ctx, &ds.Forecast); err != nil {
		return fmt.Errorf("save forecast: %w", err)
	}
	for i := range ds.Clients {
		if err := stores.Clients.Insert(ctx, &ds.Clients[i]); err != nil {
			return fmt.Errorf("insert client %s: %w", ds.Clients[i].ID, err)
		}
	}
	for i := range ds.Buckets {
		if err := stores.Buckets.Insert(ctx, &ds.Buckets[i]); err != nil {
			return fmt.Errorf("insert bucket %s: %w", ds.Buckets[i].ID, err)
		}
	}
	for i := range ds.Risks {
		if err := stores.Risks.Insert(ctx, &ds.Risks[i]); err != nil {
			return fmt.Errorf("insert risk %s: %w", ds.Risks[i].ID, err)
		}
	}
	for i := range ds.Controls {
		if err := stores.Controls.Insert(ctx, &ds.Controls[i]); err != nil {
			return fmt.Errorf("insert control %s: %w", ds.Controls[i].ID, err)
		}
	}
	for i := range ds.Rules {
		if err := stores.Rules.Insert(ctx, &ds.Rules[i]); err != nil {
			return fmt.Errorf("insert rule %s: %w", ds.Rules[i].ID, err)
		}
	}
	return nil
}
