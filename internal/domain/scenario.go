package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScenarioType is one of the eleven fixed what-if kinds.
type ScenarioType string

const (
	ScenarioClientLoss       ScenarioType = "client_loss"
	ScenarioClientGain       ScenarioType = "client_gain"
	ScenarioClientChange     ScenarioType = "client_change"
	ScenarioHiring           ScenarioType = "hiring"
	ScenarioFiring           ScenarioType = "firing"
	ScenarioContractorGain   ScenarioType = "contractor_gain"
	ScenarioContractorLoss   ScenarioType = "contractor_loss"
	ScenarioIncreasedExpense ScenarioType = "increased_expense"
	ScenarioDecreasedExpense ScenarioType = "decreased_expense"
	ScenarioPaymentDelayIn   ScenarioType = "payment_delay_in"
	ScenarioPaymentDelayOut  ScenarioType = "payment_delay_out"
)

// ScenarioTypes lists every supported scenario type in declaration order.
var ScenarioTypes = []ScenarioType{
	ScenarioClientLoss,
	ScenarioClientGain,
	ScenarioClientChange,
	ScenarioHiring,
	ScenarioFiring,
	ScenarioContractorGain,
	ScenarioContractorLoss,
	ScenarioIncreasedExpense,
	ScenarioDecreasedExpense,
	ScenarioPaymentDelayIn,
	ScenarioPaymentDelayOut,
}

// Valid reports whether t is one of the fixed scenario types.
func (t ScenarioType) Valid() bool {
	switch t {
	case ScenarioClientLoss, ScenarioClientGain, ScenarioClientChange,
		ScenarioHiring, ScenarioFiring,
		ScenarioContractorGain, ScenarioContractorLoss,
		ScenarioIncreasedExpense, ScenarioDecreasedExpense,
		ScenarioPaymentDelayIn, ScenarioPaymentDelayOut:
		return true
	default:
		return false
	}
}

// ScenarioStatus is the authoring state of a scenario.
type ScenarioStatus string

const (
	ScenarioStatusDraft ScenarioStatus = "draft"
	ScenarioStatusSaved ScenarioStatus = "saved"
)

// ScopeConfig narrows a scenario to one client or expense bucket.
type ScopeConfig struct {
	ClientID string `json:"client_id,omitempty"`
	BucketID string `json:"bucket_id,omitempty"`
}

// IsZero reports whether no scope is set.
func (s ScopeConfig) IsZero() bool {
	return s.ClientID == "" && s.BucketID == ""
}

// ScenarioParameters are the numeric knobs of a scenario or layer.
// Amount is nil when it should be derived from the scoped entity.
type ScenarioParameters struct {
	EffectiveDate time.Time        `json:"effective_date"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	DelayDays     int              `json:"delay_days,omitempty"`
}

// ScenarioLayer is an additional delta applied after the base scenario.
// A layer with an empty scope inherits the base scenario's scope.
type ScenarioLayer struct {
	LayerType  ScenarioType       `json:"layer_type"`
	LayerName  string             `json:"layer_name"`
	Scope      ScopeConfig        `json:"scope_config"`
	Parameters ScenarioParameters `json:"parameters"`
}

// Scenario is a user-authored what-if with optional compounding layers.
type Scenario struct {
	ID           string             `json:"id"`
	UserID       string             `json:"user_id"`
	Name         string             `json:"name"`
	ScenarioType ScenarioType       `json:"scenario_type"`
	Scope        ScopeConfig        `json:"scope_config"`
	Parameters   ScenarioParameters `json:"parameters"`
	Status       ScenarioStatus     `json:"status"`
	Layers       []ScenarioLayer    `json:"layers"`
}

// Delta is one step of a scenario: the base effect or one layer.
type Delta struct {
	Name       string
	Type       ScenarioType
	Scope      ScopeConfig
	Parameters ScenarioParameters
}

// Deltas returns the base delta followed by each layer in insertion order.
func (s Scenario) Deltas() []Delta {
	deltas := make([]Delta, 0, 1+len(s.Layers))
	deltas = append(deltas, Delta{
		Name:       s.Name,
		Type:       s.ScenarioType,
		Scope:      s.Scope,
		Parameters: s.Parameters,
	})
	for _, l := range s.Layers {
		scope := l.Scope
		if scope.IsZero() {
			scope = s.Scope
		}
		deltas = append(deltas, Delta{
			Name:       l.LayerName,
			Type:       l.LayerType,
			Scope:      scope,
			Parameters: l.Parameters,
		})
	}
	return deltas
}

// WithLayer returns a copy of s with layer appended. s is not modified.
func (s Scenario) WithLayer(layer ScenarioLayer) Scenario {
	out := s
	out.Layers = make([]ScenarioLayer, 0, len(s.Layers)+1)
	out.Layers = append(out.Layers, s.Layers...)
	out.Layers = append(out.Layers, layer)
	return out
}

// Describe returns the user-facing title and one-line description of a
// scenario type. Every type has an arm so new types cannot silently fall
// through to generic copy.
func Describe(t ScenarioType) (title, description string) {
	switch t {
	case ScenarioClientLoss:
		return "Model losing a client", "See how the forecast holds up if a client stops paying."
	case ScenarioClientGain:
		return "Add a new client", "Model the cash from winning new recurring work."
	case ScenarioClientChange:
		return "Change a client's billing", "Model an upsell or downsell on an existing client."
	case ScenarioHiring:
		return "Model a new hire", "Add a recurring salary cost from a start date."
	case ScenarioFiring:
		return "Reduce headcount", "Remove a recurring salary cost from a given date."
	case ScenarioContractorGain:
		return "Add contractor capacity", "Model recurring contractor work billed through the business."
	case ScenarioContractorLoss:
		return "Lose contractor capacity", "Model losing recurring contractor work."
	case ScenarioIncreasedExpense:
		return "Model a cost increase", "Add a recurring expense from a given date."
	case ScenarioDecreasedExpense:
		return "Cut an expense", "Reduce a recurring expense to free up cash."
	case ScenarioPaymentDelayIn:
		return "Model a late client payment", "Push an expected receipt out by a number of days."
	case ScenarioPaymentDelayOut:
		return "Delay a vendor payment", "Push an outgoing payment later to protect the buffer."
	default:
		return "Run a what-if", "Build a custom scenario against the forecast."
	}
}

// Clone returns a copy that shares no layers or amounts with s.
func (s Scenario) Clone() Scenario {
	out := s
	out.Parameters = s.Parameters.clone()
	if s.Layers != nil {
		out.Layers = make([]ScenarioLayer, len(s.Layers))
		for i, l := range s.Layers {
			l.Parameters = l.Parameters.clone()
			out.Layers[i] = l
		}
	}
	return out
}

func (p ScenarioParameters) clone() ScenarioParameters {
	if p.Amount != nil {
		v := *p.Amount
		p.Amount = &v
	}
	return p
}
