// Package fixes turns one risk and its linked mitigations into a short,
// ranked list of next actions.
package fixes

import (
	"github.com/shopspring/decimal"

	"tamio-engine/internal/domain"
	"tamio-engine/internal/idhash"
	"tamio-engine/internal/money"
	"tamio-engine/internal/queue"
)

// DefaultMaxFixes caps the list when the caller does not.
const DefaultMaxFixes = 3

// Type says where a fix came from.
type Type string

const (
	TypeControl  Type = "control"
	TypeScenario Type = "scenario"
)

// ActionType is what the UI does when the fix is picked.
type ActionType string

const (
	ActionApproveControl ActionType = "approve_control"
	ActionRunScenario    ActionType = "run_scenario"
	ActionOpenBuilder    ActionType = "open_builder"
)

// Payload carries the identifiers an action needs. Unused fields are empty.
type Payload struct {
	ControlID    string              `json:"control_id,omitempty"`
	ScenarioType domain.ScenarioType `json:"type,omitempty"`
	AlertID      string              `json:"alert_id,omitempty"`
}

// Action is the follow-up attached to a fix.
type Action struct {
	Type    ActionType `json:"type"`
	Payload Payload    `json:"payload"`
}

// Source is the originating control or scenario tag. It is nil on the
// generic custom fix.
type Source struct {
	Control      *domain.Control     `json:"control,omitempty"`
	ScenarioType domain.ScenarioType `json:"scenario_type,omitempty"`
}

// Recommendation is one ranked next action for a risk.
type Recommendation struct {
	ID                string           `json:"id"`
	Type              Type             `json:"type"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	ImpactAmount      *decimal.Decimal `json:"impact_amount"`
	BufferImprovement string           `json:"buffer_improvement"`
	Source            *Source          `json:"source"`
	Action            Action           `json:"action"`
}

// Generate ranks fixes for a risk. Linked controls come first in the order
// received, then scenario suggestions for the risk's detection type, then a
// single custom-builder fallback. The result never exceeds maxFixes and is
// never empty; maxFixes <= 0 means DefaultMaxFixes.
func Generate(risk domain.Risk, linked []domain.Control, maxFixes int) ([]Recommendation, error) {
	if risk.ID == "" {
		return nil, domain.Invalid("risk.id", "must not be empty")
	}
	if maxFixes <= 0 {
		maxFixes = DefaultMaxFixes
	}

	out := make([]Recommendation, 0, maxFixes)

	for _, c := range linked {
		if len(out) >= maxFixes {
			break
		}
		out = append(out, fromControl(risk, c, len(out)))
	}

	for _, st := range SuggestedScenarios(risk.DetectionType) {
		if len(out) >= maxFixes {
			break
		}
		out = append(out, fromScenario(risk, st, len(out)))
	}

	if len(out) < maxFixes {
		out = append(out, custom(risk, len(out)))
	}

	if len(out) > maxFixes {
		out = out[:maxFixes]
	}
	return out, nil
}

// RiskFixes pairs a queue item with its fixes.
type RiskFixes struct {
	RiskID string           `json:"risk_id"`
	Fixes  []Recommendation `json:"fixes"`
}

// GenerateForQueue produces fixes for every requires_decision item, in
// queue order (most severe first).
func GenerateForQueue(q queue.Queue, maxFixes int) ([]RiskFixes, error) {
	var out []RiskFixes
	for _, it := range q.Section(queue.SectionRequiresDecision) {
		fixes, err := Generate(it.Alert, it.Controls, maxFixes)
		if err != nil {
			return nil, err
		}
		out = append(out, RiskFixes{RiskID: it.ID, Fixes: fixes})
	}
	return out, nil
}

func fromControl(risk domain.Risk, c domain.Control, position int) Recommendation {
	improvement := "Impact not estimated"
	var impact *decimal.Decimal
	if c.ImpactAmount != nil {
		v := *c.ImpactAmount
		impact = &v
		improvement = money.Signed(v)
	}
	ctrl := c
	return Recommendation{
		ID:                idhash.ComputeFixID(risk.ID, string(TypeControl), c.ID, position),
		Type:              TypeControl,
		Title:             c.Name,
		Description:       c.WhyItExists,
		ImpactAmount:      impact,
		BufferImprovement: improvement,
		Source:            &Source{Control: &ctrl},
		Action: Action{
			Type:    ActionApproveControl,
			Payload: Payload{ControlID: c.ID, AlertID: risk.ID},
		},
	}
}

func fromScenario(risk domain.Risk, st domain.ScenarioType, position int) Recommendation {
	title, description := domain.Describe(st)
	return Recommendation{
		ID:                idhash.ComputeFixID(risk.ID, string(TypeScenario), string(st), position),
		Type:              TypeScenario,
		Title:             title,
		Description:       description,
		BufferImprovement: "Run scenario to estimate",
		Source:            &Source{ScenarioType: st},
		Action: Action{
			Type:    ActionRunScenario,
			Payload: Payload{ScenarioType: st, AlertID: risk.ID},
		},
	}
}

func custom(risk domain.Risk, position int) Recommendation {
	return Recommendation{
		ID:                idhash.ComputeFixID(risk.ID, "custom", "", position),
		Type:              TypeScenario,
		Title:             "Custom Solution",
		Description:       "Build your own scenario to test a different response.",
		BufferImprovement: "Depends on scenario",
		Action: Action{
			Type:    ActionOpenBuilder,
			Payload: Payload{AlertID: risk.ID},
		},
	}
}
