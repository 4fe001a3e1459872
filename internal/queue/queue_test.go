package queue

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"tamio-engine/internal/domain"
)

func risk(id string, sev domain.Severity, controls ...string) domain.Risk {
	return domain.Risk{ID: id, Title: "risk " + id, Severity: sev, Status: domain.RiskStatusActive, LinkedControlIDs: controls}
}

func control(id string, state domain.ControlState, risks ...string) domain.Control {
	return domain.Control{ID: id, Name: "control " + id, State: state, LinkedRiskIDs: risks}
}

func TestBuild_UrgentWithoutControlsRequiresDecision(t *testing.T) {
	q, err := Build([]domain.Risk{risk("r1", domain.SeverityUrgent)}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if q.Items[0].Section != SectionRequiresDecision {
		t.Errorf("section = %s, want requires_decision", q.Items[0].Section)
	}
	if q.Items[0].Recommendation != nil {
		t.Errorf("expected no recommendation, got %+v", q.Items[0].Recommendation)
	}
}

func TestBuild_ActiveControlMeansBeingHandled(t *testing.T) {
	risks := []domain.Risk{risk("r1", domain.SeverityNormal, "cA")}
	controls := []domain.Control{control("cA", domain.ControlStateActive)}

	q, err := Build(risks, controls)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if q.Items[0].Section != SectionBeingHandled {
		t.Errorf("section = %s, want being_handled", q.Items[0].Section)
	}
}

func TestBuild_ClassificationTable(t *testing.T) {
	tests := []struct {
		name     string
		severity domain.Severity
		states   []domain.ControlState
		want     Section
	}{
		{"active wins over pending", domain.SeverityHigh, []domain.ControlState{domain.ControlStatePending, domain.ControlStateActive}, SectionBeingHandled},
		{"pending requires decision", domain.SeverityNormal, []domain.ControlState{domain.ControlStatePending}, SectionRequiresDecision},
		{"needs review requires decision", domain.SeverityNormal, []domain.ControlState{domain.ControlStateNeedsReview, domain.ControlStateCompleted}, SectionRequiresDecision},
		{"only completed is monitoring", domain.SeverityHigh, []domain.ControlState{domain.ControlStateCompleted}, SectionMonitoring},
		{"urgent with completed control is monitoring", domain.SeverityUrgent, []domain.ControlState{domain.ControlStateCompleted}, SectionMonitoring},
		{"high without controls is monitoring", domain.SeverityHigh, nil, SectionMonitoring},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ids []string
			var controls []domain.Control
			for i, s := range tt.states {
				id := fmt.Sprintf("c%d", i)
				ids = append(ids, id)
				controls = append(controls, control(id, s))
			}
			q, err := Build([]domain.Risk{risk("r1", tt.severity, ids...)}, controls)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if q.Items[0].Section != tt.want {
				t.Errorf("section = %s, want %s", q.Items[0].Section, tt.want)
			}
		})
	}
}

func TestBuild_RecommendationRanking(t *testing.T) {
	risks := []domain.Risk{risk("r1", domain.SeverityHigh, "c1", "c2", "c3", "c4")}
	controls := []domain.Control{
		control("c1", domain.ControlStateCompleted),
		control("c2", domain.ControlStateNeedsReview),
		control("c3", domain.ControlStatePending),
		control("c4", domain.ControlStatePending),
	}
	q, err := Build(risks, controls)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := q.Items[0].Recommendation; got == nil || got.ID != "c3" {
		t.Errorf("recommendation = %+v, want c3 (first pending in link order)", got)
	}
}

func TestBuildLinks_SymmetricAndDeduplicated(t *testing.T) {
	risks := []domain.Risk{
		risk("r1", domain.SeverityHigh, "c2", "c1"),
		risk("r2", domain.SeverityNormal),
	}
	controls := []domain.Control{
		control("c1", domain.ControlStatePending, "r1"),
		control("c3", domain.ControlStatePending, "r1", "r2"),
		control("c4", domain.ControlStatePending, "unknown-risk"),
	}

	links := BuildLinks(risks, controls)
	if want := []string{"c2", "c1", "c3"}; !reflect.DeepEqual(links["r1"], want) {
		t.Errorf("r1 links = %v, want %v", links["r1"], want)
	}
	if want := []string{"c3"}; !reflect.DeepEqual(links["r2"], want) {
		t.Errorf("r2 links = %v, want %v", links["r2"], want)
	}
	if _, ok := links["unknown-risk"]; ok {
		t.Error("links should only be keyed by supplied risks")
	}
}

func TestBuild_ControlSideLinkCounts(t *testing.T) {
	// the risk lists nothing but an active control points at it
	risks := []domain.Risk{risk("r1", domain.SeverityUrgent)}
	controls := []domain.Control{control("c1", domain.ControlStateActive, "r1")}

	q, err := Build(risks, controls)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if q.Items[0].Section != SectionBeingHandled {
		t.Errorf("section = %s, want being_handled", q.Items[0].Section)
	}
}

func TestBuild_PartitionInvariant(t *testing.T) {
	severities := []domain.Severity{domain.SeverityUrgent, domain.SeverityHigh, domain.SeverityNormal}
	states := []domain.ControlState{domain.ControlStatePending, domain.ControlStateActive, domain.ControlStateCompleted, domain.ControlStateNeedsReview}

	var risks []domain.Risk
	var controls []domain.Control
	for i := 0; i < 40; i++ {
		r := risk(fmt.Sprintf("r%d", i), severities[i%3])
		if i%5 == 0 {
			r.Status = domain.RiskStatusDismissed
		}
		for j := 0; j < i%4; j++ {
			cid := fmt.Sprintf("c%d-%d", i, j)
			r.LinkedControlIDs = append(r.LinkedControlIDs, cid)
			controls = append(controls, control(cid, states[(i+j)%4]))
		}
		risks = append(risks, r)
	}

	q, err := Build(risks, controls)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	active := 0
	for _, r := range risks {
		if r.Status != domain.RiskStatusDismissed {
			active++
		}
	}

	s := q.Summary
	if s.RequiresDecision+s.BeingHandled+s.Monitoring != active || s.Total != active {
		t.Errorf("summary %+v does not partition %d risks", s, active)
	}
	seen := make(map[string]bool)
	for _, it := range q.Items {
		if seen[it.ID] {
			t.Errorf("risk %s appears twice", it.ID)
		}
		seen[it.ID] = true
		if it.Alert.Status == domain.RiskStatusDismissed {
			t.Errorf("dismissed risk %s in queue", it.ID)
		}
	}
}

func TestBuild_Ordering(t *testing.T) {
	risks := []domain.Risk{
		risk("monitor-high", domain.SeverityHigh),
		risk("decide-normal", domain.SeverityNormal, "p1"),
		risk("handled", domain.SeverityNormal, "a1"),
		risk("decide-urgent", domain.SeverityUrgent),
		risk("decide-normal-2", domain.SeverityNormal, "p2"),
	}
	controls := []domain.Control{
		control("p1", domain.ControlStatePending),
		control("a1", domain.ControlStateActive),
		control("p2", domain.ControlStateNeedsReview),
	}

	q, err := Build(risks, controls)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var got []string
	for _, it := range q.Items {
		got = append(got, it.ID)
	}
	want := []string{"decide-urgent", "decide-normal", "decide-normal-2", "handled", "monitor-high"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if len(q.Section(SectionRequiresDecision)) != 3 {
		t.Errorf("requires_decision section size = %d", len(q.Section(SectionRequiresDecision)))
	}
}

func TestBuild_DanglingControlIsNotFound(t *testing.T) {
	_, err := Build([]domain.Risk{risk("r1", domain.SeverityHigh, "ghost")}, nil)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBuild_UnknownValuesAreValidationErrors(t *testing.T) {
	_, err := Build([]domain.Risk{risk("r1", domain.Severity("critical"))}, nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("unknown severity: expected ErrValidation, got %v", err)
	}

	_, err = Build([]domain.Risk{risk("r1", domain.SeverityHigh, "c1")}, []domain.Control{control("c1", "paused")})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("unknown state: expected ErrValidation, got %v", err)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	risks := []domain.Risk{risk("r1", domain.SeverityUrgent, "c1"), risk("r2", domain.SeverityNormal)}
	controls := []domain.Control{control("c1", domain.ControlStatePending, "r2")}

	a, err := Build(risks, controls)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	b, _ := Build(risks, controls)
	if !reflect.DeepEqual(a, b) {
		t.Error("Build is not idempotent")
	}
}
