// Package queue classifies risks and their mitigations into the three
// sections of the decision queue.
package queue

import (
	"sort"

	"tamio-engine/internal/domain"
)

// Section is one of the three queue buckets.
type Section string

const (
	SectionRequiresDecision Section = "requires_decision"
	SectionBeingHandled     Section = "being_handled"
	SectionMonitoring       Section = "monitoring"
)

// Sections lists the sections in display order.
var Sections = []Section{SectionRequiresDecision, SectionBeingHandled, SectionMonitoring}

func sectionRank(s Section) int {
	switch s {
	case SectionRequiresDecision:
		return 0
	case SectionBeingHandled:
		return 1
	default:
		return 2
	}
}

// Item is one risk placed in the queue. ID equals the risk id.
type Item struct {
	ID             string           `json:"id"`
	Section        Section          `json:"section"`
	Alert          domain.Risk      `json:"alert"`
	Recommendation *domain.Control  `json:"recommendation"`
	Controls       []domain.Control `json:"linked_controls"` // in link order
}

// Summary counts items per section.
type Summary struct {
	RequiresDecision int `json:"requires_decision"`
	BeingHandled     int `json:"being_handled"`
	Monitoring       int `json:"monitoring"`
	Total            int `json:"total"`
}

// Queue is the result of one build. It is recomputed from scratch whenever
// risks or controls change.
type Queue struct {
	Items   []Item  `json:"items"`
	Summary Summary `json:"summary"`
}

// Section returns the items of one section in queue order.
func (q Queue) Section(s Section) []Item {
	var out []Item
	for _, it := range q.Items {
		if it.Section == s {
			out = append(out, it)
		}
	}
	return out
}

// Build derives the links from both sides and builds the queue.
func Build(risks []domain.Risk, controls []domain.Control) (Queue, error) {
	return BuildWithLinks(risks, controls, BuildLinks(risks, controls))
}

// BuildWithLinks classifies every non-dismissed risk into exactly one
// section using a precomputed RiskControlMap.
//
// Items are ordered by section (requires_decision, being_handled,
// monitoring), then severity (urgent first), then input order.
func BuildWithLinks(risks []domain.Risk, controls []domain.Control, links RiskControlMap) (Queue, error) {
	byID := make(map[string]domain.Control, len(controls))
	for _, c := range controls {
		if c.ID == "" {
			return Queue{}, domain.Invalid("control.id", "must not be empty")
		}
		if !c.State.Valid() {
			return Queue{}, domain.Invalid("control.state", "unknown state %q on control %s", c.State, c.ID)
		}
		byID[c.ID] = c
	}

	seen := make(map[string]struct{}, len(risks))
	items := make([]Item, 0, len(risks))

	for _, r := range risks {
		if r.Status == domain.RiskStatusDismissed {
			continue
		}
		if r.ID == "" {
			return Queue{}, domain.Invalid("risk.id", "must not be empty")
		}
		if _, dup := seen[r.ID]; dup {
			return Queue{}, domain.Invalid("risk.id", "duplicate risk %s", r.ID)
		}
		seen[r.ID] = struct{}{}
		if !r.Severity.Valid() {
			return Queue{}, domain.Invalid("risk.severity", "unknown severity %q on risk %s", r.Severity, r.ID)
		}

		linked := make([]domain.Control, 0, len(links[r.ID]))
		for _, cid := range links[r.ID] {
			c, ok := byID[cid]
			if !ok {
				return Queue{}, domain.Missing("control", cid)
			}
			linked = append(linked, c)
		}

		items = append(items, Item{
			ID:             r.ID,
			Section:        classify(r, linked),
			Alert:          r,
			Recommendation: recommend(linked),
			Controls:       linked,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		si, sj := sectionRank(items[i].Section), sectionRank(items[j].Section)
		if si != sj {
			return si < sj
		}
		return domain.CompareSeverity(items[i].Alert.Severity, items[j].Alert.Severity) > 0
	})

	return Queue{Items: items, Summary: summarize(items)}, nil
}

// classify applies the section rules in priority order.
func classify(r domain.Risk, linked []domain.Control) Section {
	actionable := false
	for _, c := range linked {
		if c.State == domain.ControlStateActive {
			return SectionBeingHandled
		}
		if c.State.Actionable() {
			actionable = true
		}
	}
	if actionable {
		return SectionRequiresDecision
	}
	if r.Severity == domain.SeverityUrgent && len(linked) == 0 {
		return SectionRequiresDecision
	}
	return SectionMonitoring
}

// recommend picks the highest-ranked control by state; ties keep link order.
func recommend(linked []domain.Control) *domain.Control {
	if len(linked) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(linked); i++ {
		if domain.CompareControlState(linked[i].State, linked[best].State) > 0 {
			best = i
		}
	}
	c := linked[best]
	return &c
}

func summarize(items []Item) Summary {
	var s Summary
	for _, it := range items {
		switch it.Section {
		case SectionRequiresDecision:
			s.RequiresDecision++
		case SectionBeingHandled:
			s.BeingHandled++
		case SectionMonitoring:
			s.Monitoring++
		}
	}
	s.Total = len(items)
	return s
}
