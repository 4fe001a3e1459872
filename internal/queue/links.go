package queue

import "tamio-engine/internal/domain"

// RiskControlMap is the symmetric risk -> control adjacency. Each list is
// deduplicated and ordered: the risk's own linked_control_ids first, then
// controls (in input order) whose linked_risk_ids name the risk.
type RiskControlMap map[string][]string

// BuildLinks merges both one-directional link lists into a RiskControlMap.
// Every risk gets an entry, possibly empty.
func BuildLinks(risks []domain.Risk, controls []domain.Control) RiskControlMap {
	links := make(RiskControlMap, len(risks))
	seen := make(map[string]map[string]struct{}, len(risks))

	add := func(riskID, controlID string) {
		set, ok := seen[riskID]
		if !ok {
			return
		}
		if _, dup := set[controlID]; dup {
			return
		}
		set[controlID] = struct{}{}
		links[riskID] = append(links[riskID], controlID)
	}

	for _, r := range risks {
		if _, ok := seen[r.ID]; !ok {
			seen[r.ID] = make(map[string]struct{})
			links[r.ID] = []string{}
		}
	}
	for _, r := range risks {
		for _, cid := range r.LinkedControlIDs {
			add(r.ID, cid)
		}
	}
	for _, c := range controls {
		for _, rid := range c.LinkedRiskIDs {
			add(rid, c.ID)
		}
	}

	return links
}
