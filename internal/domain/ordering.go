package domain

// severityRank and controlStateRank back the comparators below and are not
// exported so every caller goes through the same ordering.
func severityRank(s Severity) int {
	switch s {
	case SeverityUrgent:
		return 3
	case SeverityHigh:
		return 2
	case SeverityNormal:
		return 1
	default:
		return 0
	}
}

func controlStateRank(s ControlState) int {
	switch s {
	case ControlStateActive:
		return 4
	case ControlStatePending:
		return 3
	case ControlStateNeedsReview:
		return 2
	case ControlStateCompleted:
		return 1
	default:
		return 0
	}
}

// CompareSeverity returns a positive number when a outranks b,
// negative when b outranks a and 0 when equal.
// Order: urgent > high > normal.
func CompareSeverity(a, b Severity) int {
	return severityRank(a) - severityRank(b)
}

// CompareControlState orders mitigations by how far along they are.
// Order: active > pending > needs_review > completed.
func CompareControlState(a, b ControlState) int {
	return controlStateRank(a) - controlStateRank(b)
}

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool { return severityRank(s) > 0 }

// Valid reports whether s is one of the known control states.
func (s ControlState) Valid() bool { return controlStateRank(s) > 0 }

// Actionable reports whether a control in this state still needs the user.
func (s ControlState) Actionable() bool {
	return s == ControlStatePending || s == ControlStateNeedsReview
}
