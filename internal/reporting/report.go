package reporting

import (
	"time"

	"tamio-engine/internal/dangerzone"
	"tamio-engine/internal/fixes"
	"tamio-engine/internal/insight"
	"tamio-engine/internal/queue"
)

// Report is a user's decision snapshot: the queue, the fixes for every
// item that needs a decision, the danger zone and the forecast insights.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	UserID      string    `json:"user_id"`

	Queue      queue.Queue            `json:"queue"`
	Fixes      []fixes.RiskFixes      `json:"fixes"`
	DangerZone *dangerzone.DangerZone `json:"danger_zone"` // nil when no week is below the buffer
	Insights   []insight.Insight      `json:"insights"`
}
