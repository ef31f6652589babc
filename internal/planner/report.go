package planner

import (
	"time"

	"carepilot/internal/runout"
)

// PlannedJob is one reminder that made it onto the schedule.
type PlannedJob struct {
	JobID        string    `json:"job_id"`
	Kind         string    `json:"kind"`
	EntityID     string    `json:"entity_id"`
	FireAt       time.Time `json:"fire_at"`
	LocalDateKey string    `json:"local_date_key"`
	Resolution   string    `json:"resolution"`
	Ambiguous    bool      `json:"ambiguous,omitempty"`
}

// SkippedItem is one entry (or one of its reminders) that was not scheduled,
// with the reason. Skips are per-entry: one bad medication never blocks the
// rest of the plan.
type SkippedItem struct {
	Kind     string `json:"kind"`
	EntityID string `json:"entity_id"`
	Reason   string `json:"reason"`
}

// Report summarizes one plan rebuild.
type Report struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Planned     []PlannedJob      `json:"planned"`
	Skipped     []SkippedItem     `json:"skipped,omitempty"`
	Removed     []string          `json:"removed,omitempty"`
	Estimates   []runout.Estimate `json:"estimates,omitempty"`
}

func (r *Report) skip(kind, entityID, reason string) {
	r.Skipped = append(r.Skipped, SkippedItem{Kind: kind, EntityID: entityID, Reason: reason})
}
