package reminder

import (
	"time"

	"carepilot/internal/tzresolve"
)

// SessionTarget controls which conversation context a fired job runs in.
type SessionTarget string

const (
	SessionMain     SessionTarget = "main"
	SessionIsolated SessionTarget = "isolated"
)

// WakeMode controls when the assistant picks the job up after it fires.
type WakeMode string

const (
	WakeNextHeartbeat WakeMode = "next-heartbeat"
	WakeNow           WakeMode = "now"
)

const (
	ScheduleAt         = "at"
	PayloadSystemEvent = "systemEvent"
)

// Schedule is the one-shot trigger of a job: Kind is always "at" here and At
// is an RFC 3339 UTC instant.
type Schedule struct {
	Kind string `json:"kind"`
	At   string `json:"at"`
}

// Payload is the job action delivered when the schedule fires.
type Payload struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// JobSpec is the wire shape consumed by the downstream job store. Field names
// and casing are part of the contract; do not rename.
type JobSpec struct {
	Name           string        `json:"name"`
	Schedule       Schedule      `json:"schedule"`
	SessionTarget  SessionTarget `json:"sessionTarget"`
	WakeMode       WakeMode      `json:"wakeMode"`
	Payload        Payload       `json:"payload"`
	Enabled        bool          `json:"enabled"`
	DeleteAfterRun bool          `json:"deleteAfterRun,omitempty"`
}

// Draft is a ready-to-enqueue reminder job plus the resolution metadata a
// downstream store needs for deduplication and audit.
type Draft struct {
	JobID              string                   `json:"job_id"`
	DedupeKey          string                   `json:"dedupe_key"`
	LocalDateKey       string                   `json:"local_date_key"`
	Resolution         tzresolve.ResolutionKind `json:"resolution"`
	AmbiguousLocalTime bool                     `json:"ambiguous_local_time"`
	Job                JobSpec                  `json:"job"`
}

// FireAt returns the draft's trigger instant.
func (d Draft) FireAt() (time.Time, error) {
	return time.Parse(time.RFC3339, d.Job.Schedule.At)
}

func newJobSpec(jobID string, at time.Time, payloadText string) JobSpec {
	return JobSpec{
		Name:          jobID,
		Schedule:      Schedule{Kind: ScheduleAt, At: at.UTC().Format(time.RFC3339)},
		SessionTarget: SessionMain,
		WakeMode:      WakeNextHeartbeat,
		Payload:       Payload{Kind: PayloadSystemEvent, Text: payloadText},
		Enabled:       true,
	}
}
