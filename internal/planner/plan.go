package planner

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	yaml "go.yaml.in/yaml/v3"

	"carepilot/internal/runout"
)

// Plan is the care plan file: everything the caregiver tracks for one care
// recipient. The file is YAML and decoded strictly, matching the config
// loader's behavior.
type Plan struct {
	// Timezone overrides the config-level zone for every entry that does not
	// carry its own.
	Timezone string `yaml:"timezone,omitempty"`

	Appointments []Appointment `yaml:"appointments,omitempty"`
	Medications  []Medication  `yaml:"medications,omitempty"`
	FollowUps    []FollowUp    `yaml:"follow_ups,omitempty"`
}

// Appointment is one upcoming visit in local wall-clock time.
type Appointment struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title,omitempty"`
	Date     string `yaml:"date"` // "YYYY-MM-DD"
	Time     string `yaml:"time"` // "HH:mm"
	Timezone string `yaml:"timezone,omitempty"`
	// OffsetHours overrides the configured lead times for this appointment.
	OffsetHours []float64 `yaml:"offset_hours,omitempty"`
}

// Medication couples the regimen facts the estimator needs with the
// scheduling knobs for its refill reminders.
type Medication struct {
	Regimen runout.RegimenInput `yaml:",inline"`

	Timezone         string    `yaml:"timezone,omitempty"`
	RefillTimeOfDay  string    `yaml:"refill_time_of_day,omitempty"`
	RefillDaysBefore []float64 `yaml:"refill_days_before,omitempty"`
}

// FollowUp is an explicitly promised check-in.
type FollowUp struct {
	ID       string `yaml:"id"`
	Note     string `yaml:"note,omitempty"`
	Date     string `yaml:"date"` // "YYYY-MM-DD"
	Time     string `yaml:"time"` // "HH:mm"
	Timezone string `yaml:"timezone,omitempty"`
}

// LoadPlan reads and strictly decodes a care plan file.
func LoadPlan(path string) (*Plan, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePlan(b)
}

// ParsePlan strictly decodes care plan content. Unknown keys fail the load
// so a typo never silently drops a reminder.
func ParsePlan(raw []byte) (*Plan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var p Plan
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("plan decode: %w", err)
	}
	if err := checkIDs(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// checkIDs rejects duplicate entry ids. Job names derive from ids, so a
// duplicate would make two entries silently share reminders.
func checkIDs(p *Plan) error {
	seen := map[string]string{}
	add := func(kind, id string) error {
		id = strings.TrimSpace(id)
		if id == "" {
			return fmt.Errorf("plan: %s entry with empty id", kind)
		}
		k := kind + "/" + id
		if _, ok := seen[k]; ok {
			return fmt.Errorf("plan: duplicate %s id %q", kind, id)
		}
		seen[k] = kind
		return nil
	}
	for _, a := range p.Appointments {
		if err := add("appointment", a.ID); err != nil {
			return err
		}
	}
	for _, m := range p.Medications {
		if err := add("medication", m.Regimen.MedicationID); err != nil {
			return err
		}
	}
	for _, f := range p.FollowUps {
		if err := add("follow_up", f.ID); err != nil {
			return err
		}
	}
	return nil
}
