package planner

import (
	"strings"
	"testing"
)

const samplePlan = `
timezone: America/New_York
appointments:
  - id: a1
    title: Cardiology follow-up
    date: "2026-02-10"
    time: "09:00"
    offset_hours: [48, 4]
medications:
  - medication_id: m1
    name: lisinopril
    frequency_per_day: 2
    last_fill_date: "2026-01-01"
    quantity_dispensed: 60
    refill_time_of_day: "08:00"
  - medication_id: m2
    name: prednisone
    regimen_type: taper
    last_fill_date: "2026-01-01"
    quantity_dispensed: 40
    taper_segments:
      - start_date: "2026-01-01"
        dose: 4
        duration_days: 7
      - start_date: "2026-01-08"
        dose: 2
        duration_days: 7
follow_ups:
  - id: f1
    note: Ask about PT exercises
    date: "2026-03-01"
    time: "10:00"
    timezone: America/Chicago
`

func TestParsePlan(t *testing.T) {
	t.Parallel()

	p, err := ParsePlan([]byte(samplePlan))
	if err != nil {
		t.Fatalf("ParsePlan: %v", err)
	}
	if p.Timezone != "America/New_York" {
		t.Fatalf("timezone = %q", p.Timezone)
	}
	if len(p.Appointments) != 1 || len(p.Medications) != 2 || len(p.FollowUps) != 1 {
		t.Fatalf("counts = %d/%d/%d", len(p.Appointments), len(p.Medications), len(p.FollowUps))
	}

	a := p.Appointments[0]
	if a.ID != "a1" || a.Date != "2026-02-10" || len(a.OffsetHours) != 2 || a.OffsetHours[0] != 48 {
		t.Fatalf("appointment = %+v", a)
	}

	m1 := p.Medications[0]
	if m1.Regimen.MedicationID != "m1" || m1.Regimen.FrequencyPerDay == nil || *m1.Regimen.FrequencyPerDay != 2 {
		t.Fatalf("medication = %+v", m1)
	}
	if m1.RefillTimeOfDay != "08:00" {
		t.Fatalf("refill_time_of_day = %q", m1.RefillTimeOfDay)
	}

	m2 := p.Medications[1]
	if len(m2.Regimen.TaperSegments) != 2 || m2.Regimen.TaperSegments[1].Dose != 2 {
		t.Fatalf("taper segments = %+v", m2.Regimen.TaperSegments)
	}

	f := p.FollowUps[0]
	if f.Timezone != "America/Chicago" || !strings.Contains(f.Note, "PT") {
		t.Fatalf("follow-up = %+v", f)
	}
}

func TestParsePlanRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	_, err := ParsePlan([]byte("appointments:\n  - id: a1\n    date: \"2026-02-10\"\n    time: \"09:00\"\n    when: tomorrow\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestParsePlanRejectsDuplicateIDs(t *testing.T) {
	t.Parallel()

	raw := `
appointments:
  - id: a1
    date: "2026-02-10"
    time: "09:00"
  - id: a1
    date: "2026-02-11"
    time: "09:00"
`
	_, err := ParsePlan([]byte(raw))
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("err = %v", err)
	}
}

func TestParsePlanRejectsEmptyID(t *testing.T) {
	t.Parallel()

	_, err := ParsePlan([]byte("follow_ups:\n  - note: hi\n    date: \"2026-03-01\"\n    time: \"10:00\"\n"))
	if err == nil || !strings.Contains(err.Error(), "empty id") {
		t.Fatalf("err = %v", err)
	}
}
