package reminder

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"carepilot/internal/localclock"
	"carepilot/internal/tzresolve"
)

// plus7 renders every instant at a fixed UTC+7 offset, no DST.
type plus7 struct{}

func (plus7) Convert(instant time.Time, zone string) (localclock.DateTime, error) {
	lt := instant.Add(7 * time.Hour).UTC()
	return localclock.DateTime{
		Date: localclock.Date{Year: lt.Year(), Month: int(lt.Month()), Day: lt.Day()},
		Time: localclock.Time{Hour: lt.Hour(), Minute: lt.Minute()},
	}, nil
}

func newTestResolver() *tzresolve.Resolver { return tzresolve.New(plus7{}) }

func TestDedupeKey(t *testing.T) {
	t.Parallel()
	got, err := DedupeKey("job-1", "2026-02-10")
	if err != nil {
		t.Fatalf("DedupeKey error: %v", err)
	}
	if got != "job-1:2026-02-10" {
		t.Fatalf("DedupeKey = %q, want job-1:2026-02-10", got)
	}

	// Inputs are trimmed before joining.
	got, err = DedupeKey("  job-1 ", " 2026-02-10 ")
	if err != nil || got != "job-1:2026-02-10" {
		t.Fatalf("trimmed DedupeKey = %q err=%v", got, err)
	}

	if _, err := DedupeKey("", "2026-02-10"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("empty job id error = %v, want ErrInvalidArgument", err)
	}
	if _, err := DedupeKey("job-1", "  "); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("empty date key error = %v, want ErrInvalidArgument", err)
	}
}

func TestBuildAppointmentRemindersDefaults(t *testing.T) {
	t.Parallel()
	drafts, err := BuildAppointmentReminders(newTestResolver(), AppointmentInput{
		ID:       "apt-7",
		TimeZone: "Asia/Plus7",
		Date:     "2026-02-10",
		Time:     "09:00",
	})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("got %d drafts, want 2", len(drafts))
	}

	// Appointment is 2026-02-10T09:00+07:00 = 2026-02-10T02:00Z.
	apptUTC := time.Date(2026, 2, 10, 2, 0, 0, 0, time.UTC)
	wantAt := []time.Time{apptUTC.Add(-24 * time.Hour), apptUTC.Add(-2 * time.Hour)}
	wantID := []string{"carepilot-appointment-apt-7-24h", "carepilot-appointment-apt-7-2h"}
	wantText := []string{
		"carepilot_reminder kind=appointment appointment_id=apt-7 offset_hours=24",
		"carepilot_reminder kind=appointment appointment_id=apt-7 offset_hours=2",
	}
	for i, d := range drafts {
		if d.JobID != wantID[i] {
			t.Fatalf("draft[%d].JobID = %q, want %q", i, d.JobID, wantID[i])
		}
		at, err := d.FireAt()
		if err != nil {
			t.Fatalf("FireAt error: %v", err)
		}
		if !at.Equal(wantAt[i]) {
			t.Fatalf("draft[%d] fires at %v, want %v", i, at, wantAt[i])
		}
		if d.Job.Payload.Text != wantText[i] {
			t.Fatalf("draft[%d].Payload.Text = %q", i, d.Job.Payload.Text)
		}
		if d.DedupeKey != d.JobID+":"+d.LocalDateKey {
			t.Fatalf("draft[%d].DedupeKey = %q", i, d.DedupeKey)
		}
		if d.Job.SessionTarget != SessionMain || d.Job.WakeMode != WakeNextHeartbeat || !d.Job.Enabled {
			t.Fatalf("draft[%d] job defaults wrong: %+v", i, d.Job)
		}
	}
	// 24h before 09:00 on the 10th is 09:00 on the 9th, local calendar.
	if drafts[0].LocalDateKey != "2026-02-09" || drafts[1].LocalDateKey != "2026-02-10" {
		t.Fatalf("local date keys = %q, %q", drafts[0].LocalDateKey, drafts[1].LocalDateKey)
	}
}

func TestBuildAppointmentRemindersClamping(t *testing.T) {
	t.Parallel()
	drafts, err := BuildAppointmentReminders(newTestResolver(), AppointmentInput{
		ID:          "apt-7",
		TimeZone:    "Asia/Plus7",
		Date:        "2026-02-10",
		Time:        "09:00",
		OffsetHours: []float64{2.9, -5},
	})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if drafts[0].JobID != "carepilot-appointment-apt-7-2h" {
		t.Fatalf("truncated offset job id = %q", drafts[0].JobID)
	}
	// Negative offsets clamp to 0: the reminder fires at the appointment itself.
	if drafts[1].JobID != "carepilot-appointment-apt-7-0h" {
		t.Fatalf("clamped offset job id = %q", drafts[1].JobID)
	}
}

func TestBuildAppointmentRemindersErrors(t *testing.T) {
	t.Parallel()
	r := newTestResolver()
	if _, err := BuildAppointmentReminders(r, AppointmentInput{ID: " ", TimeZone: "z", Date: "2026-02-10", Time: "09:00"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("blank id error = %v", err)
	}
	if _, err := BuildAppointmentReminders(r, AppointmentInput{ID: "a", TimeZone: "z", Date: "bad", Time: "09:00"}); !errors.Is(err, localclock.ErrInvalidFormat) {
		t.Fatalf("bad date error = %v", err)
	}
	// Resolver failures propagate unchanged and abort the whole batch.
	if _, err := BuildAppointmentReminders(r, AppointmentInput{ID: "a", TimeZone: "  ", Date: "2026-02-10", Time: "09:00"}); !errors.Is(err, tzresolve.ErrInvalidTimezone) {
		t.Fatalf("blank zone error = %v", err)
	}
}

func TestBuildRefillReminders(t *testing.T) {
	t.Parallel()
	drafts, err := BuildRefillReminders(newTestResolver(), RefillInput{
		MedicationID: "med-9",
		TimeZone:     "Asia/Plus7",
		RunoutDate:   "2026-01-31",
	})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if len(drafts) != 3 {
		t.Fatalf("got %d drafts, want 3", len(drafts))
	}

	wantID := []string{"carepilot-refill-med-9-5d", "carepilot-refill-med-9-2d", "carepilot-refill-med-9-1d"}
	wantKey := []string{"2026-01-26", "2026-01-29", "2026-01-30"}
	for i, d := range drafts {
		if d.JobID != wantID[i] {
			t.Fatalf("draft[%d].JobID = %q, want %q", i, d.JobID, wantID[i])
		}
		if d.LocalDateKey != wantKey[i] {
			t.Fatalf("draft[%d].LocalDateKey = %q, want %q", i, d.LocalDateKey, wantKey[i])
		}
		// Default 09:00 local = 02:00Z at +07.
		at, _ := d.FireAt()
		if at.Hour() != 2 || at.Minute() != 0 {
			t.Fatalf("draft[%d] fires at %v, want 02:00Z", i, at)
		}
	}
	if drafts[0].Job.Payload.Text != "carepilot_reminder kind=refill medication_id=med-9 days_before=5" {
		t.Fatalf("payload = %q", drafts[0].Job.Payload.Text)
	}
}

func TestBuildFollowUpReminder(t *testing.T) {
	t.Parallel()
	d, err := BuildFollowUpReminder(newTestResolver(), FollowUpInput{
		ID:       "fu-3",
		TimeZone: "Asia/Plus7",
		Date:     "2026-02-12",
		Time:     "17:30",
	})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if d.JobID != "carepilot-followup-fu-3" {
		t.Fatalf("JobID = %q", d.JobID)
	}
	if d.Job.Payload.Text != "carepilot_reminder kind=follow_up follow_up_id=fu-3" {
		t.Fatalf("payload = %q", d.Job.Payload.Text)
	}
	want := time.Date(2026, 2, 12, 10, 30, 0, 0, time.UTC)
	at, _ := d.FireAt()
	if !at.Equal(want) {
		t.Fatalf("fires at %v, want %v", at, want)
	}
}

func TestJobSpecWireShape(t *testing.T) {
	t.Parallel()
	d, err := BuildFollowUpReminder(newTestResolver(), FollowUpInput{
		ID:       "fu-3",
		TimeZone: "Asia/Plus7",
		Date:     "2026-02-12",
		Time:     "17:30",
	})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	b, err := json.Marshal(d.Job)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	want := `{"name":"carepilot-followup-fu-3",` +
		`"schedule":{"kind":"at","at":"2026-02-12T10:30:00Z"},` +
		`"sessionTarget":"main","wakeMode":"next-heartbeat",` +
		`"payload":{"kind":"systemEvent","text":"carepilot_reminder kind=follow_up follow_up_id=fu-3"},` +
		`"enabled":true}`
	if string(b) != want {
		t.Fatalf("wire shape mismatch:\n got %s\nwant %s", b, want)
	}
}
