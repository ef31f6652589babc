package reminder

import (
	"fmt"
	"math"
	"strings"

	"carepilot/internal/localclock"
	"carepilot/internal/tzresolve"
)

// Defaults for the reminder builders. Offsets are clamped per entry with
// max(0, truncate(value)).
var (
	DefaultAppointmentOffsetHours = []float64{24, 2}
	DefaultRefillDaysBefore       = []float64{5, 2, 1}
)

// DefaultRefillTimeOfDay is the local time a refill reminder lands at.
const DefaultRefillTimeOfDay = "09:00"

// AppointmentInput describes one upcoming appointment in the caregiver's
// local wall-clock time.
type AppointmentInput struct {
	ID       string
	TimeZone string
	Date     string // "YYYY-MM-DD"
	Time     string // "HH:mm"
	// OffsetHours lists how many hours before the appointment each reminder
	// fires. Nil means DefaultAppointmentOffsetHours.
	OffsetHours []float64
}

// RefillInput describes a medication whose projected run-out date needs
// lead-time reminders.
type RefillInput struct {
	MedicationID string
	TimeZone     string
	RunoutDate   string // "YYYY-MM-DD"
	TimeOfDay    string // "HH:mm"; blank means DefaultRefillTimeOfDay
	// DaysBefore lists how many days before run-out each reminder fires.
	// Nil means DefaultRefillDaysBefore.
	DaysBefore []float64
}

// FollowUpInput describes a single promised follow-up.
type FollowUpInput struct {
	ID       string
	TimeZone string
	Date     string // "YYYY-MM-DD"
	Time     string // "HH:mm"
}

// BuildAppointmentReminders produces one draft per offset, each resolved to
// the absolute instant offsetHours before the appointment's wall-clock time.
//
// The batch is all-or-nothing: any resolution failure aborts the whole build
// with no partial result.
func BuildAppointmentReminders(r *tzresolve.Resolver, in AppointmentInput) ([]Draft, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, fmt.Errorf("%w: empty appointment id", ErrInvalidArgument)
	}
	date, err := localclock.ParseDate(in.Date)
	if err != nil {
		return nil, err
	}
	tod, err := localclock.ParseTime(in.Time)
	if err != nil {
		return nil, err
	}

	offsets := in.OffsetHours
	if offsets == nil {
		offsets = DefaultAppointmentOffsetHours
	}

	drafts := make([]Draft, 0, len(offsets))
	for _, raw := range offsets {
		hours := clampOffset(raw)
		d, t := localclock.AddMinutes(date, tod, -hours*60)
		resolved, err := r.ResolveLocal(in.TimeZone, localclock.DateTime{Date: d, Time: t})
		if err != nil {
			return nil, err
		}

		jobID := fmt.Sprintf("carepilot-appointment-%s-%dh", id, hours)
		key, err := DedupeKey(jobID, resolved.LocalDateKey)
		if err != nil {
			return nil, err
		}
		text := fmt.Sprintf("carepilot_reminder kind=appointment appointment_id=%s offset_hours=%d", id, hours)
		drafts = append(drafts, Draft{
			JobID:              jobID,
			DedupeKey:          key,
			LocalDateKey:       resolved.LocalDateKey,
			Resolution:         resolved.Resolution,
			AmbiguousLocalTime: resolved.AmbiguousLocalTime,
			Job:                newJobSpec(jobID, resolved.UTCInstant, text),
		})
	}
	return drafts, nil
}

// BuildRefillReminders produces one draft per lead-time entry, each resolved
// to the refill time-of-day daysBefore days ahead of the run-out date.
// Same all-or-nothing batch semantics as appointments.
func BuildRefillReminders(r *tzresolve.Resolver, in RefillInput) ([]Draft, error) {
	id := strings.TrimSpace(in.MedicationID)
	if id == "" {
		return nil, fmt.Errorf("%w: empty medication id", ErrInvalidArgument)
	}
	date, err := localclock.ParseDate(in.RunoutDate)
	if err != nil {
		return nil, err
	}
	todRaw := in.TimeOfDay
	if strings.TrimSpace(todRaw) == "" {
		todRaw = DefaultRefillTimeOfDay
	}
	tod, err := localclock.ParseTime(todRaw)
	if err != nil {
		return nil, err
	}

	days := in.DaysBefore
	if days == nil {
		days = DefaultRefillDaysBefore
	}

	drafts := make([]Draft, 0, len(days))
	for _, raw := range days {
		lead := clampOffset(raw)
		d, t := localclock.AddMinutes(date, tod, -lead*24*60)
		resolved, err := r.ResolveLocal(in.TimeZone, localclock.DateTime{Date: d, Time: t})
		if err != nil {
			return nil, err
		}

		jobID := fmt.Sprintf("carepilot-refill-%s-%dd", id, lead)
		key, err := DedupeKey(jobID, resolved.LocalDateKey)
		if err != nil {
			return nil, err
		}
		text := fmt.Sprintf("carepilot_reminder kind=refill medication_id=%s days_before=%d", id, lead)
		drafts = append(drafts, Draft{
			JobID:              jobID,
			DedupeKey:          key,
			LocalDateKey:       resolved.LocalDateKey,
			Resolution:         resolved.Resolution,
			AmbiguousLocalTime: resolved.AmbiguousLocalTime,
			Job:                newJobSpec(jobID, resolved.UTCInstant, text),
		})
	}
	return drafts, nil
}

// BuildFollowUpReminder produces the single draft for a promised follow-up,
// with no offset applied.
func BuildFollowUpReminder(r *tzresolve.Resolver, in FollowUpInput) (Draft, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return Draft{}, fmt.Errorf("%w: empty follow-up id", ErrInvalidArgument)
	}
	resolved, err := r.Resolve(in.TimeZone, in.Date, in.Time)
	if err != nil {
		return Draft{}, err
	}

	jobID := "carepilot-followup-" + id
	key, err := DedupeKey(jobID, resolved.LocalDateKey)
	if err != nil {
		return Draft{}, err
	}
	text := "carepilot_reminder kind=follow_up follow_up_id=" + id
	return Draft{
		JobID:              jobID,
		DedupeKey:          key,
		LocalDateKey:       resolved.LocalDateKey,
		Resolution:         resolved.Resolution,
		AmbiguousLocalTime: resolved.AmbiguousLocalTime,
		Job:                newJobSpec(jobID, resolved.UTCInstant, text),
	}, nil
}

// clampOffset normalizes a lead-time entry: truncate toward zero, floor at 0.
// Non-finite values clamp to 0 rather than poisoning the batch.
func clampOffset(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return int(math.Trunc(v))
}
