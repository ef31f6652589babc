package planner

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"carepilot/internal/notify"
	"carepilot/internal/reminder"
	"carepilot/internal/runout"
	"carepilot/internal/tzresolve"
	logx "carepilot/pkg/logx"
)

// Scheduler is the slice of the trigger service the planner needs.
type Scheduler interface {
	ScheduleOnce(name string, at time.Time, job func(ctx context.Context) error) error
	Prune(keep map[string]bool) []string
}

// Deliverer sends one fired reminder.
type Deliverer interface {
	Deliver(ctx context.Context, m notify.Message) error
}

// Defaults are the config-level fallbacks applied to plan entries that do
// not carry their own values.
type Defaults struct {
	Timezone               string
	AppointmentOffsetHours []float64
	RefillDaysBefore       []float64
	RefillTimeOfDay        string
}

// Options wires a Planner.
type Options struct {
	Resolver  *tzresolve.Resolver
	Estimator *runout.Estimator
	Scheduler Scheduler
	Deliverer Deliverer
	Defaults  Defaults
	Log       logx.Logger
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Planner turns a care plan into scheduled reminder jobs.
type Planner struct {
	resolver  *tzresolve.Resolver
	estimator *runout.Estimator
	sched     Scheduler
	deliver   Deliverer
	log       logx.Logger
	now       func() time.Time

	dmu      sync.RWMutex
	defaults Defaults
}

func New(opts Options) *Planner {
	log := opts.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	est := opts.Estimator
	if est == nil {
		est = runout.NewEstimator()
	}
	return &Planner{
		resolver:  opts.Resolver,
		estimator: est,
		sched:     opts.Scheduler,
		deliver:   opts.Deliverer,
		defaults:  opts.Defaults,
		log:       log,
		now:       now,
	}
}

// SetDefaults swaps the config-level fallbacks, used on config hot-reload.
func (p *Planner) SetDefaults(d Defaults) {
	p.dmu.Lock()
	p.defaults = d
	p.dmu.Unlock()
}

func (p *Planner) getDefaults() Defaults {
	p.dmu.RLock()
	defer p.dmu.RUnlock()
	return p.defaults
}

// Rebuild re-plans every reminder from the plan and prunes jobs whose plan
// entries are gone. Entries are isolated: a failing entry is recorded in the
// report and the rest of the plan still schedules.
func (p *Planner) Rebuild(ctx context.Context, plan *Plan) *Report {
	now := p.now().UTC()
	report := &Report{GeneratedAt: now}
	keep := map[string]bool{}

	for _, a := range plan.Appointments {
		p.planAppointment(report, keep, plan, a, now)
	}
	for _, m := range plan.Medications {
		p.planMedication(report, keep, plan, m, now)
	}
	for _, f := range plan.FollowUps {
		p.planFollowUp(report, keep, plan, f, now)
	}

	report.Removed = p.sched.Prune(keep)
	p.log.Info("plan rebuilt",
		logx.Int("planned", len(report.Planned)),
		logx.Int("skipped", len(report.Skipped)),
		logx.Int("removed", len(report.Removed)))
	return report
}

func (p *Planner) planAppointment(report *Report, keep map[string]bool, plan *Plan, a Appointment, now time.Time) {
	offsets := a.OffsetHours
	if offsets == nil {
		offsets = p.getDefaults().AppointmentOffsetHours
	}
	drafts, err := reminder.BuildAppointmentReminders(p.resolver, reminder.AppointmentInput{
		ID:          a.ID,
		TimeZone:    p.zoneFor(plan, a.Timezone),
		Date:        a.Date,
		Time:        a.Time,
		OffsetHours: offsets,
	})
	if err != nil {
		report.skip("appointment", a.ID, err.Error())
		p.log.Warn("appointment skipped", logx.String("id", a.ID), logx.Err(err))
		return
	}
	label := a.Title
	if strings.TrimSpace(label) == "" {
		label = a.ID
	}
	text := fmt.Sprintf("Upcoming appointment: %s on %s at %s", label, a.Date, a.Time)
	p.scheduleDrafts(report, keep, drafts, "appointment", a.ID, text, 0, now)
}

func (p *Planner) planMedication(report *Report, keep map[string]bool, plan *Plan, m Medication, now time.Time) {
	id := m.Regimen.MedicationID
	est := p.estimator.Estimate(m.Regimen, now)
	report.Estimates = append(report.Estimates, est)

	label := m.Regimen.Name
	if strings.TrimSpace(label) == "" {
		label = id
	}
	defaults := p.getDefaults()
	zone := p.zoneFor(plan, m.Timezone)
	tod := m.RefillTimeOfDay
	if strings.TrimSpace(tod) == "" {
		tod = defaults.RefillTimeOfDay
	}
	if strings.TrimSpace(tod) == "" {
		tod = reminder.DefaultRefillTimeOfDay
	}

	switch {
	case est.RequiresConfirmation:
		report.skip("refill", id, "estimate requires confirmation")
		p.log.Info("refill reminders held pending confirmation",
			logx.String("medication", id),
			logx.Float64("confidence", est.Confidence))
	case est.RunoutDate == nil:
		report.skip("refill", id, "no run-out estimate")
	default:
		days := m.RefillDaysBefore
		if days == nil {
			days = defaults.RefillDaysBefore
		}
		drafts, err := reminder.BuildRefillReminders(p.resolver, reminder.RefillInput{
			MedicationID: id,
			TimeZone:     zone,
			RunoutDate:   est.RunoutDate.Key(),
			TimeOfDay:    tod,
			DaysBefore:   days,
		})
		if err != nil {
			report.skip("refill", id, err.Error())
			p.log.Warn("refill reminders skipped", logx.String("medication", id), logx.Err(err))
		} else {
			text := fmt.Sprintf("Refill %s: projected run-out on %s", label, est.RunoutDate.Key())
			p.scheduleDrafts(report, keep, drafts, "refill", id, text, 0, now)
		}
	}

	// The supply check-in is scheduled regardless; it is the safety net when
	// the estimate is too uncertain for refill reminders.
	draft, err := reminder.BuildFollowUpReminder(p.resolver, reminder.FollowUpInput{
		ID:       id + "-supply",
		TimeZone: zone,
		Date:     est.FollowUpDate.Key(),
		Time:     tod,
	})
	if err != nil {
		report.skip("follow_up", id, err.Error())
		p.log.Warn("supply follow-up skipped", logx.String("medication", id), logx.Err(err))
		return
	}
	text := fmt.Sprintf("Check in about %s supply", label)
	priority := 0
	if est.RequiresConfirmation {
		text = fmt.Sprintf("Confirm %s regimen: run-out estimate needs review", label)
		priority = 5
	}
	p.scheduleDrafts(report, keep, []reminder.Draft{draft}, "follow_up", id, text, priority, now)
}

func (p *Planner) planFollowUp(report *Report, keep map[string]bool, plan *Plan, f FollowUp, now time.Time) {
	draft, err := reminder.BuildFollowUpReminder(p.resolver, reminder.FollowUpInput{
		ID:       f.ID,
		TimeZone: p.zoneFor(plan, f.Timezone),
		Date:     f.Date,
		Time:     f.Time,
	})
	if err != nil {
		report.skip("follow_up", f.ID, err.Error())
		p.log.Warn("follow-up skipped", logx.String("id", f.ID), logx.Err(err))
		return
	}
	text := f.Note
	if strings.TrimSpace(text) == "" {
		text = "Follow-up: " + f.ID
	}
	p.scheduleDrafts(report, keep, []reminder.Draft{draft}, "follow_up", f.ID, text, 0, now)
}

func (p *Planner) scheduleDrafts(report *Report, keep map[string]bool, drafts []reminder.Draft, kind, entityID, text string, priority int, now time.Time) {
	for _, d := range drafts {
		fireAt, err := d.FireAt()
		if err != nil {
			report.skip(kind, entityID, fmt.Sprintf("%s: %v", d.JobID, err))
			continue
		}
		if fireAt.Before(now) {
			report.skip(kind, entityID, d.JobID+": fire instant already elapsed")
			continue
		}
		if d.AmbiguousLocalTime {
			p.log.Warn("local time ambiguous, using earliest occurrence",
				logx.String("job", d.JobID),
				logx.Time("fire_at", fireAt))
		}

		msg := notify.Message{
			JobID:        d.JobID,
			DedupeKey:    d.DedupeKey,
			Kind:         kind,
			EntityID:     entityID,
			LocalDateKey: d.LocalDateKey,
			FireAt:       fireAt,
			Text:         text,
			Priority:     priority,
		}
		if err := p.sched.ScheduleOnce(d.JobID, fireAt, func(ctx context.Context) error {
			return p.deliver.Deliver(ctx, msg)
		}); err != nil {
			report.skip(kind, entityID, fmt.Sprintf("%s: %v", d.JobID, err))
			continue
		}
		keep[d.JobID] = true
		report.Planned = append(report.Planned, PlannedJob{
			JobID:        d.JobID,
			Kind:         kind,
			EntityID:     entityID,
			FireAt:       fireAt,
			LocalDateKey: d.LocalDateKey,
			Resolution:   string(d.Resolution),
			Ambiguous:    d.AmbiguousLocalTime,
		})
	}
}

func (p *Planner) zoneFor(plan *Plan, entryZone string) string {
	if z := strings.TrimSpace(entryZone); z != "" {
		return z
	}
	if z := strings.TrimSpace(plan.Timezone); z != "" {
		return z
	}
	return p.getDefaults().Timezone
}
