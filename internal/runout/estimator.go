package runout

import (
	"fmt"
	"math"
	"strings"
	"time"

	"carepilot/internal/localclock"
)

// minDailyUse floors the effective usage rate to keep the days-remaining
// division from blowing up on tiny or heavily missed regimens.
const minDailyUse = 0.1

// Estimator computes run-out predictions. "now" is injected per call so the
// estimator stays a pure function and tests stay deterministic.
type Estimator struct{}

func NewEstimator() *Estimator { return &Estimator{} }

// Estimate computes the run-out prediction for one medication.
//
// It never returns an error: inputs too weak to predict from produce a valid
// Estimate with a nil run-out date, RequiresConfirmation set, a fixed low
// confidence, and a rationale entry saying why. The rationale records every
// inference and decision in order and is part of the contract.
func (e *Estimator) Estimate(in RegimenInput, now time.Time) Estimate {
	var rationale []string
	inferred := 0

	regimen := in.RegimenType
	if regimen == "" {
		regimen = inferRegimen(in)
		rationale = append(rationale, fmt.Sprintf("regimen_type not provided; inferred %q", regimen))
	}

	status := strings.ToLower(strings.TrimSpace(in.Status))

	// Early exits: each produces a "do not act autonomously" estimate with a
	// fixed confidence and a near-term follow-up. No further computation.
	if status == "paused" || status == "held" {
		rationale = append(rationale, "medication is "+status+"; run-out prediction suspended")
		return e.declined(in, now, 0.25, 7, rationale)
	}
	if regimen == RegimenPRN {
		rationale = append(rationale, "as-needed (PRN) regimen has no usable daily rate")
		return e.declined(in, now, 0.30, 3, rationale)
	}
	if strings.TrimSpace(in.LastFillDate) == "" || in.QuantityDispensed == nil {
		rationale = append(rationale, "missing last_fill_date or quantity_dispensed")
		return e.declined(in, now, 0.35, 3, rationale)
	}
	fillDate, err := localclock.ParseDate(in.LastFillDate)
	if err != nil {
		rationale = append(rationale, fmt.Sprintf("last_fill_date %q is not a valid date", in.LastFillDate))
		return e.declined(in, now, 0.30, 3, rationale)
	}

	var baseDailyUse float64
	switch regimen {
	case RegimenTaper:
		usable := usableSegments(in.TaperSegments)
		if len(usable) == 0 {
			rationale = append(rationale, "taper regimen has no usable segments")
			return e.declined(in, now, 0.25, 2, rationale)
		}
		if len(usable) < len(in.TaperSegments) {
			rationale = append(rationale, fmt.Sprintf("ignored %d unusable taper segment(s)", len(in.TaperSegments)-len(usable)))
		}
		baseDailyUse = taperWeightedMean(usable)
		rationale = append(rationale, fmt.Sprintf("taper: duration-weighted mean dose %.3f/day over %d segment(s)", baseDailyUse, len(usable)))

	case RegimenNonDaily:
		switch {
		case in.ScheduleIntervalDays != nil && isFinitePositive(*in.ScheduleIntervalDays):
			baseDailyUse = 1 / *in.ScheduleIntervalDays
			rationale = append(rationale, fmt.Sprintf("non-daily: 1 dose per %.0f day(s)", *in.ScheduleIntervalDays))
		case in.FrequencyPerDay != nil && isFinitePositive(*in.FrequencyPerDay):
			baseDailyUse = *in.FrequencyPerDay
			inferred++
			rationale = append(rationale, "non-daily: schedule_interval_days missing; inferred rate from frequency_per_day")
		default:
			rationale = append(rationale, "non-daily regimen has neither schedule_interval_days nor frequency_per_day")
			return e.declined(in, now, 0.30, 3, rationale)
		}

	default: // daily
		if in.FrequencyPerDay == nil || !isFinitePositive(*in.FrequencyPerDay) {
			rationale = append(rationale, "daily regimen has no positive frequency_per_day")
			return e.declined(in, now, 0.35, 3, rationale)
		}
		baseDailyUse = *in.FrequencyPerDay
		rationale = append(rationale, fmt.Sprintf("daily: %.2f dose(s)/day", baseDailyUse))
	}

	missed := 0.0
	if in.MissedDosesEstimate != nil {
		missed = *in.MissedDosesEstimate
	} else {
		inferred++
		rationale = append(rationale, "missed_doses_estimate missing; assumed 0")
	}
	missedAdjustment := math.Max(0, missed/30)
	if missedAdjustment > 0 {
		rationale = append(rationale, fmt.Sprintf("reduced daily use by %.3f for estimated missed doses", missedAdjustment))
	}

	effectiveDailyUse := math.Max(minDailyUse, baseDailyUse-missedAdjustment)

	var availableQuantity float64
	if in.RemainingPillsReported != nil && *in.RemainingPillsReported >= 0 {
		availableQuantity = *in.RemainingPillsReported
		rationale = append(rationale, fmt.Sprintf("using reported remaining supply of %.0f", availableQuantity))
	} else {
		availableQuantity = *in.QuantityDispensed
		inferred++
		rationale = append(rationale, "remaining supply not reported; assumed full dispensed quantity")
	}

	estimatedDaysTotal := availableQuantity / effectiveDailyUse

	fillMidnight := time.Date(fillDate.Year, time.Month(fillDate.Month), fillDate.Day, 0, 0, 0, 0, time.UTC)
	runoutAt := fillMidnight.Add(time.Duration(estimatedDaysTotal * 24 * float64(time.Hour)))
	runoutDate := localclock.Date{Year: runoutAt.Year(), Month: int(runoutAt.Month()), Day: runoutAt.Day()}
	rationale = append(rationale, fmt.Sprintf("projected run-out %s at %.2f day(s) of supply", runoutDate.Key(), estimatedDaysTotal))

	// Follow up shortly before the projected run-out, but never earlier than
	// tomorrow.
	followUpOffsetDays := 2
	if estimatedDaysTotal > 10 {
		followUpOffsetDays = int(math.Max(1, math.Floor(estimatedDaysTotal-7)))
	}
	followUp := laterDate(addDays(fillDate, followUpOffsetDays), dateOf(now.UTC().Add(24*time.Hour)))

	confidence := confidenceFromInferred(inferred)
	requiresConfirmation := inferred >= 2
	if inferred > 0 {
		rationale = append(rationale, fmt.Sprintf("%d field(s) inferred; confidence %.2f", inferred, confidence))
	}

	// Rounded for display only; nothing above reads these back.
	displayDays := round2(estimatedDaysTotal)
	displayUse := round3(effectiveDailyUse)

	return Estimate{
		MedicationID:         in.MedicationID,
		RunoutDate:           &runoutDate,
		EstimatedDaysTotal:   &displayDays,
		EffectiveDailyUse:    &displayUse,
		Confidence:           confidence,
		ConfidenceLabel:      Label(confidence),
		RequiresConfirmation: requiresConfirmation,
		FollowUpDate:         followUp,
		Rationale:            rationale,
	}
}

// declined builds the early-exit estimate: no prediction, fixed confidence,
// follow up in followUpDays.
func (e *Estimator) declined(in RegimenInput, now time.Time, confidence float64, followUpDays int, rationale []string) Estimate {
	return Estimate{
		MedicationID:         in.MedicationID,
		Confidence:           confidence,
		ConfidenceLabel:      Label(confidence),
		RequiresConfirmation: true,
		FollowUpDate:         dateOf(now.UTC().Add(time.Duration(followUpDays) * 24 * time.Hour)),
		Rationale:            rationale,
	}
}

// inferRegimen guesses the regimen when none was provided. An explicit
// RegimenType always wins over this.
func inferRegimen(in RegimenInput) RegimenType {
	status := strings.ToLower(in.Status)
	switch {
	case strings.Contains(status, "prn"):
		return RegimenPRN
	case strings.Contains(status, "taper"):
		return RegimenTaper
	case in.FrequencyPerDay != nil && *in.FrequencyPerDay > 0 && *in.FrequencyPerDay < 1:
		return RegimenNonDaily
	default:
		return RegimenDaily
	}
}

func usableSegments(segs []TaperSegment) []TaperSegment {
	out := make([]TaperSegment, 0, len(segs))
	for _, s := range segs {
		if !isFinite(s.Dose) || !isFinite(s.DurationDays) || s.DurationDays <= 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

// taperWeightedMean is the duration-weighted mean dose over the segments.
func taperWeightedMean(segs []TaperSegment) float64 {
	var doseDays, days float64
	for _, s := range segs {
		doseDays += s.Dose * s.DurationDays
		days += s.DurationDays
	}
	return doseDays / days
}

func confidenceFromInferred(inferred int) float64 {
	switch inferred {
	case 0:
		return 0.9
	case 1:
		return 0.65
	default:
		return 0.4
	}
}

func isFinite(v float64) bool         { return !math.IsNaN(v) && !math.IsInf(v, 0) }
func isFinitePositive(v float64) bool { return isFinite(v) && v > 0 }

func dateOf(t time.Time) localclock.Date {
	return localclock.Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

func addDays(d localclock.Date, days int) localclock.Date {
	shifted, _ := localclock.AddMinutes(d, localclock.Time{}, days*24*60)
	return shifted
}

func laterDate(a, b localclock.Date) localclock.Date {
	da := localclock.DateTime{Date: a}
	db := localclock.DateTime{Date: b}
	if da.Compare(db) >= 0 {
		return a
	}
	return b
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
