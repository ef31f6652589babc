package runout

import (
	"carepilot/internal/localclock"
)

// RegimenType classifies how a medication is taken.
type RegimenType string

const (
	RegimenDaily    RegimenType = "daily"
	RegimenPRN      RegimenType = "prn"
	RegimenNonDaily RegimenType = "non_daily"
	RegimenTaper    RegimenType = "taper"
)

// TaperSegment is one dated phase of a tapering regimen.
type TaperSegment struct {
	StartDate    string  `json:"start_date" yaml:"start_date"`
	Dose         float64 `json:"dose" yaml:"dose"`
	DurationDays float64 `json:"duration_days" yaml:"duration_days"`
}

// RegimenInput is everything known about one medication's regimen. Optional
// numeric fields are pointers so "absent" and "zero" stay distinguishable;
// absent inputs lower the estimate's confidence rather than erroring.
type RegimenInput struct {
	MedicationID string      `json:"medication_id" yaml:"medication_id"`
	Name         string      `json:"name" yaml:"name"`
	Status       string      `json:"status,omitempty" yaml:"status,omitempty"`
	RegimenType  RegimenType `json:"regimen_type,omitempty" yaml:"regimen_type,omitempty"`

	ScheduleIntervalDays *float64       `json:"schedule_interval_days,omitempty" yaml:"schedule_interval_days,omitempty"`
	TaperSegments        []TaperSegment `json:"taper_segments,omitempty" yaml:"taper_segments,omitempty"`

	LastFillDate      string   `json:"last_fill_date,omitempty" yaml:"last_fill_date,omitempty"`
	QuantityDispensed *float64 `json:"quantity_dispensed,omitempty" yaml:"quantity_dispensed,omitempty"`

	FrequencyPerDay        *float64 `json:"frequency_per_day,omitempty" yaml:"frequency_per_day,omitempty"`
	MissedDosesEstimate    *float64 `json:"missed_doses_estimate,omitempty" yaml:"missed_doses_estimate,omitempty"`
	RemainingPillsReported *float64 `json:"remaining_pills_reported,omitempty" yaml:"remaining_pills_reported,omitempty"`
}

// ConfidenceLabel buckets a confidence score for display and gating.
type ConfidenceLabel string

const (
	ConfidenceHigh   ConfidenceLabel = "high"
	ConfidenceMedium ConfidenceLabel = "medium"
	ConfidenceLow    ConfidenceLabel = "low"
)

// Label derives the bucket from a raw confidence score. The thresholds are
// part of the contract: >=0.85 high, >=0.60 medium, else low.
func Label(confidence float64) ConfidenceLabel {
	switch {
	case confidence >= 0.85:
		return ConfidenceHigh
	case confidence >= 0.60:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Estimate is a calibrated medication run-out prediction.
//
// A nil RunoutDate means the estimator declined to predict (paused/PRN/missing
// data) and a human needs to confirm before any refill reminder is scheduled.
// EstimatedDaysTotal and EffectiveDailyUse are rounded for display (2 and 3
// decimals); the rounding never feeds back into computation.
type Estimate struct {
	MedicationID         string           `json:"medication_id"`
	RunoutDate           *localclock.Date `json:"runout_estimate_date"`
	EstimatedDaysTotal   *float64         `json:"estimated_days_total"`
	EffectiveDailyUse    *float64         `json:"effective_daily_use"`
	Confidence           float64          `json:"confidence"`
	ConfidenceLabel      ConfidenceLabel  `json:"confidence_label"`
	RequiresConfirmation bool             `json:"requires_confirmation"`
	FollowUpDate         localclock.Date  `json:"follow_up_date"`
	Rationale            []string         `json:"rationale"`
}
