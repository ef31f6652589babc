package tzresolve

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"carepilot/internal/localclock"
)

var (
	// ErrInvalidTimezone marks a blank or unknown timezone identifier.
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrResolutionWindowExceeded means no candidate instant inside the scan
	// window rendered as a usable local time. This should not occur with
	// realistic zones; treat it as a defect to investigate, not a retryable
	// condition.
	ErrResolutionWindowExceeded = errors.New("resolution window exceeded")
)

// scanWindowMinutes bounds the candidate scan to ±2 days around the anchor.
// Real-world UTC offsets stay well inside ±14h; two days leaves margin for
// exotic historical offsets without making the scan unbounded.
const scanWindowMinutes = 2880

// ResolutionKind says how the requested wall-clock tuple was mapped.
type ResolutionKind string

const (
	// ResolutionExact means the requested minute exists in the zone.
	ResolutionExact ResolutionKind = "exact"
	// ResolutionNextValidLocalMinute means the requested minute fell in a
	// spring-forward gap and the first valid minute at or after it was used.
	ResolutionNextValidLocalMinute ResolutionKind = "next_valid_local_minute"
)

// ResolvedSchedule is the outcome of mapping a local wall-clock request to an
// absolute instant.
//
// LocalDate/LocalTime reflect the tuple actually used: for gap requests they
// hold the shifted value, not the original request. LocalDateKey is always the
// calendar date, in the target zone, of UTCInstant.
type ResolvedSchedule struct {
	LocalDate          localclock.Date
	LocalTime          localclock.Time
	UTCInstant         time.Time
	LocalDateKey       string
	Resolution         ResolutionKind
	AmbiguousLocalTime bool
}

// Resolver maps wall-clock tuples to instants through an injected Converter.
// It holds no mutable state of its own; independent Resolve calls may run
// concurrently.
type Resolver struct {
	conv Converter
}

func New(conv Converter) *Resolver {
	return &Resolver{conv: conv}
}

// Resolve parses the strict "YYYY-MM-DD" / "HH:mm" strings and resolves them
// in the given zone.
func (r *Resolver) Resolve(zone, localDate, localTime string) (ResolvedSchedule, error) {
	d, err := localclock.ParseDate(localDate)
	if err != nil {
		return ResolvedSchedule{}, err
	}
	t, err := localclock.ParseTime(localTime)
	if err != nil {
		return ResolvedSchedule{}, err
	}
	return r.ResolveLocal(zone, localclock.DateTime{Date: d, Time: t})
}

// ResolveLocal resolves an already-parsed wall-clock tuple.
//
// The target tuple is first reinterpreted as if it were itself a UTC instant.
// That instant is only a scanning anchor: the true instant lies within the
// zone's UTC offset of it, so a bounded scan around the anchor must cross it.
// Candidates are checked minute by minute against the converter:
//
//   - one or more exact matches: the numerically earliest wins; more than one
//     match means the wall-clock minute occurred twice (fall-back repeat) and
//     the result is flagged ambiguous.
//   - zero matches: the minute never occurred (spring-forward gap); a
//     forward-only re-scan picks the first candidate whose local rendering is
//     at or after the target.
func (r *Resolver) ResolveLocal(zone string, target localclock.DateTime) (ResolvedSchedule, error) {
	if strings.TrimSpace(zone) == "" {
		return ResolvedSchedule{}, fmt.Errorf("%w: blank zone", ErrInvalidTimezone)
	}

	anchor := time.Date(
		target.Date.Year, time.Month(target.Date.Month), target.Date.Day,
		target.Time.Hour, target.Time.Minute, 0, 0, time.UTC,
	)

	var matches []time.Time
	for off := -scanWindowMinutes; off <= scanWindowMinutes; off++ {
		cand := anchor.Add(time.Duration(off) * time.Minute)
		local, err := r.conv.Convert(cand, zone)
		if err != nil {
			return ResolvedSchedule{}, err
		}
		if local == target {
			matches = append(matches, cand)
		}
	}

	if len(matches) > 0 {
		// Earliest instant wins; a fall-back overlap yields two instants for
		// the same wall-clock minute and we take the first occurrence.
		earliest := matches[0]
		for _, m := range matches[1:] {
			if m.Before(earliest) {
				earliest = m
			}
		}
		return ResolvedSchedule{
			LocalDate:          target.Date,
			LocalTime:          target.Time,
			UTCInstant:         earliest,
			LocalDateKey:       target.Date.Key(),
			Resolution:         ResolutionExact,
			AmbiguousLocalTime: len(matches) > 1,
		}, nil
	}

	// Spring-forward gap: the requested minute never occurred. Walk forward
	// from the anchor and take the first minute that is valid and not before
	// the request.
	for off := 0; off <= scanWindowMinutes; off++ {
		cand := anchor.Add(time.Duration(off) * time.Minute)
		local, err := r.conv.Convert(cand, zone)
		if err != nil {
			return ResolvedSchedule{}, err
		}
		if local.Compare(target) >= 0 {
			return ResolvedSchedule{
				LocalDate:          local.Date,
				LocalTime:          local.Time,
				UTCInstant:         cand,
				LocalDateKey:       local.Date.Key(),
				Resolution:         ResolutionNextValidLocalMinute,
				AmbiguousLocalTime: false,
			}, nil
		}
	}

	return ResolvedSchedule{}, fmt.Errorf("%w: %s in %q", ErrResolutionWindowExceeded, target, zone)
}
