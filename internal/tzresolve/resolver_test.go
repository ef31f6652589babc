package tzresolve

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"carepilot/internal/localclock"
)

// ruleZone is a synthetic zone: a fixed standard offset plus one DST period
// [dstStart, dstEnd) during which the offset grows by one hour. This gives
// deterministic spring-forward gaps and fall-back overlaps without depending
// on platform tzdata.
type ruleZone struct {
	std      time.Duration
	dstStart time.Time
	dstEnd   time.Time
}

func (z ruleZone) offset(instant time.Time) time.Duration {
	if !z.dstStart.IsZero() && !instant.Before(z.dstStart) && instant.Before(z.dstEnd) {
		return z.std + time.Hour
	}
	return z.std
}

type fakeConverter map[string]ruleZone

func (fc fakeConverter) Convert(instant time.Time, zone string) (localclock.DateTime, error) {
	z, ok := fc[zone]
	if !ok {
		return localclock.DateTime{}, fmt.Errorf("%w: %q", ErrInvalidTimezone, zone)
	}
	lt := instant.Add(z.offset(instant)).UTC()
	return localclock.DateTime{
		Date: localclock.Date{Year: lt.Year(), Month: int(lt.Month()), Day: lt.Day()},
		Time: localclock.Time{Hour: lt.Hour(), Minute: lt.Minute()},
	}, nil
}

// frozenConverter renders every instant as the same wall-clock tuple, so no
// forward scan can ever reach the target.
type frozenConverter struct{}

func (frozenConverter) Convert(time.Time, string) (localclock.DateTime, error) {
	return localclock.DateTime{
		Date: localclock.Date{Year: 1970, Month: 1, Day: 1},
	}, nil
}

func testZones() fakeConverter {
	return fakeConverter{
		// UTC+7, no DST.
		"Asia/Plus7": {std: 7 * time.Hour},
		// UTC-5 with a DST period bracketing a 2026-03-08 02:00 spring-forward
		// gap and a 2026-11-01 01:00-02:00 fall-back repeat.
		"Test/Eastish": {
			std:      -5 * time.Hour,
			dstStart: time.Date(2026, 3, 8, 7, 0, 0, 0, time.UTC),
			dstEnd:   time.Date(2026, 11, 1, 6, 0, 0, 0, time.UTC),
		},
	}
}

func TestResolveRoundTrip(t *testing.T) {
	t.Parallel()
	conv := testZones()
	r := New(conv)

	got, err := r.Resolve("Asia/Plus7", "2026-02-10", "09:00")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got.Resolution != ResolutionExact || got.AmbiguousLocalTime {
		t.Fatalf("Resolution = %s ambiguous=%v, want exact unambiguous", got.Resolution, got.AmbiguousLocalTime)
	}
	want := time.Date(2026, 2, 10, 2, 0, 0, 0, time.UTC)
	if !got.UTCInstant.Equal(want) {
		t.Fatalf("UTCInstant = %v, want %v", got.UTCInstant, want)
	}

	// Rendering the returned instant in the zone reproduces the input.
	back, err := conv.Convert(got.UTCInstant, "Asia/Plus7")
	if err != nil {
		t.Fatalf("Convert error: %v", err)
	}
	if back.Date.Key() != "2026-02-10" || back.Time.String() != "09:00" {
		t.Fatalf("round-trip = %s %s", back.Date.Key(), back.Time.String())
	}
	if got.LocalDateKey != "2026-02-10" {
		t.Fatalf("LocalDateKey = %q", got.LocalDateKey)
	}
}

func TestResolveDateKeyCrossesUTCMidnight(t *testing.T) {
	t.Parallel()
	r := New(testZones())
	got, err := r.Resolve("Asia/Plus7", "2026-02-10", "00:30")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	want := time.Date(2026, 2, 9, 17, 30, 0, 0, time.UTC)
	if !got.UTCInstant.Equal(want) {
		t.Fatalf("UTCInstant = %v, want %v", got.UTCInstant, want)
	}
	// The key follows the zone's calendar date, not the UTC date.
	if got.LocalDateKey != "2026-02-10" {
		t.Fatalf("LocalDateKey = %q, want 2026-02-10", got.LocalDateKey)
	}
}

func TestResolveSpringForwardGap(t *testing.T) {
	t.Parallel()
	r := New(testZones())

	got, err := r.Resolve("Test/Eastish", "2026-03-08", "02:30")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got.Resolution != ResolutionNextValidLocalMinute {
		t.Fatalf("Resolution = %s, want next_valid_local_minute", got.Resolution)
	}
	if got.AmbiguousLocalTime {
		t.Fatal("gap result must not be ambiguous")
	}
	// 02:00-02:59 never occurred; the first valid minute at or after 02:30
	// is 03:00, which is the transition instant itself.
	if got.LocalTime.String() != "03:00" || got.LocalDate.Key() != "2026-03-08" {
		t.Fatalf("shifted local = %s %s", got.LocalDate.Key(), got.LocalTime.String())
	}
	want := time.Date(2026, 3, 8, 7, 0, 0, 0, time.UTC)
	if !got.UTCInstant.Equal(want) {
		t.Fatalf("UTCInstant = %v, want %v", got.UTCInstant, want)
	}
	if got.LocalDateKey != "2026-03-08" {
		t.Fatalf("LocalDateKey = %q", got.LocalDateKey)
	}
}

func TestResolveFallBackOverlap(t *testing.T) {
	t.Parallel()
	r := New(testZones())

	got, err := r.Resolve("Test/Eastish", "2026-11-01", "01:30")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got.Resolution != ResolutionExact {
		t.Fatalf("Resolution = %s, want exact", got.Resolution)
	}
	if !got.AmbiguousLocalTime {
		t.Fatal("overlap must be flagged ambiguous")
	}
	// 01:30 happened twice: 05:30Z (DST) and 06:30Z (standard). The earlier
	// instant wins.
	want := time.Date(2026, 11, 1, 5, 30, 0, 0, time.UTC)
	if !got.UTCInstant.Equal(want) {
		t.Fatalf("UTCInstant = %v, want %v", got.UTCInstant, want)
	}
	if got.LocalTime.String() != "01:30" {
		t.Fatalf("LocalTime = %s, want 01:30", got.LocalTime)
	}
}

func TestResolveIdempotent(t *testing.T) {
	t.Parallel()
	r := New(testZones())
	a, err := r.Resolve("Test/Eastish", "2026-11-01", "01:30")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	b, err := r.Resolve("Test/Eastish", "2026-11-01", "01:30")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if a != b {
		t.Fatalf("results differ:\n%+v\n%+v", a, b)
	}
}

func TestResolveErrors(t *testing.T) {
	t.Parallel()
	r := New(testZones())

	if _, err := r.Resolve("  ", "2026-02-10", "09:00"); !errors.Is(err, ErrInvalidTimezone) {
		t.Fatalf("blank zone error = %v, want ErrInvalidTimezone", err)
	}
	if _, err := r.Resolve("Nope/Nowhere", "2026-02-10", "09:00"); !errors.Is(err, ErrInvalidTimezone) {
		t.Fatalf("unknown zone error = %v, want ErrInvalidTimezone", err)
	}
	if _, err := r.Resolve("Asia/Plus7", "2026-2-10", "09:00"); !errors.Is(err, localclock.ErrInvalidFormat) {
		t.Fatalf("bad date error = %v, want ErrInvalidFormat", err)
	}
	if _, err := r.Resolve("Asia/Plus7", "2026-02-10", "9am"); !errors.Is(err, localclock.ErrInvalidFormat) {
		t.Fatalf("bad time error = %v, want ErrInvalidFormat", err)
	}

	frozen := New(frozenConverter{})
	if _, err := frozen.Resolve("Any/Zone", "2026-02-10", "09:00"); !errors.Is(err, ErrResolutionWindowExceeded) {
		t.Fatalf("frozen zone error = %v, want ErrResolutionWindowExceeded", err)
	}
}

func TestLocationCacheRealZone(t *testing.T) {
	t.Parallel()
	cache := NewLocationCache()
	if _, err := time.LoadLocation("America/New_York"); err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	r := New(cache)
	got, err := r.Resolve("America/New_York", "2026-02-10", "09:00")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	// February: EST, UTC-5.
	want := time.Date(2026, 2, 10, 14, 0, 0, 0, time.UTC)
	if !got.UTCInstant.Equal(want) {
		t.Fatalf("UTCInstant = %v, want %v", got.UTCInstant, want)
	}

	if _, err := cache.Convert(time.Now(), "Not/AZone"); !errors.Is(err, ErrInvalidTimezone) {
		t.Fatalf("unknown zone error = %v, want ErrInvalidTimezone", err)
	}
}
