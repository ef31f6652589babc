package localclock

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ErrInvalidFormat marks malformed local date/time strings.
// It is a caller error and never worth retrying.
var ErrInvalidFormat = errors.New("invalid format")

var (
	reDate = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	reTime = regexp.MustCompile(`^(\d{2}):(\d{2})$`)
)

// Date is a calendar date with no timezone attached.
type Date struct {
	Year  int
	Month int
	Day   int
}

// Time is a wall-clock time of day (24h, minute precision) with no timezone attached.
type Time struct {
	Hour   int
	Minute int
}

// DateTime pairs a Date with a Time. It is a zone-less calendar point,
// not an instant.
type DateTime struct {
	Date Date
	Time Time
}

// ParseDate parses a strict "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	m := reDate.FindStringSubmatch(s)
	if m == nil {
		return Date{}, fmt.Errorf("%w: date %q (want YYYY-MM-DD)", ErrInvalidFormat, s)
	}
	y := atoiDigits(m[1])
	mo := atoiDigits(m[2])
	d := atoiDigits(m[3])
	if mo < 1 || mo > 12 {
		return Date{}, fmt.Errorf("%w: month out of range in %q", ErrInvalidFormat, s)
	}
	if d < 1 || d > daysInMonth(y, mo) {
		return Date{}, fmt.Errorf("%w: day out of range in %q", ErrInvalidFormat, s)
	}
	return Date{Year: y, Month: mo, Day: d}, nil
}

// ParseTime parses a strict 24h "HH:mm" string.
func ParseTime(s string) (Time, error) {
	m := reTime.FindStringSubmatch(s)
	if m == nil {
		return Time{}, fmt.Errorf("%w: time %q (want HH:mm)", ErrInvalidFormat, s)
	}
	h := atoiDigits(m[1])
	mi := atoiDigits(m[2])
	if h > 23 {
		return Time{}, fmt.Errorf("%w: hour out of range in %q", ErrInvalidFormat, s)
	}
	if mi > 59 {
		return Time{}, fmt.Errorf("%w: minute out of range in %q", ErrInvalidFormat, s)
	}
	return Time{Hour: h, Minute: mi}, nil
}

// Key renders the date as its canonical "YYYY-MM-DD" key, the exact inverse
// of ParseDate within the valid domain.
func (d Date) Key() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// String renders the time as canonical zero-padded "HH:mm".
func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (dt DateTime) String() string {
	return dt.Date.Key() + " " + dt.Time.String()
}

// Compare orders two zone-less calendar points lexicographically by
// (year, month, day, hour, minute). It returns -1, 0 or +1.
func (dt DateTime) Compare(other DateTime) int {
	a := [5]int{dt.Date.Year, dt.Date.Month, dt.Date.Day, dt.Time.Hour, dt.Time.Minute}
	b := [5]int{other.Date.Year, other.Date.Month, other.Date.Day, other.Time.Hour, other.Time.Minute}
	for i := range a {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}

// AddMinutes shifts a wall-clock pair by delta minutes using ordinary calendar
// arithmetic (month/day/year rollover, leap years). No timezone or DST
// correction is applied; the pair never passes through a real instant.
func AddMinutes(d Date, t Time, delta int) (Date, Time) {
	// time.UTC is used purely as a fixed-offset calendar here.
	u := time.Date(d.Year, time.Month(d.Month), d.Day, t.Hour, t.Minute, 0, 0, time.UTC)
	u = u.Add(time.Duration(delta) * time.Minute)
	return Date{Year: u.Year(), Month: int(u.Month()), Day: u.Day()},
		Time{Hour: u.Hour(), Minute: u.Minute()}
}

// atoiDigits converts an all-digit string (already matched by regexp).
func atoiDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}

func daysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	default:
		if isLeap(year) {
			return 29
		}
		return 28
	}
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
