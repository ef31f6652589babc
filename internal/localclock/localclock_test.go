package localclock

import (
	"errors"
	"testing"
)

func TestParseDateVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want Date
		ok   bool
	}{
		{name: "plain", raw: "2026-02-10", want: Date{2026, 2, 10}, ok: true},
		{name: "leap day", raw: "2024-02-29", want: Date{2024, 2, 29}, ok: true},
		{name: "non leap feb 29", raw: "2026-02-29"},
		{name: "month 13", raw: "2026-13-01"},
		{name: "day zero", raw: "2026-02-00"},
		{name: "short year", raw: "26-02-10"},
		{name: "slashes", raw: "2026/02/10"},
		{name: "trailing junk", raw: "2026-02-10 "},
		{name: "empty", raw: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.raw)
			if !tt.ok {
				if err == nil {
					t.Fatalf("ParseDate(%q) = %v, want error", tt.raw, got)
				}
				if !errors.Is(err, ErrInvalidFormat) {
					t.Fatalf("error = %v, want ErrInvalidFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Fatalf("ParseDate(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseTimeVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want Time
		ok   bool
	}{
		{name: "morning", raw: "09:00", want: Time{9, 0}, ok: true},
		{name: "midnight", raw: "00:00", want: Time{0, 0}, ok: true},
		{name: "last minute", raw: "23:59", want: Time{23, 59}, ok: true},
		{name: "hour 24", raw: "24:00"},
		{name: "minute 60", raw: "12:60"},
		{name: "single digit hour", raw: "9:00"},
		{name: "with seconds", raw: "09:00:00"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.raw)
			if !tt.ok {
				if err == nil {
					t.Fatalf("ParseTime(%q) = %v, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTime(%q) error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Fatalf("ParseTime(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFormatIsParseInverse(t *testing.T) {
	t.Parallel()
	d, err := ParseDate("2026-02-10")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if d.Key() != "2026-02-10" {
		t.Fatalf("Key = %q", d.Key())
	}
	tm, err := ParseTime("07:05")
	if err != nil {
		t.Fatalf("ParseTime error: %v", err)
	}
	if tm.String() != "07:05" {
		t.Fatalf("String = %q", tm.String())
	}
}

func TestAddMinutes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		d        Date
		tm       Time
		delta    int
		wantDate Date
		wantTime Time
	}{
		{name: "same day", d: Date{2026, 2, 10}, tm: Time{9, 0}, delta: -120, wantDate: Date{2026, 2, 10}, wantTime: Time{7, 0}},
		{name: "previous day", d: Date{2026, 2, 10}, tm: Time{9, 0}, delta: -24 * 60, wantDate: Date{2026, 2, 9}, wantTime: Time{9, 0}},
		{name: "month rollover", d: Date{2026, 3, 1}, tm: Time{0, 30}, delta: -60, wantDate: Date{2026, 2, 28}, wantTime: Time{23, 30}},
		{name: "leap year rollover", d: Date{2024, 3, 1}, tm: Time{0, 30}, delta: -60, wantDate: Date{2024, 2, 29}, wantTime: Time{23, 30}},
		{name: "year rollover", d: Date{2025, 12, 31}, tm: Time{23, 30}, delta: 45, wantDate: Date{2026, 1, 1}, wantTime: Time{0, 15}},
		{name: "zero delta", d: Date{2026, 2, 10}, tm: Time{9, 0}, delta: 0, wantDate: Date{2026, 2, 10}, wantTime: Time{9, 0}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			gd, gt := AddMinutes(tt.d, tt.tm, tt.delta)
			if gd != tt.wantDate || gt != tt.wantTime {
				t.Fatalf("AddMinutes = %v %v, want %v %v", gd, gt, tt.wantDate, tt.wantTime)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()
	a := DateTime{Date{2026, 2, 10}, Time{2, 30}}
	b := DateTime{Date{2026, 2, 10}, Time{3, 0}}
	if a.Compare(b) != -1 || b.Compare(a) != 1 || a.Compare(a) != 0 {
		t.Fatalf("Compare ordering broken: %d %d %d", a.Compare(b), b.Compare(a), a.Compare(a))
	}
}
