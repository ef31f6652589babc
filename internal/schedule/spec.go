package schedule

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// RebuildKind describes the normalized kind of a rebuild schedule string.
type RebuildKind int

const (
	RebuildCron RebuildKind = iota
	RebuildInterval
)

// ParsedRebuild represents a parsed rebuild schedule string.
//
// Supported forms:
//   - Cron (crontab.guru-style): "0 6 * * *", "@daily", "@every 12h"
//   - Interval duration: "12h", "2h30m"
//   - Interval HH:MM: "02:30" (2 hours 30 minutes)
type ParsedRebuild struct {
	Kind  RebuildKind
	Cron  string
	Every time.Duration
}

var reHHMM = regexp.MustCompile(`^\s*(\d{1,3}):(\d{2})\s*$`)

// ParseRebuild parses a rebuild schedule string into either a cron
// expression or an interval duration.
func ParseRebuild(raw string) (ParsedRebuild, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ParsedRebuild{}, fmt.Errorf("schedule required")
	}

	// any whitespace or leading '@' => cron
	if strings.ContainsAny(s, " \t\n\r") || strings.HasPrefix(s, "@") {
		return ParsedRebuild{Kind: RebuildCron, Cron: s}, nil
	}

	if m := reHHMM.FindStringSubmatch(s); len(m) == 3 {
		var hh int
		for i := 0; i < len(m[1]); i++ {
			hh = hh*10 + int(m[1][i]-'0')
		}
		mm := int(m[2][0]-'0')*10 + int(m[2][1]-'0')
		if mm > 59 {
			return ParsedRebuild{}, fmt.Errorf("invalid minutes in %q", s)
		}
		d := time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute
		if d <= 0 {
			return ParsedRebuild{}, fmt.Errorf("interval must be > 0")
		}
		return ParsedRebuild{Kind: RebuildInterval, Every: d}, nil
	}

	d, err := time.ParseDuration(s)
	if err == nil {
		if d <= 0 {
			return ParsedRebuild{}, fmt.Errorf("interval must be > 0")
		}
		return ParsedRebuild{Kind: RebuildInterval, Every: d}, nil
	}

	return ParsedRebuild{}, fmt.Errorf(
		"invalid schedule %q (use cron like '0 6 * * *', HH:MM like '02:30', or duration like '12h')",
		raw,
	)
}
