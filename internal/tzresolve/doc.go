// Package tzresolve maps a nominal (timezone, local date, local time) triple
// to an absolute UTC instant.
//
// Daylight-saving transitions make this mapping partial and multi-valued: a
// wall-clock minute can occur zero times (spring-forward gap) or twice
// (fall-back overlap). The resolver scans candidate instants minute by minute
// around an anchor and lets the timezone conversion capability decide which
// candidates render as the requested wall-clock tuple, so all offset/DST
// knowledge stays in one place.
package tzresolve
