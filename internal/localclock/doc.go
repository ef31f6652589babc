// Package localclock holds zone-less wall-clock date/time values and their
// calendar arithmetic.
//
// Everything here is deliberately DST-unaware: "2 hours before this
// appointment" is a statement about wall-clock time, not elapsed physical
// time. Mapping a wall-clock value to an absolute instant is the job of
// package tzresolve, never of this package.
package localclock
