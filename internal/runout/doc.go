// Package runout predicts when a medication supply runs out and how much to
// trust that prediction.
//
// The estimator is deliberately conservative: weak inputs never error, they
// produce an estimate with no run-out date, a low confidence score, and
// RequiresConfirmation set, which gates any autonomous refill reminder behind
// a human. Every inference it makes is recorded in the rationale trail.
package runout
