package storage

// Package storage persists reminder delivery state.
//
// It currently supports:
//   - Delivery log appends (every fired reminder, sent or skipped)
//   - Dedupe state keyed by "<jobId>:<localDateKey>", so a reminder fires
//     at most once per local calendar day even across restarts
