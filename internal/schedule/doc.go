// Package schedule runs reminder jobs at fixed UTC instants.
//
// Jobs are one-shot and upserted by name: re-registering a name replaces the
// pending timer, so hot-reloads and plan rebuilds never double-fire. Fired
// jobs are drained by a small worker pool through a bounded queue. An
// optional rebuild trigger (cron spec or interval) re-plans all reminders
// periodically to pick up plan edits and rolling refill dates.
package schedule
