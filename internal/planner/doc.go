// Package planner turns the care plan file into scheduled reminder jobs:
// it estimates medication run-out, builds reminder drafts, and upserts them
// into the trigger service, reporting what was planned, skipped or removed.
package planner
