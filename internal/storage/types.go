package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free file backend (jsonl + snapshot)
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Delivery outcomes.
const (
	DeliverySent    = "sent"
	DeliverySkipped = "skipped_duplicate"
	DeliveryFailed  = "failed"
)

// DeliveryRecord logs one reminder firing.
// Keep it compact and schema-stable.
type DeliveryRecord struct {
	At           time.Time `json:"at"`
	JobID        string    `json:"job_id"`
	DedupeKey    string    `json:"dedupe_key"`
	Kind         string    `json:"kind"` // appointment, refill, follow_up
	EntityID     string    `json:"entity_id"`
	LocalDateKey string    `json:"local_date_key"`
	FireAt       time.Time `json:"fire_at"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	TookMS       int64     `json:"took_ms,omitempty"`
}
