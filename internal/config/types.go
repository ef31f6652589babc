package config

// Config is the root configuration tree.
//
// The file may be JSON or YAML; both are decoded strictly, so unknown or
// misspelled keys fail the load instead of being silently ignored.
type Config struct {
	// Timezone is the care recipient's IANA zone, e.g. "America/New_York".
	// Care plan entries may override it per item.
	Timezone string `json:"timezone"`

	// PlanPath points at the care plan file (appointments, medications,
	// follow-ups). Relative paths resolve against the working directory.
	PlanPath string `json:"plan_path"`

	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Reminders RemindersConfig `json:"reminders,omitempty"`

	Storage  *StorageConfig  `json:"storage,omitempty"`
	Telegram *TelegramConfig `json:"telegram,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// SchedulerConfig controls the one-shot reminder trigger service.
type SchedulerConfig struct {
	Enabled bool `json:"enabled"`

	// Workers drain the fired-job queue. Default 2.
	Workers int `json:"workers,omitempty"`
	// QueueSize bounds fired jobs waiting for a worker. Default 64.
	QueueSize int `json:"queue_size,omitempty"`

	// Rebuild re-plans all reminders on a schedule ("@daily", "0 6 * * *",
	// "12h", ...). Empty disables periodic rebuilds; reminders are still
	// rebuilt on startup and on config/plan reload.
	Rebuild string `json:"rebuild,omitempty"`
}

// RemindersConfig overrides the built-in reminder lead times.
type RemindersConfig struct {
	// AppointmentOffsetHours defaults to [24, 2].
	AppointmentOffsetHours []float64 `json:"appointment_offset_hours,omitempty"`
	// RefillDaysBefore defaults to [5, 2, 1].
	RefillDaysBefore []float64 `json:"refill_days_before,omitempty"`
	// RefillTimeOfDay is the local "HH:mm" a refill reminder lands at.
	// Defaults to "09:00".
	RefillTimeOfDay string `json:"refill_time_of_day,omitempty"`
}

// StorageConfig controls the optional persistence layer.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./carepilot.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// TelegramConfig controls reminder delivery. Nil disables delivery; fired
// reminders are then only logged and audited.
type TelegramConfig struct {
	Token    string `json:"token"`
	ChatID   int64  `json:"chat_id"`
	ThreadID int    `json:"thread_id,omitempty"`
	// RatePerSec caps outgoing sends. Default 3.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}
