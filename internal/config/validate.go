package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks a parsed config for problems a strict decode can't catch.
// It is used as the Watch() validation hook so a bad edit never replaces a
// good running config.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if strings.TrimSpace(cfg.Timezone) == "" {
		return fmt.Errorf("timezone is required")
	}
	if _, err := time.LoadLocation(strings.TrimSpace(cfg.Timezone)); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	if strings.TrimSpace(cfg.PlanPath) == "" {
		return fmt.Errorf("plan_path is required")
	}

	if tod := strings.TrimSpace(cfg.Reminders.RefillTimeOfDay); tod != "" {
		if len(tod) != 5 || tod[2] != ':' {
			return fmt.Errorf("reminders.refill_time_of_day: %q is not HH:mm", tod)
		}
	}

	if cfg.Storage != nil {
		switch d := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)); d {
		case "", "none", "file", "sqlite", "sqlite3":
		default:
			return fmt.Errorf("storage.driver: unknown driver %q", d)
		}
		if _, err := ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout); err != nil {
			return err
		}
	}

	if cfg.Telegram != nil {
		if strings.TrimSpace(cfg.Telegram.Token) == "" {
			return fmt.Errorf("telegram.token is required when telegram is configured")
		}
		if cfg.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram.chat_id is required when telegram is configured")
		}
	}

	return nil
}
