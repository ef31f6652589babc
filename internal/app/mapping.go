package app

import (
	"strings"
	"time"

	"carepilot/internal/config"
	"carepilot/internal/planner"
	"carepilot/internal/schedule"
	"carepilot/internal/storage"
)

// mapStorageConfig translates the config section into the storage package's
// config. The bool reports whether storage is enabled at all.
func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	if cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	busy, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 5*time.Second)
	if err != nil {
		return storage.Config{}, false, err
	}
	return storage.Config{
		Driver:      driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, true, nil
}

func mapScheduleConfig(cfg *config.Config) schedule.Config {
	return schedule.Config{
		Enabled:   cfg.Scheduler.Enabled,
		Workers:   cfg.Scheduler.Workers,
		QueueSize: cfg.Scheduler.QueueSize,
		Rebuild:   cfg.Scheduler.Rebuild,
	}
}

func mapDefaults(cfg *config.Config) planner.Defaults {
	d := planner.Defaults{
		Timezone:               strings.TrimSpace(cfg.Timezone),
		AppointmentOffsetHours: cfg.Reminders.AppointmentOffsetHours,
		RefillDaysBefore:       cfg.Reminders.RefillDaysBefore,
		RefillTimeOfDay:        strings.TrimSpace(cfg.Reminders.RefillTimeOfDay),
	}
	return d
}
