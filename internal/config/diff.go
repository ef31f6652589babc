package config

import (
	"reflect"
	"sort"
	"strings"

	logx "carepilot/pkg/logx"
)

// SummarizeChange returns (1) a compact list of changed sections and
// (2) safe structured attrs for logging (never includes secrets like tokens).
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 16)

	if strings.TrimSpace(oldCfg.Timezone) != strings.TrimSpace(newCfg.Timezone) ||
		strings.TrimSpace(oldCfg.PlanPath) != strings.TrimSpace(newCfg.PlanPath) {
		changed = append(changed, "plan")
		attrs = append(attrs,
			logx.String("timezone", strings.TrimSpace(newCfg.Timezone)),
			logx.String("plan_path", strings.TrimSpace(newCfg.PlanPath)),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if oldCfg.Scheduler != newCfg.Scheduler {
		changed = append(changed, "scheduler")
		attrs = append(attrs,
			logx.Bool("scheduler.enabled", newCfg.Scheduler.Enabled),
			logx.Int("scheduler.workers", newCfg.Scheduler.Workers),
			logx.Int("scheduler.queue_size", newCfg.Scheduler.QueueSize),
			logx.String("scheduler.rebuild", strings.TrimSpace(newCfg.Scheduler.Rebuild)),
		)
	}

	if !reflect.DeepEqual(oldCfg.Reminders, newCfg.Reminders) {
		changed = append(changed, "reminders")
		attrs = append(attrs,
			logx.Int("reminders.appointment_offsets", len(newCfg.Reminders.AppointmentOffsetHours)),
			logx.Int("reminders.refill_days", len(newCfg.Reminders.RefillDaysBefore)),
			logx.String("reminders.refill_time_of_day", strings.TrimSpace(newCfg.Reminders.RefillTimeOfDay)),
		)
	}

	// Storage: nil means disabled.
	var oDriver, nDriver, oBusy, nBusy string
	var oPathSet, nPathSet bool
	if oldCfg.Storage != nil {
		oDriver = strings.TrimSpace(oldCfg.Storage.Driver)
		oBusy = strings.TrimSpace(oldCfg.Storage.BusyTimeout)
		oPathSet = strings.TrimSpace(oldCfg.Storage.Path) != ""
	}
	if newCfg.Storage != nil {
		nDriver = strings.TrimSpace(newCfg.Storage.Driver)
		nBusy = strings.TrimSpace(newCfg.Storage.BusyTimeout)
		nPathSet = strings.TrimSpace(newCfg.Storage.Path) != ""
	}
	if oDriver != nDriver || oBusy != nBusy || oPathSet != nPathSet {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", nDriver),
			logx.Bool("storage.path_set", nPathSet),
			logx.String("storage.busy_timeout", nBusy),
		)
	}

	// Telegram (never log token).
	var oTG, nTG TelegramConfig
	if oldCfg.Telegram != nil {
		oTG = *oldCfg.Telegram
	}
	if newCfg.Telegram != nil {
		nTG = *newCfg.Telegram
	}
	if (oldCfg.Telegram != nil) != (newCfg.Telegram != nil) ||
		oTG.ChatID != nTG.ChatID || oTG.ThreadID != nTG.ThreadID ||
		oTG.RatePerSec != nTG.RatePerSec ||
		(strings.TrimSpace(oTG.Token) != "") != (strings.TrimSpace(nTG.Token) != "") {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.Bool("telegram.present", newCfg.Telegram != nil),
			logx.Bool("telegram.token_set", strings.TrimSpace(nTG.Token) != ""),
			logx.Int64("telegram.chat_id", nTG.ChatID),
			logx.Int("telegram.rate_per_sec", nTG.RatePerSec),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}
