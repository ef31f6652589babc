package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseStrictJSON(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"timezone": "UTC",
		"plan_path": "./plan.yaml",
		"logging": {"level": "debug", "console": true},
		"scheduler": {"enabled": true, "workers": 2, "queue_size": 64},
		"reminders": {"appointment_offset_hours": [48, 4], "refill_time_of_day": "08:30"}
	}`)

	cfg, err := ParseBytes("config.json", raw)
	if err != nil {
		t.Fatalf("ParseBytes: %v", err)
	}
	if cfg.Timezone != "UTC" || cfg.PlanPath != "./plan.yaml" {
		t.Fatalf("unexpected core fields: %+v", cfg)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.Console {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
	if got := cfg.Reminders.AppointmentOffsetHours; len(got) != 2 || got[0] != 48 || got[1] != 4 {
		t.Fatalf("unexpected offsets: %v", got)
	}
	if cfg.Storage != nil || cfg.Telegram != nil {
		t.Fatalf("optional sections should stay nil when absent")
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	if _, err := ParseBytes("config.json", []byte(`{"timezone": "UTC", "plan_path": "p", "bogus": 1}`)); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestParseYAMLCoercion(t *testing.T) {
	t.Parallel()

	raw := []byte("timezone: America/New_York\nplan_path: ./plan.yaml\nscheduler:\n  enabled: true\n  workers: 3\n")
	cfg, err := ParseBytes("config.yaml", raw)
	if err != nil {
		t.Fatalf("ParseBytes yaml: %v", err)
	}
	if cfg.Timezone != "America/New_York" || cfg.Scheduler.Workers != 3 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	good := &Config{Timezone: "UTC", PlanPath: "./plan.yaml"}
	if err := Validate(good); err != nil {
		t.Fatalf("Validate(good): %v", err)
	}

	cases := []struct {
		name string
		mut  func(*Config)
		want string
	}{
		{"missing timezone", func(c *Config) { c.Timezone = " " }, "timezone"},
		{"missing plan path", func(c *Config) { c.PlanPath = "" }, "plan_path"},
		{"bad refill time", func(c *Config) { c.Reminders.RefillTimeOfDay = "9am" }, "refill_time_of_day"},
		{"bad storage driver", func(c *Config) { c.Storage = &StorageConfig{Driver: "redis"} }, "storage.driver"},
		{"telegram without token", func(c *Config) { c.Telegram = &TelegramConfig{ChatID: 1} }, "telegram.token"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := *good
			tc.mut(&cfg)
			err := Validate(&cfg)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate: got %v, want error mentioning %q", err, tc.want)
			}
		})
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()

	d, err := ParseDurationOrDefault("busy_timeout", "5s", time.Second)
	if err != nil || d != 5*time.Second {
		t.Fatalf("got %v, %v", d, err)
	}
	d, err = ParseDurationOrDefault("busy_timeout", "", time.Second)
	if err != nil || d != time.Second {
		t.Fatalf("default: got %v, %v", d, err)
	}
	if _, err := ParseDurationField("busy_timeout", "fast"); err == nil {
		t.Fatal("expected error for unparsable duration")
	}
}

func TestSummarizeChange(t *testing.T) {
	t.Parallel()

	oldCfg := &Config{Timezone: "UTC", PlanPath: "a.yaml"}
	newCfg := &Config{
		Timezone: "UTC",
		PlanPath: "b.yaml",
		Telegram: &TelegramConfig{Token: "secret-token", ChatID: 42},
	}
	changed, attrs := SummarizeChange(oldCfg, newCfg)
	if len(changed) != 2 || changed[0] != "plan" || changed[1] != "telegram" {
		t.Fatalf("changed = %v", changed)
	}
	_ = attrs

	if c, _ := SummarizeChange(newCfg, newCfg); len(c) != 0 {
		t.Fatalf("identical configs reported changes: %v", c)
	}
}
