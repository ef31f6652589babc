package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"carepilot/internal/config"
	"carepilot/internal/notify"
	"carepilot/internal/planner"
	"carepilot/internal/schedule"
	"carepilot/internal/storage"
	"carepilot/internal/tzresolve"
	logx "carepilot/pkg/logx"
)

// App wires config, storage, the trigger service, delivery and the planner.
type App struct {
	cfgPath string

	cfgm *config.Manager
	log  logx.Logger
	logs *logx.Service

	store storage.Store
	sched *schedule.Service
	notif *notify.Service
	plan  *planner.Planner

	mu       sync.Mutex
	planPath string

	wg sync.WaitGroup
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))

	// Storage (optional)
	var store storage.Store
	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	} else if enabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		store = st
		log.Info("storage enabled", logx.String("driver", sc.Driver))
	}

	// Delivery: Telegram when configured, log-only otherwise.
	var sender notify.Sender
	ratePerSec := 0
	if cfg.Telegram != nil {
		sender, err = notify.NewTelegramSender(notify.TelegramConfig{
			Token:    cfg.Telegram.Token,
			ChatID:   cfg.Telegram.ChatID,
			ThreadID: cfg.Telegram.ThreadID,
		}, log.With(logx.String("comp", "telegram")))
		if err != nil {
			return nil, err
		}
		ratePerSec = cfg.Telegram.RatePerSec
	} else {
		sender = notify.NewLogSender(log.With(logx.String("comp", "notify")))
		log.Info("telegram not configured; reminders will only be logged")
	}
	notif := notify.New(notify.Config{RatePerSec: ratePerSec}, sender, store,
		log.With(logx.String("comp", "notify")))

	sched := schedule.New(mapScheduleConfig(cfg), log.With(logx.String("comp", "schedule")))

	pl := planner.New(planner.Options{
		Resolver:  tzresolve.New(tzresolve.NewLocationCache()),
		Scheduler: sched,
		Deliverer: notif,
		Defaults:  mapDefaults(cfg),
		Log:       log.With(logx.String("comp", "planner")),
	})

	return &App{
		cfgPath:  cfgPath,
		cfgm:     cfgm,
		log:      log,
		logs:     logSvc,
		store:    store,
		sched:    sched,
		notif:    notif,
		plan:     pl,
		planPath: strings.TrimSpace(cfg.PlanPath),
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(c context.Context, cfg *config.Config) error {
		if err := config.Validate(cfg); err != nil {
			return err
		}
		if spec := strings.TrimSpace(cfg.Scheduler.Rebuild); spec != "" {
			if _, err := schedule.ParseRebuild(spec); err != nil {
				return fmt.Errorf("scheduler.rebuild: %w", err)
			}
		}
		return nil
	})

	a.sched.SetRebuildFunc(a.rebuild)
	if a.sched.Enabled() {
		a.sched.Start(ctx)
	}

	// The first rebuild is load-bearing: a broken plan file should fail
	// startup, not silently run without reminders.
	if err := a.rebuild(ctx); err != nil {
		return err
	}

	// Config hot-reload: watch the file and fan out committed changes.
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(ctx); err != nil && ctx.Err() == nil {
			a.log.Error("config watch failed", logx.Err(err))
		}
	}()
	sub := a.cfgm.Subscribe(8)
	go func() {
		defer a.wg.Done()
		defer a.cfgm.Unsubscribe(sub)
		last := a.cfgm.Get()
		for {
			select {
			case <-ctx.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(ctx, last, newCfg)
				last = newCfg
			}
		}
	}()

	return nil
}

func (a *App) applyConfig(ctx context.Context, oldCfg, newCfg *config.Config) {
	changed, attrs := config.SummarizeChange(oldCfg, newCfg)
	if len(changed) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(changed, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)

	a.logs.Apply(logx.Config{
		Level:   newCfg.Logging.Level,
		Console: newCfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: newCfg.Logging.File.Enabled,
			Path:    newCfg.Logging.File.Path,
		},
	})

	for _, s := range changed {
		if s == "storage" || s == "telegram" {
			a.log.Warn("storage/telegram config changed; restart required for changes to take effect")
			break
		}
	}

	a.sched.Apply(mapScheduleConfig(newCfg))
	if newCfg.Telegram != nil {
		a.notif.Apply(notify.Config{RatePerSec: newCfg.Telegram.RatePerSec})
	}
	a.plan.SetDefaults(mapDefaults(newCfg))

	a.mu.Lock()
	a.planPath = strings.TrimSpace(newCfg.PlanPath)
	a.mu.Unlock()

	if err := a.rebuild(ctx); err != nil {
		a.log.Error("rebuild after config reload failed", logx.Err(err))
	}
}

// rebuild reloads the plan file and re-plans every reminder. It runs at
// startup, after config reloads, and on the scheduler's rebuild trigger.
func (a *App) rebuild(ctx context.Context) error {
	a.mu.Lock()
	path := a.planPath
	a.mu.Unlock()

	plan, err := planner.LoadPlan(path)
	if err != nil {
		return fmt.Errorf("load plan %s: %w", path, err)
	}
	report := a.plan.Rebuild(ctx, plan)
	for _, s := range report.Skipped {
		a.log.Warn("plan entry skipped",
			logx.String("kind", s.Kind),
			logx.String("id", s.EntityID),
			logx.String("reason", s.Reason))
	}
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	a.sched.Stop(ctx)
	a.wg.Wait()
	var firstErr error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			firstErr = err
		}
	}
	if err := a.logs.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
