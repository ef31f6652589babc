package schedule

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	logx "carepilot/pkg/logx"
)

func New(cfg Config, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:    cfg,
		log:    log,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		timers: map[string]*time.Timer{},
		jobAt:  map[string]time.Time{},
		jobFn:  map[string]func(ctx context.Context) error{},
		jobVer: map[string]uint64{},
	}
}

// Enabled reports the current config flag. (Thread-safe; Apply() may run concurrently.)
func (s *Service) Enabled() bool {
	s.mu.Lock()
	en := s.cfg.Enabled
	s.mu.Unlock()
	return en
}

// SetRebuildFunc installs the callback invoked by the rebuild trigger.
// Must be called before Start().
func (s *Service) SetRebuildFunc(fn func(ctx context.Context) error) {
	s.mu.Lock()
	s.rebuildFn = fn
	s.mu.Unlock()
}

// Apply updates the config. A changed rebuild spec re-registers the trigger;
// worker pool resizing requires a restart.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldRebuild := strings.TrimSpace(s.cfg.Rebuild)
	newRebuild := strings.TrimSpace(cfg.Rebuild)
	s.cfg = cfg

	if s.stopCh == nil {
		return
	}
	if oldRebuild != newRebuild {
		s.restartCronLocked()
	}
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	cur := s.cfg
	s.mu.Unlock()
	s.log.Debug("start requested",
		logx.Bool("enabled", cur.Enabled),
		logx.Int("workers", cur.Workers),
		logx.String("rebuild", strings.TrimSpace(cur.Rebuild)))

	// If a Stop() is in progress, wait for it to complete (prevents double worker pools).
	for {
		s.mu.Lock()
		if s.stopCh == nil {
			break
		}
		done := s.stopDone
		// already running (no stop in progress)
		if done == nil {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		select {
		case <-done:
			// loop and try again
		case <-ctx.Done():
			return
		}
	}
	defer s.mu.Unlock()
	s.stopCh = make(chan struct{})
	s.runCtx, s.runCancel = context.WithCancel(ctx)

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	qsize := s.cfg.QueueSize
	if qsize <= 0 {
		qsize = 64
	}
	// Fresh queue per run to avoid executing stale enqueued jobs after a stop/start toggle.
	s.queue = make(chan task, qsize)

	s.c = cron.New(cron.WithParser(s.parser), cron.WithLocation(time.UTC))
	s.registerRebuildLocked()

	// Local captures prevent races if fields are swapped/nilled during Stop().
	runCtx := s.runCtx
	stopCh := s.stopCh
	queue := s.queue

	s.workerWG.Add(workers)
	for i := 0; i < workers; i++ {
		idx := i
		go func() {
			defer s.workerWG.Done()
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("panic in worker",
						logx.Int("worker", idx),
						logx.Any("panic", r),
						logx.String("stack", string(debug.Stack())))
				}
			}()
			s.worker(runCtx, stopCh, queue)
		}()
	}
	s.c.Start()
	// Rebuild one-shot timers from persistent definitions.
	s.rebuildTimersLocked()
	s.log.Info("service started",
		logx.Int("workers", workers),
		logx.Int("pending", len(s.jobAt)))
}

func (s *Service) Stop(ctx context.Context) {
	start := time.Now()
	// If a stop is already in progress, just wait (best-effort).
	s.mu.Lock()
	if s.stopCh == nil {
		s.mu.Unlock()
		return
	}
	if s.stopDone != nil {
		done := s.stopDone
		s.mu.Unlock()
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
	done := make(chan struct{})
	s.stopDone = done
	stopCh := s.stopCh
	cancel := s.runCancel
	c := s.c
	// prevent new cron enqueues quickly
	s.c = nil
	s.runCancel = nil
	s.mu.Unlock()

	close(stopCh)
	if cancel != nil {
		cancel()
	}

	if c != nil {
		<-c.Stop().Done()
	}

	// stop runtime timers (keep definitions so they can resume on next Start())
	s.tmu.Lock()
	for _, t := range s.timers {
		_ = t.Stop()
	}
	s.timers = map[string]*time.Timer{}
	s.tmu.Unlock()

	// finalize cleanup in background so Stop() can return on timeout safely.
	go func() {
		s.workerWG.Wait()
		s.mu.Lock()
		s.stopCh = nil
		s.runCtx = nil
		s.queue = nil
		s.stopDone = nil
		s.mu.Unlock()
		close(done)
		s.log.Info("service stopped", logx.Duration("took", time.Since(start)))
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// stop continues in background
	}
}

// registerRebuildLocked wires cfg.Rebuild into the cron. Call with s.mu held
// and s.c non-nil.
func (s *Service) registerRebuildLocked() {
	spec := strings.TrimSpace(s.cfg.Rebuild)
	if spec == "" || s.rebuildFn == nil {
		return
	}
	ps, err := ParseRebuild(spec)
	if err != nil {
		s.log.Error("invalid rebuild schedule", logx.String("spec", spec), logx.Err(err))
		return
	}
	expr := ps.Cron
	if ps.Kind == RebuildInterval {
		expr = "@every " + ps.Every.String()
	}
	fn := s.rebuildFn
	timeout := s.resolveTimeoutLocked()
	if _, err := s.c.AddFunc(expr, func() {
		s.enqueue(task{name: "rebuild", timeout: timeout, run: fn})
	}); err != nil {
		s.log.Error("rebuild schedule register failed", logx.String("spec", spec), logx.Err(err))
		return
	}
	s.log.Debug("rebuild schedule registered", logx.String("spec", expr))
}

func (s *Service) restartCronLocked() {
	if s.c != nil {
		<-s.c.Stop().Done()
	}
	s.c = cron.New(cron.WithParser(s.parser), cron.WithLocation(time.UTC))
	s.registerRebuildLocked()
	s.c.Start()
	s.log.Info("rebuild trigger restarted", logx.String("spec", strings.TrimSpace(s.cfg.Rebuild)))
}

func (s *Service) resolveTimeoutLocked() time.Duration {
	if s.cfg.DefaultTimeout > 0 {
		return s.cfg.DefaultTimeout
	}
	return 30 * time.Second
}
