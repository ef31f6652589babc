package schedule

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	logx "carepilot/pkg/logx"
)

// ScheduleOnce registers a one-shot job firing at the given UTC instant,
// upserting by name: an existing job with the same name is replaced. An
// instant in the past fires immediately. Safe to call before Start(); the
// timer is created when the service starts.
func (s *Service) ScheduleOnce(name string, at time.Time, job func(ctx context.Context) error) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("name required")
	}
	if at.IsZero() {
		return errors.New("at required")
	}
	if job == nil {
		return errors.New("job required")
	}

	s.mu.Lock()
	running := s.stopCh != nil
	timeout := s.resolveTimeoutLocked()
	s.mu.Unlock()

	s.tmu.Lock()
	defer s.tmu.Unlock()

	// upsert: stop existing timer with the same name
	if t, ok := s.timers[name]; ok {
		_ = t.Stop()
		delete(s.timers, name)
	}
	// bump version to ignore stale callbacks from previously scheduled timers
	ver := s.jobVer[name] + 1
	s.jobVer[name] = ver
	s.jobAt[name] = at
	s.jobFn[name] = job

	if running {
		s.armTimerTLocked(name, at, ver, timeout)
	}
	return nil
}

// Remove unschedules the named job. It returns true if something was removed.
// Safe to call even when the service is not started.
func (s *Service) Remove(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	removed := false
	s.tmu.Lock()
	if t, ok := s.timers[name]; ok {
		_ = t.Stop()
		delete(s.timers, name)
		removed = true
	}
	if _, ok := s.jobAt[name]; ok {
		delete(s.jobAt, name)
		removed = true
	}
	if _, ok := s.jobFn[name]; ok {
		delete(s.jobFn, name)
		removed = true
	}
	if _, ok := s.jobVer[name]; ok {
		delete(s.jobVer, name)
		removed = true
	}
	s.tmu.Unlock()

	if removed {
		s.log.Debug("job removed", logx.String("name", name))
	}
	return removed
}

// Names returns the names of all pending jobs, sorted.
func (s *Service) Names() []string {
	s.tmu.Lock()
	names := make([]string, 0, len(s.jobAt))
	for n := range s.jobAt {
		names = append(names, n)
	}
	s.tmu.Unlock()
	sort.Strings(names)
	return names
}

// Prune removes every pending job whose name is not in keep. It returns the
// removed names. Used after a plan rebuild to drop reminders for deleted
// entries.
func (s *Service) Prune(keep map[string]bool) []string {
	var stale []string
	for _, n := range s.Names() {
		if !keep[n] {
			stale = append(stale, n)
		}
	}
	for _, n := range stale {
		s.Remove(n)
	}
	return stale
}

// armTimerTLocked creates the runtime timer for a persisted definition.
// Call with s.tmu held.
func (s *Service) armTimerTLocked(name string, at time.Time, ver uint64, timeout time.Duration) {
	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}
	timer := time.AfterFunc(delay, func() {
		// If the job was removed or replaced, ignore this callback.
		s.tmu.Lock()
		curVer := s.jobVer[name]
		jobNow := s.jobFn[name]
		_, okAt := s.jobAt[name]
		if curVer != ver || jobNow == nil || !okAt {
			s.tmu.Unlock()
			return
		}
		// cleanup persisted definition first (prevents double-exec on restart)
		delete(s.timers, name)
		delete(s.jobAt, name)
		delete(s.jobFn, name)
		delete(s.jobVer, name)
		s.tmu.Unlock()

		s.enqueue(task{name: name, timeout: timeout, run: jobNow})
	})
	s.timers[name] = timer
}

// rebuildTimersLocked recreates runtime timers from the persisted job
// definitions. Call with s.mu held.
func (s *Service) rebuildTimersLocked() {
	timeout := s.resolveTimeoutLocked()

	s.tmu.Lock()
	defer s.tmu.Unlock()
	// stop any existing timers (should already be empty after Stop())
	for _, t := range s.timers {
		_ = t.Stop()
	}
	s.timers = map[string]*time.Timer{}

	for name, at := range s.jobAt {
		if s.jobFn[name] == nil {
			delete(s.jobAt, name)
			delete(s.jobFn, name)
			delete(s.jobVer, name)
			continue
		}
		ver := s.jobVer[name]
		if ver == 0 {
			ver = 1
			s.jobVer[name] = ver
		}
		s.armTimerTLocked(name, at, ver, timeout)
	}
}
