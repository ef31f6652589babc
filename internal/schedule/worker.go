package schedule

import (
	"context"
	"time"

	logx "carepilot/pkg/logx"
)

func (s *Service) enqueue(t task) {
	s.mu.Lock()
	q := s.queue
	s.mu.Unlock()
	if q == nil {
		s.log.Debug("service not running; dropping job", logx.String("job", t.name))
		return
	}
	select {
	case q <- t:
	default:
		s.log.Warn("queue full; dropping job",
			logx.String("job", t.name),
			logx.Int("queue_len", len(q)),
			logx.Int("queue_cap", cap(q)))
	}
}

func (s *Service) worker(ctx context.Context, stopCh <-chan struct{}, queue <-chan task) {
	for {
		// Fast-exit check so a closed stopCh wins over queued work.
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case t := <-queue:
			s.execOne(ctx, t)
		}
	}
}

func (s *Service) execOne(ctx context.Context, t task) {
	start := time.Now()

	runCtx := ctx
	var cancel func()
	if t.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, t.timeout)
	}
	err := t.run(runCtx)
	if err != nil && runCtx.Err() == nil {
		// one quick retry; delivery failures are otherwise surfaced by the caller
		time.Sleep(500 * time.Millisecond)
		err = t.run(runCtx)
	}
	if cancel != nil {
		cancel()
	}

	dur := time.Since(start)
	item := HistoryItem{Name: t.name, Started: start, Duration: dur}
	if err != nil {
		item.Error = err.Error()
		s.log.Warn("job failed", logx.String("job", t.name), logx.Err(err), logx.Duration("dur", dur))
	} else {
		s.log.Info("job fired", logx.String("job", t.name), logx.Duration("dur", dur))
	}

	s.mu.Lock()
	historySize := s.cfg.HistorySize
	s.mu.Unlock()
	if historySize <= 0 {
		historySize = 200
	}

	s.hmu.Lock()
	s.history = append(s.history, item)
	if len(s.history) > historySize {
		s.history = s.history[len(s.history)-historySize:]
	}
	s.hmu.Unlock()
}
