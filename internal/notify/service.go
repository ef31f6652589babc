package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"carepilot/internal/storage"
	logx "carepilot/pkg/logx"
)

// Config controls delivery.
type Config struct {
	// RatePerSec caps outgoing sends. Default 3.
	RatePerSec int
	// DedupeTTL is how long a delivered dedupe key is remembered. Default 48h,
	// which covers the at-most-once-per-local-day window across all zones.
	DedupeTTL time.Duration
}

// Message is one fired reminder ready for delivery.
type Message struct {
	JobID        string
	DedupeKey    string
	Kind         string // appointment, refill, follow_up
	EntityID     string
	LocalDateKey string
	FireAt       time.Time
	Text         string
	// Priority elevates the message prefix: >=8 urgent, >=5 notice.
	Priority int
}

// HistoryItem records one delivery attempt outcome.
type HistoryItem struct {
	At     time.Time
	JobID  string
	Status string
	Error  string
}

// Service is the delivery pipeline: dedupe gate, rate limit, send, audit.
type Service struct {
	log    logx.Logger
	sender Sender
	store  storage.Store

	mu      sync.Mutex
	cfg     Config
	limiter *rate.Limiter

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, sender Sender, store storage.Store, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{log: log, sender: sender, store: store}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 3
	}
	if cfg.DedupeTTL <= 0 {
		cfg.DedupeTTL = 48 * time.Hour
	}
	s.cfg = cfg
	// Token bucket: burst = rate per sec, so short spikes don't block too hard.
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Deliver sends one fired reminder. A dedupe key that was already delivered
// is skipped and audited as skipped_duplicate, not an error.
func (s *Service) Deliver(ctx context.Context, m Message) error {
	start := time.Now()

	s.mu.Lock()
	lim := s.limiter
	ttl := s.cfg.DedupeTTL
	s.mu.Unlock()

	if s.store != nil && m.DedupeKey != "" {
		_, seen, err := s.store.GetDedupe(ctx, m.DedupeKey)
		if err != nil {
			// A broken store must not silence a reminder; log and proceed.
			s.log.Warn("dedupe lookup failed", logx.String("key", m.DedupeKey), logx.Err(err))
		} else if seen {
			s.log.Info("reminder suppressed (already delivered)",
				logx.String("job", m.JobID),
				logx.String("key", m.DedupeKey))
			s.audit(ctx, m, storage.DeliverySkipped, nil, start)
			return nil
		}
	}

	if err := lim.Wait(ctx); err != nil {
		return err
	}

	err := s.sender.Send(ctx, prefixForPriority(m.Priority)+m.Text)
	if err != nil {
		s.log.Warn("delivery failed", logx.String("job", m.JobID), logx.Err(err))
		s.audit(ctx, m, storage.DeliveryFailed, err, start)
		return fmt.Errorf("deliver %s: %w", m.JobID, err)
	}

	s.log.Info("reminder delivered",
		logx.String("job", m.JobID),
		logx.String("kind", m.Kind),
		logx.String("key", m.DedupeKey))

	if s.store != nil && m.DedupeKey != "" {
		if err := s.store.PutDedupe(ctx, m.DedupeKey, time.Now().Add(ttl)); err != nil {
			s.log.Warn("dedupe persist failed", logx.String("key", m.DedupeKey), logx.Err(err))
		}
	}
	s.audit(ctx, m, storage.DeliverySent, nil, start)
	return nil
}

func (s *Service) audit(ctx context.Context, m Message, status string, sendErr error, start time.Time) {
	item := HistoryItem{At: time.Now(), JobID: m.JobID, Status: status}
	if sendErr != nil {
		item.Error = sendErr.Error()
	}
	s.hmu.Lock()
	s.history = append(s.history, item)
	if len(s.history) > 300 {
		s.history = s.history[len(s.history)-300:]
	}
	s.hmu.Unlock()

	if s.store == nil {
		return
	}
	rec := storage.DeliveryRecord{
		At:           item.At,
		JobID:        m.JobID,
		DedupeKey:    m.DedupeKey,
		Kind:         m.Kind,
		EntityID:     m.EntityID,
		LocalDateKey: m.LocalDateKey,
		FireAt:       m.FireAt,
		Status:       status,
		Error:        item.Error,
		TookMS:       time.Since(start).Milliseconds(),
	}
	if err := s.store.AppendDelivery(ctx, rec); err != nil {
		s.log.Warn("delivery audit failed", logx.String("job", m.JobID), logx.Err(err))
	}
}

// Snapshot returns recent delivery outcomes.
func (s *Service) Snapshot() []HistoryItem {
	s.hmu.Lock()
	out := append([]HistoryItem(nil), s.history...)
	s.hmu.Unlock()
	return out
}

func prefixForPriority(p int) string {
	switch {
	case p >= 8:
		return "🚨 "
	case p >= 5:
		return "⚠️ "
	default:
		return ""
	}
}
