package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "carepilot/pkg/logx"
)

// Config controls the trigger service.
type Config struct {
	Enabled bool
	Workers int // default 2
	// QueueSize bounds fired jobs waiting for a worker. Default 64.
	QueueSize int
	// DefaultTimeout caps a single job execution. Default 30s.
	DefaultTimeout time.Duration
	// Rebuild re-plans reminders on a schedule: a cron spec ("@daily",
	// "0 6 * * *") or an interval ("12h", "02:30"). Empty disables it.
	Rebuild string
	// HistorySize caps the kept execution history. Default 200.
	HistorySize int
}

type task struct {
	name    string
	timeout time.Duration
	run     func(ctx context.Context) error
}

// HistoryItem records one completed job execution.
type HistoryItem struct {
	Name     string
	Started  time.Time
	Duration time.Duration
	Error    string
}

// JobInfo describes one pending one-shot job.
type JobInfo struct {
	Name string
	At   time.Time
}

// Snapshot is a point-in-time view for status reporting.
type Snapshot struct {
	Enabled  bool
	Workers  int
	QueueLen int
	QueueCap int
	Rebuild  string
	Pending  []JobInfo
	History  []HistoryItem
}

// Service owns the pending timers, the rebuild cron and the worker pool.
type Service struct {
	mu  sync.Mutex
	log logx.Logger
	cfg Config

	parser cron.Parser
	c      *cron.Cron

	rebuildFn func(ctx context.Context) error

	queue  chan task
	stopCh chan struct{}
	// stopDone is non-nil while a Stop() is in progress; it is closed when
	// workers fully exit.
	stopDone chan struct{}

	// one-shot jobs (timers are runtime; jobAt/jobFn are persistent
	// definitions rebuilt on every Start)
	tmu    sync.Mutex
	timers map[string]*time.Timer
	jobAt  map[string]time.Time
	jobFn  map[string]func(ctx context.Context) error
	jobVer map[string]uint64

	hmu     sync.Mutex
	history []HistoryItem

	runCtx    context.Context
	runCancel context.CancelFunc
	workerWG  sync.WaitGroup
}
