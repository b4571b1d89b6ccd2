package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"docmatch/internal/config"
	"docmatch/internal/logging"
	"docmatch/internal/queue"
)

// SystemActor is recorded on activity entries written by automatic evaluation.
const SystemActor = "system"

// Manager coordinates evaluation of document sets.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	index        *queue.Index
	logger       *slog.Logger
	pollInterval time.Duration
	workers      int
	now          func() time.Time

	mu        sync.RWMutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastErr   error
	lastBatch *BatchSummary
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithClock overrides the time source used for activity timestamps.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager constructs a workflow manager. index may be nil when no
// in-memory view needs to be kept current.
func NewManager(cfg *config.Config, store *queue.Store, index *queue.Index, logger *slog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		cfg:          cfg,
		store:        store,
		index:        index,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		pollInterval: cfg.PollInterval(),
		workers:      max(cfg.Workflow.Workers, 1),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) setLastResult(summary *BatchSummary, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if summary != nil {
		m.lastBatch = summary
	}
	m.lastErr = err
}
