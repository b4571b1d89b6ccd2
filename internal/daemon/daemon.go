package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/gofrs/flock"

	"docmatch/internal/api"
	"docmatch/internal/config"
	"docmatch/internal/logging"
	"docmatch/internal/queue"
	"docmatch/internal/workflow"
)

// Daemon coordinates background evaluation and the HTTP API, and enforces
// single-instance execution per data directory.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	index    *queue.Index
	workflow *workflow.Manager
	queueSvc *api.QueueService
	actions  *api.ActionService
	server   *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Bind         string
	DatabasePath string
	LockFilePath string
	IndexedSets  int
	Workflow     workflow.StatusSummary
}

// New constructs a daemon around an open store.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	logger = logging.NewComponentLogger(logger, "daemon")
	index := queue.NewIndex()
	index.SetClock(store.Now)
	wf := workflow.NewManager(cfg, store, index, logger)
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		index:    index,
		workflow: wf,
		queueSvc: api.NewQueueService(index, cfg.Queue.PageSize),
		actions:  api.NewActionService(store, index, wf, logger),
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.server = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, loads the queue index, and launches the
// workflow poll loop and HTTP server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another docmatch daemon instance is already serving this data directory")
	}

	if err := d.index.Load(ctx, d.store); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("load queue index: %w", err)
	}
	logging.CleanupOldLogs(d.logger, d.cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     d.cfg.Paths.LogDir,
		Pattern: "*.log",
		Exclude: []string{d.cfg.LogPath()},
	})

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.workflow.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := d.server.start(runCtx); err != nil {
		d.workflow.Stop()
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("docmatch daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("address", d.server.addr()),
		logging.Int("indexed_sets", d.index.Len()),
	)
	return nil
}

// Stop stops background processing, shuts the HTTP server down, and releases
// the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.server.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_unlock_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the lock file if no daemon is running"),
			logging.String(logging.FieldImpact, "next start may report another instance"),
		)
	}
	d.running.Store(false)
	d.logger.Info("docmatch daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports runtime state for the status endpoint.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Bind:         d.server.addr(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		IndexedSets:  d.index.Len(),
		Workflow:     d.workflow.Status(ctx),
	}
}

// Addr returns the address the HTTP server listens on once started.
func (d *Daemon) Addr() string {
	return d.server.addr()
}

// Handler exposes the HTTP routes without a listener.
func (d *Daemon) Handler() http.Handler {
	return d.server.router
}
