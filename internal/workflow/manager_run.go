package workflow

import (
	"context"
	"errors"
	"time"

	"docmatch/internal/logging"
)

// Start launches the background poll loop.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	m.logger.Info("workflow started",
		logging.String(logging.FieldEventType, "workflow_started"),
		logging.Int("workers", m.workers),
		logging.Duration("poll_interval", m.pollInterval),
	)
	go m.pollLoop(runCtx)
	return nil
}

// Stop cancels the poll loop and waits for the in-flight batch to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("workflow stopped", logging.String(logging.FieldEventType, "workflow_stopped"))
}

func (m *Manager) pollLoop(ctx context.Context) {
	defer m.wg.Done()

	interval := m.pollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		m.PollOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// PollOnce runs one poll cycle: it evaluates every open set, then refreshes
// the index from the store.
func (m *Manager) PollOnce(ctx context.Context) {
	summary, err := m.EvaluateAll(ctx, nil)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.WarnWithContext(m.logger, "evaluation poll failed", "workflow_poll_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check database health with 'docmatch queue status'"),
			logging.String(logging.FieldImpact, "open sets wait for the next poll"),
		)
		m.setLastResult(nil, err)
		m.refreshIndex(ctx)
		return
	}
	m.setLastResult(&summary, nil)
	m.refreshIndex(ctx)
}

// refreshIndex republishes the index from the store so writes made by other
// processes, such as the CLI, become visible to queries.
func (m *Manager) refreshIndex(ctx context.Context) {
	if m.index == nil {
		return
	}
	if err := m.index.Load(ctx, m.store); err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.WarnWithContext(m.logger, "index refresh failed", "index_refresh_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "queue queries serve the previous snapshot until the next poll"),
		)
	}
}
