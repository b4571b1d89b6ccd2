package workflow

import (
	"context"

	"docmatch/internal/queue"
)

// StatusSummary exposes the manager's current state.
type StatusSummary struct {
	Running    bool                 `json:"running"`
	Workers    int                  `json:"workers"`
	LastError  string               `json:"last_error,omitempty"`
	LastBatch  *BatchSummary        `json:"last_batch,omitempty"`
	QueueStats map[queue.Status]int `json:"queue_stats"`
}

// Status returns the poll loop state along with per-status set counts.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{
		Running: m.running,
		Workers: m.workers,
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastBatch != nil {
		batch := *m.lastBatch
		summary.LastBatch = &batch
	}
	m.mu.RUnlock()

	if stats, err := m.store.Stats(ctx); err == nil {
		summary.QueueStats = stats
	}
	return summary
}
