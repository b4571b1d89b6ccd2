package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// HealthSummary aggregates set counts for status output.
type HealthSummary struct {
	Total          int `json:"total"`
	Incomplete     int `json:"incomplete"`
	ReadyForReview int `json:"ready_for_review"`
	Verified       int `json:"verified"`
	Rejected       int `json:"rejected"`
	Failed         int `json:"processing_failed"`
}

// DatabaseHealth describes the on-disk state of the queue database.
type DatabaseHealth struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	SchemaVersion    int      `json:"schema_version"`
	MissingTables    []string `json:"missing_tables,omitempty"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalSets        int      `json:"total_sets"`
	Error            string   `json:"error,omitempty"`
}

// Stats returns a count of sets grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM document_sets GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates queue state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	return SummarizeStats(stats), nil
}

// SummarizeStats folds per-status counts into a HealthSummary.
func SummarizeStats(stats map[Status]int) HealthSummary {
	var health HealthSummary
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusIncomplete:
			health.Incomplete += count
		case StatusReadyForReview:
			health.ReadyForReview += count
		case StatusVerified:
			health.Verified += count
		case StatusRejected:
			health.Rejected += count
		case StatusProcessingFailed:
			health.Failed += count
		}
	}
	return health
}

// CheckHealth returns diagnostic information about the queue database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}
	if s.path == "" {
		return health, errors.New("queue database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat queue database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("queue database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	connCtx, cancel := context.WithTimeout(ensureContext(ctx), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping queue database: %w", err)
	}
	health.DatabaseReadable = true

	for _, table := range []string{"schema_version", "document_sets", "documents", "set_activity"} {
		var name string
		err := s.db.QueryRowContext(connCtx,
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		if errors.Is(err, sql.ErrNoRows) {
			health.MissingTables = append(health.MissingTables, table)
			continue
		}
		if err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
	}
	if len(health.MissingTables) > 0 {
		return health, nil
	}

	if health.SchemaVersion, err = s.SchemaVersion(connCtx); err != nil {
		health.Error = err.Error()
		return health, err
	}
	if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM document_sets").Scan(&health.TotalSets); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("count document sets: %w", err)
	}

	var integrity string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&integrity); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrity, "ok")
	return health, nil
}
