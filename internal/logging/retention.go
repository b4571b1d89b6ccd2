package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RetentionTarget names a directory, an optional glob of files to prune in it,
// and files that must survive regardless of age.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// CleanupOldLogs removes files under targets whose modification time is more
// than retentionDays old and returns how many were removed. Zero or negative
// retention disables pruning. Failures are logged and skipped.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) int {
	if retentionDays <= 0 {
		return 0
	}
	logger = NewComponentLogger(logger, "retention")
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	removed := 0
	for _, target := range targets {
		removed += target.prune(logger, cutoff)
	}
	if removed > 0 {
		logger.Info("old logs pruned",
			String(FieldEventType, "logs_pruned"),
			Int("removed", removed),
			Int("retention_days", retentionDays),
		)
	}
	return removed
}

func (t RetentionTarget) prune(logger *slog.Logger, cutoff time.Time) int {
	dir := strings.TrimSpace(t.Dir)
	if dir == "" {
		return 0
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	keep := t.excluded()

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !t.matches(entry.Name()) {
			continue
		}
		path := absPath(filepath.Join(dir, entry.Name()))
		if _, skip := keep[path]; skip {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("log_path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions on paths.log_dir"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
	}
	return removed
}

func (t RetentionTarget) matches(name string) bool {
	pattern := strings.TrimSpace(t.Pattern)
	if pattern == "" {
		return true
	}
	ok, err := filepath.Match(pattern, name)
	return err == nil && ok
}

func (t RetentionTarget) excluded() map[string]struct{} {
	keep := make(map[string]struct{}, len(t.Exclude))
	for _, path := range t.Exclude {
		if path = strings.TrimSpace(path); path != "" {
			keep[absPath(path)] = struct{}{}
		}
	}
	return keep
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
