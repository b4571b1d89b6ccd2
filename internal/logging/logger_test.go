package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"docmatch/internal/logging"
	"docmatch/internal/testsupport"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestConsoleLoggerFormatsSubject(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "workflow").Info("set evaluated",
		logging.SetID("set-42"),
		logging.String(logging.FieldStatus, "verified"),
		logging.String(logging.FieldRequestID, "req-1"),
	)

	content := readLog(t, logPath)
	for _, want := range []string{"INFO [workflow] Set set-42 – set evaluated", "- status: verified", "+ 1 more field hidden"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in console output, got %q", want, content)
		}
	}
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("message with caller", logging.String(logging.FieldRequestID, "req-2"))

	content := readLog(t, logPath)
	if !strings.Contains(content, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
	if !strings.Contains(content, "request_id: req-2") {
		t.Fatalf("expected debug output to show request_id, got %q", content)
	}
}

func TestJSONLoggerShape(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("tolerance exceeded", logging.SetID("set-7"))

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["level"] != "warn" || record["msg"] != "tolerance exceeded" || record["set_id"] != "set-7" {
		t.Fatalf("unexpected record %v", record)
	}
	ts, _ := record["ts"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Fatalf("ts %q is not RFC3339: %v", ts, err)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigTeesIntoLogFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Logging.Level = "info"

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("daemon started", logging.String(logging.FieldEventType, "daemon_started"))

	if !strings.Contains(readLog(t, cfg.LogPath()), `"event_type":"daemon_started"`) {
		t.Fatal("expected JSON record in configured log file")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := logging.WithSetID(context.Background(), "set-9")
	ctx = logging.WithRequestID(ctx, "req-xyz")
	logging.WithContext(ctx, base).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record[logging.FieldSetID] != "set-9" {
		t.Fatalf("set_id = %v", record[logging.FieldSetID])
	}
	if record[logging.FieldRequestID] != "req-xyz" {
		t.Fatalf("request_id = %v", record[logging.FieldRequestID])
	}
}

func TestWithContextWithoutFieldsReturnsLogger(t *testing.T) {
	base := logging.NewNop()
	if got := logging.WithContext(context.Background(), base); got != base {
		t.Fatal("expected the same logger when context carries no fields")
	}
}

func TestCleanupOldLogsHonoursExclusions(t *testing.T) {
	dir := t.TempDir()
	current := filepath.Join(dir, "docmatch.log")
	testsupport.WriteFile(t, current, "current")
	past := time.Now().AddDate(0, 0, -90)
	if err := os.Chtimes(current, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), 7, logging.RetentionTarget{Dir: dir, Pattern: "*.log", Exclude: []string{current}})
	if removed != 0 {
		t.Fatalf("expected excluded file kept, removed %d", removed)
	}
	if logging.CleanupOldLogs(logging.NewNop(), 0, logging.RetentionTarget{Dir: dir}) != 0 {
		t.Fatal("expected zero retention to disable pruning")
	}
}

func TestCleanupOldLogsRemovesExpiredFiles(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "docmatch-old.log")
	freshPath := filepath.Join(dir, "docmatch.log")
	testsupport.WriteFile(t, oldPath, "old")
	testsupport.WriteFile(t, freshPath, "fresh")
	past := time.Now().AddDate(0, 0, -40)
	if err := os.Chtimes(oldPath, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), 30, logging.RetentionTarget{Dir: dir, Pattern: "*.log"})
	if removed != 1 {
		t.Fatalf("expected 1 file removed, got %d", removed)
	}

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected expired log removed, stat err=%v", err)
	}
	if _, err := os.Stat(freshPath); err != nil {
		t.Fatalf("expected fresh log kept: %v", err)
	}
}
