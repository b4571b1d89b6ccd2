package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"docmatch/internal/api"
	"docmatch/internal/logging"
	"docmatch/internal/queue"
	"docmatch/internal/testsupport"
)

func TestDaemonStartServesAndLocks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newTestDaemon(t, cfg, testsupport.MatchedSet("s1"))

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected error starting twice")
	}

	otherStore, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	other, err := New(cfg, otherStore, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := other.Start(context.Background()); err == nil {
		other.Stop()
		t.Fatal("expected second daemon to fail acquiring the lock")
	}
	_ = otherStore.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + d.Addr() + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var status api.DaemonStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running || status.IndexedSets != 1 || !status.Workflow.Running {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestDaemonStopReleasesLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newTestDaemon(t, cfg)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	d.Stop()
	if d.Status(context.Background()).Running {
		t.Fatal("expected daemon stopped")
	}

	next := newTestDaemon(t, cfg)
	if err := next.Start(context.Background()); err != nil {
		t.Fatalf("restart after stop: %v", err)
	}
	next.Stop()
}
