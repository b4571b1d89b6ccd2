package testsupport

import (
	"context"
	"testing"

	"docmatch/internal/config"
	"docmatch/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustInsert persists set and returns the stored copy.
func MustInsert(t testing.TB, store *queue.Store, set queue.DocumentSet) *queue.DocumentSet {
	t.Helper()

	if err := store.Insert(context.Background(), &set); err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	stored, err := store.GetByID(context.Background(), set.ID)
	if err != nil || stored == nil {
		t.Fatalf("store.GetByID(%s): %v", set.ID, err)
	}
	return stored
}
