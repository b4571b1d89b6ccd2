package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"docmatch/internal/queue"
	"docmatch/internal/testsupport"
)

func TestOpenCreatesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	version, err := store.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != 2 {
		t.Fatalf("unexpected schema version %d", version)
	}
	if store.Path() != cfg.DatabasePath() {
		t.Fatalf("unexpected store path %q", store.Path())
	}
}

func TestInsertRoundTripsDocuments(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	set := testsupport.MatchedSet("set-1", testsupport.WithPriority(queue.PriorityHigh))
	set.AssignedTo = "dana"
	stored := testsupport.MustInsert(t, store, set)

	if stored.Status != queue.StatusIncomplete {
		t.Fatalf("unexpected status %q", stored.Status)
	}
	if stored.PriorityFlag != queue.PriorityHigh || stored.AssignedTo != "dana" {
		t.Fatalf("unexpected set fields: %+v", stored)
	}
	if !stored.DocumentsPresent().Complete() {
		t.Fatalf("expected all documents present, got %+v", stored.DocumentsPresent())
	}
	if got := len(stored.Invoice.LineItems); got != 2 {
		t.Fatalf("expected 2 invoice line items, got %d", got)
	}
	if stored.PurchaseOrder.LineItems[1].SKU != "DSK-200" {
		t.Fatalf("unexpected PO line item: %+v", stored.PurchaseOrder.LineItems[1])
	}
	if !stored.GoodsReceipt.ApprovedForMatch {
		t.Fatal("expected approval flag to round trip")
	}
	if stored.QueuedAt.IsZero() || stored.LastActivityAt.IsZero() {
		t.Fatal("expected timestamps to be assigned")
	}
}

func TestInsertAssignsIdentifier(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	set := testsupport.NewSet("", nil)
	if err := store.Insert(context.Background(), &set); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if set.ID == "" {
		t.Fatal("expected generated id")
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	set, err := store.GetByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if set != nil {
		t.Fatalf("expected nil, got %+v", set)
	}
}

func TestUpdateReplacesDocuments(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	stored := testsupport.MustInsert(t, store, testsupport.MatchedSet("set-2"))
	stored.GoodsReceipt = nil
	stored.Status = queue.StatusReadyForReview
	stored.Issues = queue.IssueCounts{Major: 1, Minor: 2}
	if err := store.Update(ctx, stored); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	reloaded, err := store.GetByID(ctx, "set-2")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if reloaded.GoodsReceipt != nil {
		t.Fatal("expected GRN to be removed")
	}
	if reloaded.Status != queue.StatusReadyForReview || reloaded.Issues.Total() != 3 {
		t.Fatalf("unexpected reloaded set: %+v", reloaded)
	}
}

func TestUpdateMissingSetReturnsNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	set := testsupport.NewSet("ghost", nil)
	err := store.Update(context.Background(), &set)
	if !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListFiltersByStatusAndRecomputesAge(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	old := testsupport.MatchedSet("old", testsupport.WithStatus(queue.StatusReadyForReview))
	old.QueuedAt = now.Add(-9*24*time.Hour - time.Hour)
	testsupport.MustInsert(t, store, old)
	testsupport.MustInsert(t, store, testsupport.MatchedSet("fresh"))

	ready, err := store.List(ctx, queue.StatusReadyForReview)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ready) != 1 || ready[0].ID != "old" {
		t.Fatalf("unexpected filtered list: %+v", ready)
	}
	if ready[0].DaysInQueue != 9 {
		t.Fatalf("expected 9 days in queue, got %d", ready[0].DaysInQueue)
	}
	if ready[0].Invoice == nil {
		t.Fatal("expected documents to be attached")
	}

	store.SetClock(func() time.Time { return now.Add(48 * time.Hour) })
	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 sets, got %d", len(all))
	}
	if all[0].ID != "old" || all[0].DaysInQueue != 11 {
		t.Fatalf("expected age to advance with the clock, got %s=%d", all[0].ID, all[0].DaysInQueue)
	}
}

func TestStatsAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.MustInsert(t, store, testsupport.MatchedSet("a"))
	testsupport.MustInsert(t, store, testsupport.MatchedSet("b", testsupport.WithStatus(queue.StatusVerified)))
	testsupport.MustInsert(t, store, testsupport.MatchedSet("c", testsupport.WithStatus(queue.StatusProcessingFailed)))

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 3 || health.Incomplete != 1 || health.Verified != 1 || health.Failed != 1 {
		t.Fatalf("unexpected health summary: %+v", health)
	}

	db, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !db.DatabaseExists || !db.DatabaseReadable || !db.IntegrityCheck {
		t.Fatalf("unexpected database health: %+v", db)
	}
	if db.TotalSets != 3 || len(db.MissingTables) != 0 {
		t.Fatalf("unexpected database health: %+v", db)
	}
}

func TestDeleteRemovesSetAndActivity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	stored := testsupport.MustInsert(t, store, testsupport.MatchedSet("gone"))
	if _, err := store.Save(ctx, stored, queue.Activity{Action: queue.ActionAssign, Actor: "dana"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	removed, err := store.Delete(ctx, "gone")
	if err != nil || !removed {
		t.Fatalf("Delete = %v, %v", removed, err)
	}
	if set, _ := store.GetByID(ctx, "gone"); set != nil {
		t.Fatal("expected set to be deleted")
	}
	entries, err := store.Activity(ctx, "gone")
	if err != nil {
		t.Fatalf("Activity failed: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected activity to be deleted, got %d entries", len(entries))
	}

	removed, err = store.Delete(ctx, "gone")
	if err != nil || removed {
		t.Fatalf("second Delete = %v, %v", removed, err)
	}
}

func TestActivityTrailIsOrdered(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	stored := testsupport.MustInsert(t, store, testsupport.MatchedSet("trail"))
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	entries := []queue.Activity{
		{SetID: "trail", Action: queue.ActionEvaluate, From: queue.StatusIncomplete, To: queue.StatusReadyForReview, At: base},
		{SetID: "trail", Action: queue.ActionApprove, From: queue.StatusReadyForReview, To: queue.StatusVerified, Actor: "sam", At: base.Add(time.Hour)},
	}
	for _, entry := range entries {
		stored.Status = entry.To
		if _, err := store.Save(ctx, stored, entry); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	got, err := store.Activity(ctx, "trail")
	if err != nil {
		t.Fatalf("Activity failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Action != queue.ActionEvaluate || got[1].Actor != "sam" {
		t.Fatalf("unexpected trail: %+v", got)
	}
	if got[1].To != queue.StatusVerified || got[1].ID == "" {
		t.Fatalf("unexpected approve entry: %+v", got[1])
	}
	if !got[0].At.Equal(base) {
		t.Fatalf("unexpected timestamp %v", got[0].At)
	}
}

func TestClearRemovesEverything(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.MustInsert(t, store, testsupport.MatchedSet("x"))
	testsupport.MustInsert(t, store, testsupport.MatchedSet("y"))

	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	sets, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(sets) != 0 {
		t.Fatalf("expected empty queue, got %d", len(sets))
	}
}

func TestUpdateRejectsStaleCopy(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.MustInsert(t, store, testsupport.MatchedSet("v1"))
	second, err := store.GetByID(ctx, "v1")
	if err != nil || second == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if first.Version != 1 {
		t.Fatalf("expected version 1 after insert, got %d", first.Version)
	}

	first.Status = queue.StatusReadyForReview
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if first.Version != 2 {
		t.Fatalf("expected version to advance to 2, got %d", first.Version)
	}

	second.Status = queue.StatusRejected
	err = store.Update(ctx, second)
	var stale *queue.StaleSetError
	if !errors.As(err, &stale) || stale.ID != "v1" {
		t.Fatalf("expected StaleSetError, got %v", err)
	}
	if queue.ErrorKind(err) != "conflict" {
		t.Fatalf("expected conflict kind, got %q", queue.ErrorKind(err))
	}

	reloaded, err := store.GetByID(ctx, "v1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if reloaded.Status != queue.StatusReadyForReview || reloaded.Version != 2 {
		t.Fatalf("stale write leaked: %+v", reloaded)
	}
}

func TestSaveWritesActivityOnlyWithTheSet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	stored := testsupport.MustInsert(t, store, testsupport.MatchedSet("s1"))
	stale := *stored

	stored.AssignedTo = "dana"
	if _, err := store.Save(ctx, stored, queue.Activity{Action: queue.ActionAssign, Actor: "dana"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	stale.AssignedTo = "lee"
	if _, err := store.Save(ctx, &stale, queue.Activity{Action: queue.ActionAssign, Actor: "lee"}); !errors.Is(err, queue.ErrStaleSet) {
		t.Fatalf("expected ErrStaleSet, got %v", err)
	}

	trail, err := store.Activity(ctx, "s1")
	if err != nil {
		t.Fatalf("Activity failed: %v", err)
	}
	if len(trail) != 1 || trail[0].Actor != "dana" {
		t.Fatalf("expected only the committed entry, got %+v", trail)
	}
}

func TestInsertAllIsAtomic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.MatchedSet("p1")
	second := testsupport.MatchedSet("p2")
	second.Invoice.ID = first.Invoice.ID

	entry := func(set queue.DocumentSet) queue.Activity {
		return queue.Activity{SetID: set.ID, Action: queue.ActionImport, To: set.Status}
	}
	if _, _, err := store.InsertAll(ctx, []queue.DocumentSet{first, second}, entry); err == nil {
		t.Fatal("expected duplicate document id to fail the batch")
	}
	got, err := store.GetByID(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Fatal("expected no set written when the batch fails")
	}
	trail, err := store.Activity(ctx, "p1")
	if err != nil {
		t.Fatalf("Activity failed: %v", err)
	}
	if len(trail) != 0 {
		t.Fatalf("expected no activity, got %+v", trail)
	}

	second.Invoice.ID = ""
	sets, entries, err := store.InsertAll(ctx, []queue.DocumentSet{first, second}, entry)
	if err != nil {
		t.Fatalf("InsertAll failed: %v", err)
	}
	if len(sets) != 2 || len(entries) != 2 || sets[1].Version != 1 || entries[1].ID == "" {
		t.Fatalf("unexpected InsertAll result: %+v %+v", sets, entries)
	}
}
