package workflow_test

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"docmatch/internal/api"
	"docmatch/internal/config"
	"docmatch/internal/lifecycle"
	"docmatch/internal/logging"
	"docmatch/internal/queue"
	"docmatch/internal/testsupport"
	"docmatch/internal/workflow"
)

var fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type harness struct {
	cfg     *config.Config
	store   *queue.Store
	index   *queue.Index
	manager *workflow.Manager
}

func newHarness(t *testing.T, sets ...queue.DocumentSet) harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	for _, set := range sets {
		testsupport.MustInsert(t, store, set)
	}
	index := queue.NewIndex()
	if err := index.Load(context.Background(), store); err != nil {
		t.Fatalf("index load: %v", err)
	}
	mgr := workflow.NewManager(cfg, store, index, logging.NewNop(), workflow.WithClock(func() time.Time { return fixedNow }))
	return harness{cfg: cfg, store: store, index: index, manager: mgr}
}

func mismatchedSet(id string) queue.DocumentSet {
	set := testsupport.MatchedSet(id)
	set.Invoice.LineItems[0].Quantity = 12
	set.Invoice.LineItems[0].TotalPrice = 12 * 150
	set.Invoice.TotalAmount = 12*150 + 4*420
	return set
}

func incompleteSet(id string) queue.DocumentSet {
	set := testsupport.MatchedSet(id)
	set.GoodsReceipt = nil
	return set
}

func mustGet(t *testing.T, store *queue.Store, id string) *queue.DocumentSet {
	t.Helper()
	set, err := store.GetByID(context.Background(), id)
	if err != nil || set == nil {
		t.Fatalf("GetByID(%s): set=%v err=%v", id, set, err)
	}
	return set
}

func TestEvaluateAllAppliesLifecycle(t *testing.T) {
	h := newHarness(t, testsupport.MatchedSet("a"), mismatchedSet("b"), incompleteSet("c"))

	summary, err := h.manager.EvaluateAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}
	if summary.RequestID == "" {
		t.Fatal("expected a request id on the batch")
	}
	if summary.Requested != 3 || summary.Evaluated != 3 || summary.Changed != 2 || summary.Failed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(summary.Outcomes) != 3 || summary.Outcomes[0].SetID != "a" || summary.Outcomes[2].SetID != "c" {
		t.Fatalf("expected outcomes sorted by id, got %+v", summary.Outcomes)
	}

	a := mustGet(t, h.store, "a")
	if a.Status != queue.StatusVerified || a.Verification != queue.VerificationAutoApproved {
		t.Fatalf("set a = %s/%s, want verified/auto_approved", a.Status, a.Verification)
	}
	if !a.LastActivityAt.Equal(fixedNow) {
		t.Fatalf("last activity = %v, want %v", a.LastActivityAt, fixedNow)
	}
	b := mustGet(t, h.store, "b")
	if b.Status != queue.StatusReadyForReview || b.Issues.Total() == 0 {
		t.Fatalf("set b = %s with %+v, want ready_for_review with issues", b.Status, b.Issues)
	}
	if c := mustGet(t, h.store, "c"); c.Status != queue.StatusIncomplete {
		t.Fatalf("set c = %s, want incomplete", c.Status)
	}

	indexed, _ := h.index.GetByID(context.Background(), "a")
	if indexed == nil || indexed.Status != queue.StatusVerified {
		t.Fatalf("index not republished: %+v", indexed)
	}

	trail, err := h.store.Activity(context.Background(), "a")
	if err != nil {
		t.Fatalf("Activity: %v", err)
	}
	if len(trail) != 1 || trail[0].Action != queue.ActionEvaluate || trail[0].Actor != workflow.SystemActor {
		t.Fatalf("unexpected activity trail %+v", trail)
	}
	if trail, _ := h.store.Activity(context.Background(), "c"); len(trail) != 0 {
		t.Fatalf("unchanged set should not record activity, got %+v", trail)
	}
}

func TestEvaluateAllIsIdempotent(t *testing.T) {
	h := newHarness(t, mismatchedSet("b"))

	if _, err := h.manager.EvaluateAll(context.Background(), nil); err != nil {
		t.Fatalf("first EvaluateAll: %v", err)
	}
	first := mustGet(t, h.store, "b")

	summary, err := h.manager.EvaluateAll(context.Background(), []string{"b"})
	if err != nil {
		t.Fatalf("second EvaluateAll: %v", err)
	}
	if summary.Changed != 0 {
		t.Fatalf("second pass changed %d sets", summary.Changed)
	}
	second := mustGet(t, h.store, "b")
	if second.Status != first.Status || second.Issues != first.Issues {
		t.Fatalf("re-evaluation drifted: %+v -> %+v", first.Issues, second.Issues)
	}
	if trail, _ := h.store.Activity(context.Background(), "b"); len(trail) != 1 {
		t.Fatalf("expected one activity entry, got %d", len(trail))
	}
}

func TestEvaluateAllIsolatesFailures(t *testing.T) {
	broken := testsupport.MatchedSet("bad")
	broken.Invoice.LineItems[1].UnitPrice = -420
	h := newHarness(t, broken, testsupport.MatchedSet("good"))

	summary, err := h.manager.EvaluateAll(context.Background(), []string{"bad", "good", "ghost"})
	if err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}
	if summary.Failed != 1 || summary.Evaluated != 2 || summary.Changed != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(summary.Missing) != 1 || summary.Missing[0] != "ghost" {
		t.Fatalf("expected ghost reported missing, got %v", summary.Missing)
	}

	bad := mustGet(t, h.store, "bad")
	if bad.Status != queue.StatusProcessingFailed || bad.ErrorMessage == "" {
		t.Fatalf("bad set = %s (%q), want processing_failed with reason", bad.Status, bad.ErrorMessage)
	}
	if good := mustGet(t, h.store, "good"); good.Status != queue.StatusVerified {
		t.Fatalf("good set = %s, want verified", good.Status)
	}
	trail, _ := h.store.Activity(context.Background(), "bad")
	if len(trail) != 1 || trail[0].Action != queue.ActionFail {
		t.Fatalf("expected fail activity, got %+v", trail)
	}
}

func TestEvaluateAllHonorsCancellation(t *testing.T) {
	h := newHarness(t, testsupport.MatchedSet("a"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.manager.EvaluateAll(ctx, []string{"a"}); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestStartPollsAndStops(t *testing.T) {
	h := newHarness(t, testsupport.MatchedSet("a"))

	if err := h.manager.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := h.manager.Start(context.Background()); err == nil {
		t.Fatal("expected error starting twice")
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		set := mustGet(t, h.store, "a")
		if set.Status == queue.StatusVerified {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("poll loop never evaluated set, status=%s", set.Status)
		}
		time.Sleep(20 * time.Millisecond)
	}

	status := h.manager.Status(context.Background())
	if !status.Running {
		t.Fatal("expected running status")
	}
	if status.QueueStats[queue.StatusVerified] != 1 {
		t.Fatalf("unexpected queue stats %+v", status.QueueStats)
	}

	h.manager.Stop()
	if h.manager.Status(context.Background()).Running {
		t.Fatal("expected stopped status")
	}
	h.manager.Stop()
}

func TestPollOnceKeepsIndexAgesCurrent(t *testing.T) {
	set := mismatchedSet("aged")
	set.QueuedAt = fixedNow
	h := newHarness(t, set)

	now := fixedNow
	clock := func() time.Time { return now }
	h.store.SetClock(clock)
	h.index.SetClock(clock)
	ctx := context.Background()
	queueSvc := api.NewQueueService(h.index, 20)

	h.manager.PollOnce(ctx)
	page, err := queueSvc.QueryValues(ctx, url.Values{})
	if err != nil {
		t.Fatalf("QueryValues: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].DaysInQueue != 0 || page.Items[0].PriorityScore != 1 {
		t.Fatalf("unexpected fresh page %+v", page.Items)
	}

	now = fixedNow.Add(11 * 24 * time.Hour)
	page, err = queueSvc.QueryValues(ctx, url.Values{"filter": {"urgent"}})
	if err != nil {
		t.Fatalf("QueryValues: %v", err)
	}
	if page.TotalCount != 1 {
		t.Fatalf("expected aged set to count as urgent before the next poll, got %d", page.TotalCount)
	}
	item := page.Items[0]
	if item.Status != string(queue.StatusReadyForReview) || item.DaysInQueue != 11 || item.PriorityScore != 3 {
		t.Fatalf("unexpected aged item: status=%s days=%d score=%d", item.Status, item.DaysInQueue, item.PriorityScore)
	}

	h.manager.PollOnce(ctx)
	described, err := queueSvc.Describe(ctx, "aged")
	if err != nil || described == nil {
		t.Fatalf("Describe: view=%v err=%v", described, err)
	}
	if described.DaysInQueue != 11 {
		t.Fatalf("expected 11 days after poll, got %d", described.DaysInQueue)
	}
}

func TestPollOncePicksUpWritesFromOtherProcesses(t *testing.T) {
	h := newHarness(t, mismatchedSet("r"))
	ctx := context.Background()

	h.manager.PollOnce(ctx)
	stored := mustGet(t, h.store, "r")
	if stored.Status != queue.StatusReadyForReview {
		t.Fatalf("expected ready_for_review, got %s", stored.Status)
	}

	// A second process approves the set directly in the database.
	approved, activity, err := lifecycle.Approve(*stored, "dana", fixedNow)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := h.store.Save(ctx, &approved, activity); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := h.store.Insert(ctx, ptr(mismatchedSet("late"))); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	h.manager.PollOnce(ctx)
	indexed, err := h.index.GetByID(ctx, "r")
	if err != nil || indexed == nil {
		t.Fatalf("index GetByID: set=%v err=%v", indexed, err)
	}
	if indexed.Status != queue.StatusVerified || indexed.Verification != queue.VerificationManuallyApproved {
		t.Fatalf("index still serves %s/%s", indexed.Status, indexed.Verification)
	}
	late, err := h.index.GetByID(ctx, "late")
	if err != nil || late == nil {
		t.Fatalf("expected set inserted elsewhere to be indexed, err=%v", err)
	}
	if late.Status != queue.StatusReadyForReview {
		t.Fatalf("expected late set evaluated, got %s", late.Status)
	}
}

func TestStaleEvaluationCannotOverwriteApproval(t *testing.T) {
	h := newHarness(t, mismatchedSet("r"))
	ctx := context.Background()

	workerCopy := mustGet(t, h.store, "r")

	if _, err := h.manager.EvaluateAll(ctx, []string{"r"}); err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}
	ready := mustGet(t, h.store, "r")
	approved, activity, err := lifecycle.Approve(*ready, "dana", fixedNow)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := h.store.Save(ctx, &approved, activity); err != nil {
		t.Fatalf("Save approval: %v", err)
	}

	out := lifecycle.Evaluate(*workerCopy, h.cfg.Policy(), fixedNow)
	if !out.Changed {
		t.Fatal("expected the stale copy to produce a change")
	}
	err = h.store.Update(ctx, &out.Set)
	var stale *queue.StaleSetError
	if !errors.As(err, &stale) || !errors.Is(err, queue.ErrStaleSet) {
		t.Fatalf("expected stale set error, got %v", err)
	}
	if queue.ErrorKind(err) != "conflict" {
		t.Fatalf("expected conflict kind, got %s", queue.ErrorKind(err))
	}

	final := mustGet(t, h.store, "r")
	if final.Status != queue.StatusVerified || final.Verification != queue.VerificationManuallyApproved {
		t.Fatalf("approval lost: %s/%s", final.Status, final.Verification)
	}

	summary, err := h.manager.EvaluateAll(ctx, []string{"r"})
	if err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}
	if summary.Changed != 0 || summary.Errors != 0 {
		t.Fatalf("expected verified set left alone, got %+v", summary)
	}
}

func ptr[T any](v T) *T { return &v }
