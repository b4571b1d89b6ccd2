package daemon

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"docmatch/internal/api"
	"docmatch/internal/config"
	"docmatch/internal/logging"
	"docmatch/internal/queue"
	"docmatch/internal/testsupport"
)

func newTestDaemon(t *testing.T, cfg *config.Config, sets ...queue.DocumentSet) *Daemon {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	for _, set := range sets {
		testsupport.MustInsert(t, store, set)
	}
	d, err := New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.index.Load(context.Background(), store); err != nil {
		t.Fatalf("index load: %v", err)
	}
	return d
}

func serve(t *testing.T, h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestHandleQueueSortsAndPaginates(t *testing.T) {
	d := newTestDaemon(t, testsupport.NewConfig(t),
		testsupport.MatchedSet("b", testsupport.WithVendor("Beta Office")),
		testsupport.MatchedSet("a", testsupport.WithVendor("Acme Supplies")),
		testsupport.MatchedSet("c", testsupport.WithVendor("Gamma Parts")),
	)

	w := serve(t, d.Handler(), http.MethodGet, "/api/queue?sort=vendor&page_size=2&page=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	page := decode[api.QueuePage](t, w)
	if page.TotalCount != 3 || page.TotalPages != 2 || page.Page != 2 {
		t.Fatalf("unexpected page metadata %+v", page)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "c" || page.Items[0].Rank != 3 {
		t.Fatalf("unexpected items %+v", page.Items)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected request id header")
	}
}

func TestHandleQueueRejectsMalformedFilter(t *testing.T) {
	d := newTestDaemon(t, testsupport.NewConfig(t))

	w := serve(t, d.Handler(), http.MethodGet, "/api/queue?filter=stale", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if resp := decode[api.ErrorResponse](t, w); resp.Kind != "validation" {
		t.Fatalf("unexpected error kind %q", resp.Kind)
	}
}

func TestHandleSetNotFound(t *testing.T) {
	d := newTestDaemon(t, testsupport.NewConfig(t))

	for _, target := range []string{"/api/sets/ghost", "/api/sets/ghost/activity"} {
		if w := serve(t, d.Handler(), http.MethodGet, target, ""); w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", target, w.Code)
		}
	}
	if w := serve(t, d.Handler(), http.MethodPost, "/api/sets/ghost/approve", ""); w.Code != http.StatusNotFound {
		t.Fatalf("approve missing set: expected 404, got %d", w.Code)
	}
}

func TestHandleActionConflictAndSuccess(t *testing.T) {
	d := newTestDaemon(t, testsupport.NewConfig(t),
		testsupport.MatchedSet("open"),
		testsupport.MatchedSet("review", testsupport.WithStatus(queue.StatusReadyForReview), testsupport.WithIssues(0, 2)),
	)

	w := serve(t, d.Handler(), http.MethodPost, "/api/sets/open/approve", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 approving incomplete set, got %d: %s", w.Code, w.Body.String())
	}

	w = serve(t, d.Handler(), http.MethodPost, "/api/sets/review/reject", `{"note":"wrong delivery address"}`, actorHeader, "dana")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 rejecting set, got %d: %s", w.Code, w.Body.String())
	}
	result := decode[api.ActionResult](t, w)
	if result.Set.Status != "rejected" || result.Set.ReviewNote != "wrong delivery address" || result.Activity.Actor != "dana" {
		t.Fatalf("unexpected action result %+v", result)
	}

	if w := serve(t, d.Handler(), http.MethodPost, "/api/sets/review/archive", ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown action: expected 404, got %d", w.Code)
	}
}

func TestHandleImportEvaluatesBundle(t *testing.T) {
	d := newTestDaemon(t, testsupport.NewConfig(t))
	bundle := `{"sets":[{"id":"imp-1","vendor":"Initech","documents":[
		{"kind":"invoice","approved_for_match":true,"line_items":[{"sku":"A","description":"Stapler","quantity":2,"unit_price":9.5}]},
		{"kind":"po","approved_for_match":true,"line_items":[{"sku":"A","description":"Stapler","quantity":2,"unit_price":9.5}]},
		{"kind":"grn","approved_for_match":true,"line_items":[{"sku":"A","description":"Stapler","quantity":2,"unit_price":9.5}]}
	]}]}`

	w := serve(t, d.Handler(), http.MethodPost, "/api/sets", bundle)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	imported := decode[api.ImportResult](t, w)
	if len(imported.Imported) != 1 || imported.Evaluation == nil || imported.Evaluation.Changed != 1 {
		t.Fatalf("unexpected import result %+v", imported)
	}

	w = serve(t, d.Handler(), http.MethodGet, "/api/sets/imp-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if view := decode[api.DocumentSetView](t, w); view.Status != "verified" || view.Verification != "auto_approved" {
		t.Fatalf("unexpected set view %+v", view)
	}

	if w := serve(t, d.Handler(), http.MethodPost, "/api/sets", bundle); w.Code != http.StatusConflict {
		t.Fatalf("duplicate import: expected 409, got %d", w.Code)
	}
	if w := serve(t, d.Handler(), http.MethodPost, "/api/sets", `{"sets":[{"documents":[{"kind":"memo"}]}]}`); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid bundle: expected 400, got %d", w.Code)
	}
}

func TestHandleEvaluate(t *testing.T) {
	d := newTestDaemon(t, testsupport.NewConfig(t), testsupport.MatchedSet("e1"))

	w := serve(t, d.Handler(), http.MethodPost, "/api/evaluate", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	view := decode[api.EvaluationView](t, w)
	if view.Evaluated != 1 || view.Changed != 1 || view.RequestID == "" {
		t.Fatalf("unexpected evaluation %+v", view)
	}
}

func TestAuthMiddlewareRequiresToken(t *testing.T) {
	d := newTestDaemon(t, testsupport.NewConfig(t, testsupport.WithAPIToken("s3cret")))

	if w := serve(t, d.Handler(), http.MethodGet, "/api/queue", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w := serve(t, d.Handler(), http.MethodGet, "/api/queue", "", "Authorization", "Bearer wrong"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}
	if w := serve(t, d.Handler(), http.MethodGet, "/api/queue", "", "Authorization", "Bearer s3cret"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
}

func TestHandleRemoveDropsSetFromQueue(t *testing.T) {
	d := newTestDaemon(t, testsupport.NewConfig(t), testsupport.MatchedSet("a"), testsupport.MatchedSet("b"))
	h := d.Handler()

	if w := serve(t, h, http.MethodDelete, "/api/sets/a", ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}
	if w := serve(t, h, http.MethodGet, "/api/sets/a", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after removal, got %d", w.Code)
	}
	if w := serve(t, h, http.MethodDelete, "/api/sets/a", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 removing twice, got %d", w.Code)
	}
	page := decode[api.QueuePage](t, serve(t, h, http.MethodGet, "/api/queue", ""))
	if page.TotalCount != 1 || page.Items[0].ID != "b" {
		t.Fatalf("unexpected queue after removal %+v", page)
	}
}

func TestHandleQueueAgesSetsBetweenPolls(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	queued := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	set := testsupport.MatchedSet("aging", testsupport.WithStatus(queue.StatusReadyForReview), testsupport.WithIssues(1, 0))
	set.QueuedAt = queued
	d := newTestDaemon(t, cfg, set)

	now := queued.Add(time.Hour)
	d.store.SetClock(func() time.Time { return now })

	page := decode[api.QueuePage](t, serve(t, d.Handler(), http.MethodGet, "/api/queue?filter=urgent", ""))
	if page.TotalCount != 0 {
		t.Fatalf("expected fresh set not urgent, got %+v", page.Items)
	}

	now = queued.Add(11*24*time.Hour + time.Hour)
	page = decode[api.QueuePage](t, serve(t, d.Handler(), http.MethodGet, "/api/queue?filter=urgent", ""))
	if page.TotalCount != 1 {
		t.Fatalf("expected aged set urgent, got %+v", page)
	}
	if item := page.Items[0]; item.DaysInQueue != 11 || item.PriorityScore != 3 {
		t.Fatalf("unexpected aged item days=%d score=%d", item.DaysInQueue, item.PriorityScore)
	}
}
