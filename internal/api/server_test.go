package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/inkwell/internal/analytics"
	"github.com/sadopc/inkwell/internal/pipeline"
	"github.com/sadopc/inkwell/internal/store"
)

type testEnv struct {
	srv   *Server
	store *store.Store
	user  *store.User
}

type recordingQueue struct {
	ids []string
}

func (q *recordingQueue) Enqueue(id string) bool {
	q.ids = append(q.ids, id)
	return true
}

func newTestEnv(t *testing.T, q Enqueuer) *testEnv {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	u, err := s.EnsureUser(context.Background(), "api")
	if err != nil {
		t.Fatal(err)
	}
	srv := NewServer(Config{UserID: u.ID}, Deps{
		Store:     s,
		Analyzer:  pipeline.New(pipeline.FromStore(s)),
		Analytics: analytics.New(s),
		Queue:     q,
	})
	return &testEnv{srv: srv, store: s, user: u}
}

func (env *testEnv) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := env.srv.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var out map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: invalid JSON %q", method, path, raw)
		}
	}
	return resp.StatusCode, out
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("missing data object in %v", body)
	}
	return d
}

// ============================================================
// Health
// ============================================================

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, nil)
	code, body := env.do(t, http.MethodGet, "/healthz", "")
	if code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("healthz = %d %v", code, body)
	}
}

// ============================================================
// Entries
// ============================================================

func TestCreateAndGetEntry(t *testing.T) {
	q := &recordingQueue{}
	env := newTestEnv(t, q)

	code, body := env.do(t, http.MethodPost, "/api/v1/entries", `{"title":"Day one","content":"A good start."}`)
	if code != http.StatusCreated {
		t.Fatalf("create = %d %v", code, body)
	}
	id := data(t, body)["id"].(string)
	if len(q.ids) != 1 || q.ids[0] != id {
		t.Fatalf("expected entry to be queued, got %v", q.ids)
	}

	code, body = env.do(t, http.MethodGet, "/api/v1/entries/"+id, "")
	if code != http.StatusOK {
		t.Fatalf("get = %d %v", code, body)
	}
	meta := data(t, body)["metadata"].(map[string]any)
	if meta["wordCount"].(float64) != 3 {
		t.Fatalf("wordCount = %v", meta["wordCount"])
	}
}

func TestCreateEntryValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	code, body := env.do(t, http.MethodPost, "/api/v1/entries", `{"title":"empty"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %v", code, body)
	}
	errObj := body["error"].(map[string]any)
	if !strings.Contains(errObj["message"].(string), "content is required") {
		t.Fatalf("unexpected message %v", errObj["message"])
	}

	code, _ = env.do(t, http.MethodPost, "/api/v1/entries", `{not json`)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad JSON, got %d", code)
	}
}

func TestGetEntryNotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	code, _ := env.do(t, http.MethodGet, "/api/v1/entries/missing", "")
	if code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestEntryOfOtherUserIsHidden(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	other, _ := env.store.EnsureUser(ctx, "other")
	e, err := env.store.CreateEntry(ctx, store.NewEntry{UserID: other.ID, Content: "private"})
	if err != nil {
		t.Fatal(err)
	}

	code, _ := env.do(t, http.MethodGet, "/api/v1/entries/"+e.ID, "")
	if code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
	code, _ = env.do(t, http.MethodDelete, "/api/v1/entries/"+e.ID, "")
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 on delete, got %d", code)
	}
}

func TestUpdateEntry(t *testing.T) {
	q := &recordingQueue{}
	env := newTestEnv(t, q)
	_, body := env.do(t, http.MethodPost, "/api/v1/entries", `{"content":"first draft"}`)
	id := data(t, body)["id"].(string)

	code, body := env.do(t, http.MethodPut, "/api/v1/entries/"+id, `{"title":"renamed"}`)
	if code != http.StatusOK || data(t, body)["title"] != "renamed" {
		t.Fatalf("update title = %d %v", code, body)
	}
	if len(q.ids) != 1 {
		t.Fatalf("title change should not queue analysis, got %v", q.ids)
	}

	code, body = env.do(t, http.MethodPut, "/api/v1/entries/"+id, `{"content":"second draft is longer"}`)
	if code != http.StatusOK {
		t.Fatalf("update content = %d %v", code, body)
	}
	if len(q.ids) != 2 {
		t.Fatalf("content change should queue analysis, got %v", q.ids)
	}
}

func TestDeleteEntry(t *testing.T) {
	env := newTestEnv(t, nil)
	_, body := env.do(t, http.MethodPost, "/api/v1/entries", `{"content":"short lived"}`)
	id := data(t, body)["id"].(string)

	code, _ := env.do(t, http.MethodDelete, "/api/v1/entries/"+id, "")
	if code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", code)
	}
	code, _ = env.do(t, http.MethodGet, "/api/v1/entries/"+id, "")
	if code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", code)
	}
}

func TestListEntriesFilters(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	cat, err := env.store.CreateCategory(ctx, env.user.ID, "Work", "")
	if err != nil {
		t.Fatal(err)
	}
	env.store.CreateEntry(ctx, store.NewEntry{UserID: env.user.ID, Content: "tagged", CategoryIDs: []string{cat.ID}})
	env.store.CreateEntry(ctx, store.NewEntry{UserID: env.user.ID, Content: "old", CreatedAt: time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)})

	code, body := env.do(t, http.MethodGet, "/api/v1/entries", "")
	if code != http.StatusOK || body["meta"].(map[string]any)["count"].(float64) != 2 {
		t.Fatalf("list = %d %v", code, body)
	}

	_, body = env.do(t, http.MethodGet, "/api/v1/entries?category="+cat.ID, "")
	if body["meta"].(map[string]any)["count"].(float64) != 1 {
		t.Fatalf("category filter: %v", body)
	}

	_, body = env.do(t, http.MethodGet, "/api/v1/entries?to=2021-01-01", "")
	if body["meta"].(map[string]any)["count"].(float64) != 1 {
		t.Fatalf("date filter: %v", body)
	}

	code, _ = env.do(t, http.MethodGet, "/api/v1/entries?from=yesterday", "")
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", code)
	}
}

func TestListEntriesEmptyIsArray(t *testing.T) {
	env := newTestEnv(t, nil)
	_, body := env.do(t, http.MethodGet, "/api/v1/entries", "")
	if items, ok := body["data"].([]any); !ok || len(items) != 0 {
		t.Fatalf("expected empty array, got %v", body["data"])
	}
}

// ============================================================
// Analysis
// ============================================================

func TestAnalyzeEntry(t *testing.T) {
	env := newTestEnv(t, nil)
	_, body := env.do(t, http.MethodPost, "/api/v1/entries", `{"content":"I am very happy and excited about this project!"}`)
	id := data(t, body)["id"].(string)

	code, body := env.do(t, http.MethodPost, "/api/v1/entries/"+id+"/analyze", "")
	if code != http.StatusOK {
		t.Fatalf("analyze = %d %v", code, body)
	}
	if data(t, body)["mood"] != "very_positive" {
		t.Fatalf("mood = %v", data(t, body)["mood"])
	}

	_, body = env.do(t, http.MethodGet, "/api/v1/entries/"+id, "")
	meta := data(t, body)["metadata"].(map[string]any)
	if meta["mood"] != "very_positive" {
		t.Fatalf("stored mood = %v", meta["mood"])
	}
}

func TestAnalyzeMissingEntry(t *testing.T) {
	env := newTestEnv(t, nil)
	code, _ := env.do(t, http.MethodPost, "/api/v1/entries/missing/analyze", "")
	if code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestPreview(t *testing.T) {
	env := newTestEnv(t, nil)
	code, body := env.do(t, http.MethodPost, "/api/v1/analyze", `{"text":"This is a neutral statement about the weather."}`)
	if code != http.StatusOK {
		t.Fatalf("preview = %d %v", code, body)
	}
	d := data(t, body)
	if d["mood"] != "neutral" {
		t.Fatalf("mood = %v", d["mood"])
	}
	if sentences := d["sentences"].([]any); len(sentences) != 1 {
		t.Fatalf("sentences = %v", sentences)
	}
}

func TestInsights(t *testing.T) {
	env := newTestEnv(t, nil)
	_, body := env.do(t, http.MethodPost, "/api/v1/entries", `{"content":"Garden work today. The garden looks better."}`)
	id := data(t, body)["id"].(string)

	code, body := env.do(t, http.MethodGet, "/api/v1/entries/"+id+"/insights", "")
	if code != http.StatusOK {
		t.Fatalf("insights = %d %v", code, body)
	}
	d := data(t, body)
	if terms := d["terms"].([]any); len(terms) == 0 || terms[0] != "garden" {
		t.Fatalf("terms = %v", d["terms"])
	}
	if themes, ok := d["themes"].([]any); !ok || len(themes) != 0 {
		t.Fatalf("themes without enrichment should be empty, got %v", d["themes"])
	}
}

// ============================================================
// Analytics
// ============================================================

func TestAnalytics(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, http.MethodPost, "/api/v1/entries", `{"content":"one two three"}`)

	code, body := env.do(t, http.MethodGet, "/api/v1/analytics?window=month", "")
	if code != http.StatusOK {
		t.Fatalf("analytics = %d %v", code, body)
	}
	d := data(t, body)
	if d["totalEntries"].(float64) != 1 || d["totalWordCount"].(float64) != 3 {
		t.Fatalf("unexpected summary %v", d)
	}
	if d["sentiment"] != nil {
		t.Fatalf("expected null sentiment, got %v", d["sentiment"])
	}

	code, _ = env.do(t, http.MethodGet, "/api/v1/analytics?window=fortnight", "")
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad window, got %d", code)
	}
}

// ============================================================
// Categories
// ============================================================

func TestCategories(t *testing.T) {
	env := newTestEnv(t, nil)

	code, body := env.do(t, http.MethodPost, "/api/v1/categories", `{"name":"Health","color":"#00FF00"}`)
	if code != http.StatusCreated {
		t.Fatalf("create = %d %v", code, body)
	}
	id := data(t, body)["id"].(string)

	code, _ = env.do(t, http.MethodPost, "/api/v1/categories", `{"name":"Health"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate, got %d", code)
	}

	_, body = env.do(t, http.MethodGet, "/api/v1/categories", "")
	if body["meta"].(map[string]any)["count"].(float64) != 1 {
		t.Fatalf("list = %v", body)
	}

	code, _ = env.do(t, http.MethodDelete, "/api/v1/categories/"+id, "")
	if code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", code)
	}
	code, _ = env.do(t, http.MethodDelete, "/api/v1/categories/"+id, "")
	if code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}
