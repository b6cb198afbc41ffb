package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sadopc/inkwell/internal/analytics"
	"github.com/sadopc/inkwell/internal/pipeline"
	"github.com/sadopc/inkwell/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store, *store.User) {
	t.Helper()
	st, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	u, err := st.EnsureUser(context.Background(), "mcp")
	if err != nil {
		t.Fatal(err)
	}
	srv := NewServer("test", Deps{
		Store:     st,
		Analyzer:  pipeline.New(pipeline.FromStore(st)),
		Analytics: analytics.New(st),
		UserID:    u.ID,
	})
	return srv, st, u
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return tc.Text
}

func TestPing(t *testing.T) {
	srv, _, _ := newTestServer(t)
	res, err := srv.handlePing(context.Background(), call(nil))
	if err != nil {
		t.Fatal(err)
	}
	if got := resultText(t, res); got != "pong_inkwell" {
		t.Fatalf("ping = %q", got)
	}
}

func TestCreateEntryAnalyzes(t *testing.T) {
	srv, _, _ := newTestServer(t)
	res, err := srv.handleCreateEntry(context.Background(), call(map[string]any{
		"content": "I am very happy and excited about this project!",
		"title":   "news",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}

	var e store.Entry
	if err := json.Unmarshal([]byte(resultText(t, res)), &e); err != nil {
		t.Fatal(err)
	}
	if e.Title != "news" || !e.Metadata.Analyzed() || *e.Metadata.Mood != "very_positive" {
		t.Fatalf("unexpected entry %+v", e)
	}
}

func TestCreateEntrySkipAnalysis(t *testing.T) {
	srv, _, _ := newTestServer(t)
	res, _ := srv.handleCreateEntry(context.Background(), call(map[string]any{
		"content": "plain words",
		"analyze": false,
	}))
	var e store.Entry
	if err := json.Unmarshal([]byte(resultText(t, res)), &e); err != nil {
		t.Fatal(err)
	}
	if e.Metadata.Analyzed() {
		t.Fatal("entry should not be analyzed")
	}
}

func TestCreateEntryRequiresContent(t *testing.T) {
	srv, _, _ := newTestServer(t)
	res, _ := srv.handleCreateEntry(context.Background(), call(map[string]any{}))
	if !res.IsError {
		t.Fatal("expected error result")
	}
}

func TestListEntries(t *testing.T) {
	srv, st, u := newTestServer(t)
	ctx := context.Background()

	res, _ := srv.handleListEntries(ctx, call(nil))
	if got := resultText(t, res); got != "[]" {
		t.Fatalf("empty list = %q", got)
	}

	for _, c := range []string{"one", "two", "three"} {
		st.CreateEntry(ctx, store.NewEntry{UserID: u.ID, Content: c})
	}
	res, _ = srv.handleListEntries(ctx, call(map[string]any{"limit": float64(2)}))
	var entries []store.Entry
	if err := json.Unmarshal([]byte(resultText(t, res)), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestAnalyzeEntryTool(t *testing.T) {
	srv, st, u := newTestServer(t)
	ctx := context.Background()
	e, _ := st.CreateEntry(ctx, store.NewEntry{UserID: u.ID, Content: "I'm feeling quite sad and disappointed today."})

	res, _ := srv.handleAnalyzeEntry(ctx, call(map[string]any{"id": e.ID}))
	var out pipeline.Result
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Mood != "very_negative" {
		t.Fatalf("mood = %s", out.Mood)
	}

	res, _ = srv.handleAnalyzeEntry(ctx, call(map[string]any{"id": "missing"}))
	if !res.IsError || !strings.Contains(resultText(t, res), "not found") {
		t.Fatalf("expected not found error, got %s", resultText(t, res))
	}
}

func TestPreviewTool(t *testing.T) {
	srv, _, _ := newTestServer(t)
	res, _ := srv.handlePreview(context.Background(), call(map[string]any{"text": "This is a neutral statement about the weather."}))
	var out pipeline.Result
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Mood != "neutral" {
		t.Fatalf("mood = %s", out.Mood)
	}
}

func TestAnalyticsTool(t *testing.T) {
	srv, st, u := newTestServer(t)
	ctx := context.Background()
	st.CreateEntry(ctx, store.NewEntry{UserID: u.ID, Content: "a b c d"})

	res, _ := srv.handleAnalytics(ctx, call(map[string]any{"window": "month"}))
	var sum analytics.Summary
	if err := json.Unmarshal([]byte(resultText(t, res)), &sum); err != nil {
		t.Fatal(err)
	}
	if sum.TotalEntries != 1 || sum.TotalWordCount != 4 || sum.Window != analytics.Month {
		t.Fatalf("unexpected summary %+v", sum)
	}

	res, _ = srv.handleAnalytics(ctx, call(map[string]any{"window": "century"}))
	if !res.IsError {
		t.Fatal("expected error for bad window")
	}
}

func TestListCategoriesTool(t *testing.T) {
	srv, st, u := newTestServer(t)
	ctx := context.Background()
	st.CreateCategory(ctx, u.ID, "Travel", "")

	res, _ := srv.handleListCategories(ctx, call(nil))
	var cats []store.Category
	if err := json.Unmarshal([]byte(resultText(t, res)), &cats); err != nil {
		t.Fatal(err)
	}
	if len(cats) != 1 || cats[0].Name != "Travel" {
		t.Fatalf("categories = %+v", cats)
	}
}
