package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openai/openai-go/option"
	"github.com/sadopc/inkwell/internal/errs"
)

type fakeService struct {
	themes      []string
	corrections []Correction
	completions []string
	err         error
	delay       time.Duration
}

func (f fakeService) wait(ctx context.Context) error {
	if f.delay == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(f.delay):
		return nil
	}
}

func (f fakeService) ClassifyThemes(ctx context.Context, _ string) ([]string, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.themes, f.err
}

func (f fakeService) CorrectGrammar(ctx context.Context, _ string) ([]Correction, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.corrections, f.err
}

func (f fakeService) GenerateCompletion(ctx context.Context, _ string) ([]string, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.completions, f.err
}

// ============================================================
// Noop and Safe
// ============================================================

func TestNoopIsUnavailable(t *testing.T) {
	_, err := Noop{}.ClassifyThemes(context.Background(), "x")
	if !errors.Is(err, errs.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled in chain, got %v", err)
	}
}

func TestSafePassesThrough(t *testing.T) {
	s := NewSafe(fakeService{
		themes:      []string{"work"},
		corrections: []Correction{{Original: "teh", Suggestion: "the", Reason: "typo"}},
		completions: []string{"Tomorrow I will rest."},
	}, time.Second, nil)

	themes, err := s.ClassifyThemes(context.Background(), "x")
	if err != nil || len(themes) != 1 || themes[0] != "work" {
		t.Fatalf("themes = %v, %v", themes, err)
	}
	corr, _ := s.CorrectGrammar(context.Background(), "x")
	if len(corr) != 1 || corr[0].Suggestion != "the" {
		t.Fatalf("corrections = %v", corr)
	}
	comp, _ := s.GenerateCompletion(context.Background(), "x")
	if len(comp) != 1 {
		t.Fatalf("completions = %v", comp)
	}
}

func TestSafeSwallowsErrors(t *testing.T) {
	s := NewSafe(fakeService{err: errors.New("boom")}, 0, nil)

	themes, err := s.ClassifyThemes(context.Background(), "x")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if themes == nil || len(themes) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", themes)
	}
	corr, err := s.CorrectGrammar(context.Background(), "x")
	if err != nil || corr == nil || len(corr) != 0 {
		t.Fatalf("corrections = %#v, %v", corr, err)
	}
}

func TestSafeTimeout(t *testing.T) {
	s := NewSafe(fakeService{themes: []string{"late"}, delay: time.Second}, 10*time.Millisecond, nil)

	start := time.Now()
	themes, err := s.ClassifyThemes(context.Background(), "x")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(themes) != 0 {
		t.Fatalf("expected empty result on timeout, got %v", themes)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("timeout was not applied")
	}
}

func TestSafeNilServiceIsNoop(t *testing.T) {
	s := NewSafe(nil, 0, nil)
	comp, err := s.GenerateCompletion(context.Background(), "x")
	if err != nil || len(comp) != 0 {
		t.Fatalf("completions = %v, %v", comp, err)
	}
}

// ============================================================
// OpenAI client
// ============================================================

func responseBody(t *testing.T, payload any) string {
	t.Helper()
	inner, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	body := map[string]any{
		"id":         "resp_1",
		"object":     "response",
		"created_at": 1,
		"model":      "test-model",
		"status":     "completed",
		"output": []any{
			map[string]any{
				"type":   "message",
				"id":     "msg_1",
				"role":   "assistant",
				"status": "completed",
				"content": []any{
					map[string]any{"type": "output_text", "text": string(inner), "annotations": []any{}},
				},
			},
		},
	}
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAI("test-key", "test-model", 0,
		option.WithBaseURL(srv.URL+"/"),
		option.WithMaxRetries(0),
	)
}

func TestOpenAIClassifyThemes(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, responseBody(t, themesResponse{Themes: []string{"family", " ", "family", "travel"}}))
	})

	themes, err := o.ClassifyThemes(context.Background(), "We drove to the coast with my parents.")
	if err != nil {
		t.Fatal(err)
	}
	if len(themes) != 2 || themes[0] != "family" || themes[1] != "travel" {
		t.Fatalf("themes = %v", themes)
	}
	if !strings.HasSuffix(gotPath, "/responses") {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotBody["model"] != "test-model" {
		t.Fatalf("unexpected model %v", gotBody["model"])
	}
}

func TestOpenAICorrectGrammarDropsNoops(t *testing.T) {
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, responseBody(t, grammarResponse{Corrections: []Correction{
			{Original: "teh", Suggestion: "the", Reason: "spelling"},
			{Original: "fine", Suggestion: "fine", Reason: "none"},
		}}))
	})

	corr, err := o.CorrectGrammar(context.Background(), "teh day was fine")
	if err != nil {
		t.Fatal(err)
	}
	if len(corr) != 1 || corr[0].Original != "teh" {
		t.Fatalf("corrections = %v", corr)
	}
}

func TestOpenAIClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"message":"bad request","type":"invalid_request_error"}}`)
	})

	_, err := o.GenerateCompletion(context.Background(), "x")
	if !errors.Is(err, errs.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}
}

func TestOpenAIServerErrorRetried(t *testing.T) {
	var calls atomic.Int32
	o := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"error":{"message":"internal server error","type":"server_error"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, responseBody(t, completionResponse{Completions: []string{"I slept well."}}))
	})
	o.serverErrorWaits = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}

	comp, err := o.GenerateCompletion(context.Background(), "x")
	if err != nil {
		t.Fatal(err)
	}
	if len(comp) != 1 || calls.Load() != 2 {
		t.Fatalf("completions = %v after %d calls", comp, calls.Load())
	}
}

func TestOpenAIMissingModel(t *testing.T) {
	o := NewOpenAI("k", "", 0)
	_, err := o.ClassifyThemes(context.Background(), "x")
	if !errors.Is(err, errs.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}

// ============================================================
// Helpers
// ============================================================

func TestDecodeModelJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"plain", `{"themes":["a"]}`, false},
		{"fenced", "```json\n{\"themes\":[\"a\"]}\n```", false},
		{"empty", "   ", true},
		{"truncated", `{"themes":["a"`, true},
		{"prose", "no json here", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out themesResponse
			err := decodeModelJSON(tt.in, &out)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (len(out.Themes) != 1 || out.Themes[0] != "a") {
				t.Fatalf("decoded %v", out)
			}
		})
	}
}

func TestGenerateSchemaIsStrict(t *testing.T) {
	schema := generateSchema[grammarResponse]()
	if schema["additionalProperties"] != false {
		t.Fatalf("top-level schema not closed: %v", schema)
	}
	props := schema["properties"].(map[string]any)
	items := props["corrections"].(map[string]any)["items"].(map[string]any)
	if items["additionalProperties"] != false {
		t.Fatalf("item schema not closed: %v", items)
	}
	if req, ok := items["required"].([]string); !ok || len(req) != 3 {
		t.Fatalf("item required = %v", items["required"])
	}
}
