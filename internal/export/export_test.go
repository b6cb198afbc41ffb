package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/inkwell/internal/analysis"
	"github.com/sadopc/inkwell/internal/analytics"
	"github.com/sadopc/inkwell/internal/store"
)

func sampleData() []store.Entry {
	now := time.Now().UTC()
	score, magnitude := 0.62, 6.0
	mood := analysis.MoodVeryPositive

	return []store.Entry{
		{
			ID:        "e1",
			Title:     "Launch day",
			Content:   "I am very happy and excited about this project!",
			CreatedAt: now.Add(-time.Hour),
			UpdatedAt: now,
			Metadata: &store.EntryMetadata{
				WordCount:          9,
				ReadingTime:        1,
				SentimentScore:     &score,
				SentimentMagnitude: &magnitude,
				Mood:               &mood,
			},
			Categories: []store.Category{{ID: "c1", Name: "Work"}, {ID: "c2", Name: "Wins"}},
		},
		{
			ID:        "e2",
			Content:   "Nothing much.",
			CreatedAt: now.Add(-30 * time.Minute),
			UpdatedAt: now,
			Metadata:  &store.EntryMetadata{WordCount: 2, ReadingTime: 1},
		},
		{
			ID:        "e3",
			Content:   "no metadata yet",
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.csv")

	if err := ToCSV(sampleData(), path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}
	records := readCSV(t, path)

	// header + 3 data rows
	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}
	for i, h := range csvHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	if row[0] != "e1" || row[1] != "Launch day" {
		t.Fatalf("unexpected id/title %q/%q", row[0], row[1])
	}
	if row[3] != "9" || row[4] != "1" {
		t.Fatalf("words/reading = %q/%q, want 9/1", row[3], row[4])
	}
	if row[5] != "0.6200" || row[6] != "very_positive" {
		t.Fatalf("sentiment/mood = %q/%q", row[5], row[6])
	}
	if row[7] != "Work;Wins" {
		t.Fatalf("categories = %q, want Work;Wins", row[7])
	}

	// Unanalyzed entry leaves sentiment empty
	if records[2][5] != "" || records[2][6] != "" {
		t.Fatalf("unanalyzed entry should have empty sentiment, got %q/%q", records[2][5], records[2][6])
	}
	// Missing metadata leaves counts empty
	if records[3][3] != "" {
		t.Fatalf("entry without metadata should have empty word count, got %q", records[3][3])
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	if err := ToCSV(nil, path); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, path); len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	err := ToCSV(nil, "/nonexistent/dir/file.csv")
	if err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestWriteCSVSpecialCharacters(t *testing.T) {
	entries := []store.Entry{{
		ID:        "e1",
		Title:     `Title "Special"`,
		Content:   "line one\nline two, with \"quotes\"",
		CreatedAt: time.Now(),
	}}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, entries); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CSV should be valid even with special chars: %v", err)
	}
	if records[1][1] != `Title "Special"` {
		t.Fatalf("title mangled: %q", records[1][1])
	}
	if records[1][8] != entries[0].Content {
		t.Fatalf("content mangled: %q", records[1][8])
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")

	if err := ToJSON(sampleData(), path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result.Count != 3 || len(result.Entries) != 3 {
		t.Fatalf("count = %d, entries = %d, want 3", result.Count, len(result.Entries))
	}

	e := result.Entries[0]
	if e.ID != "e1" || e.WordCount != 9 || e.Mood != "very_positive" {
		t.Fatalf("unexpected first entry %+v", e)
	}
	if e.Sentiment == nil || *e.Sentiment != 0.62 {
		t.Fatalf("sentiment = %v", e.Sentiment)
	}
	if len(e.Categories) != 2 || e.Categories[0] != "Work" {
		t.Fatalf("categories = %v", e.Categories)
	}

	if result.Entries[1].Sentiment != nil || result.Entries[1].Mood != "" {
		t.Fatal("unanalyzed entry should omit sentiment")
	}
	if !strings.Contains(string(data), `"categories": []`) {
		t.Fatal("entries without categories should export an empty list")
	}
}

func TestToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")

	if err := ToJSON(nil, path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	var result jsonExport
	json.Unmarshal(data, &result)

	if result.Count != 0 {
		t.Fatalf("count = %d, want 0", result.Count)
	}
	if !strings.Contains(string(data), `"entries": []`) {
		t.Fatalf("entries should be an empty list, got %s", data)
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToJSONPrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pretty.json")
	ToJSON(nil, path)

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "\n  ") {
		t.Fatal("JSON should be indented with spaces")
	}
}

func TestToJSONValidTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ts.json")
	ToJSON(sampleData(), path)

	data, _ := os.ReadFile(path)
	var result jsonExport
	json.Unmarshal(data, &result)

	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}
	for _, e := range result.Entries {
		if _, err := time.Parse(time.RFC3339, e.CreatedAt); err != nil {
			t.Fatalf("created_at is not valid RFC3339: %q", e.CreatedAt)
		}
	}
}

// ============================================================
// Summary
// ============================================================

func TestSummaryToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	s := &analytics.Summary{Window: analytics.Week, TotalEntries: 2, TotalWordCount: 30}

	if err := SummaryToJSON(s, path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)

	var out struct {
		Summary struct {
			Window       string `json:"window"`
			TotalEntries int    `json:"totalEntries"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Summary.Window != "week" || out.Summary.TotalEntries != 2 {
		t.Fatalf("unexpected summary %+v", out.Summary)
	}
}
