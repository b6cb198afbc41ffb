package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/inkwell/internal/analytics"
	"github.com/sadopc/inkwell/internal/store"
)

type jsonExport struct {
	ExportedAt string      `json:"exported_at"`
	Count      int         `json:"count"`
	Entries    []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID          string   `json:"id"`
	Title       string   `json:"title,omitempty"`
	Content     string   `json:"content"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	WordCount   int      `json:"word_count"`
	ReadingTime int      `json:"reading_time_minutes"`
	Sentiment   *float64 `json:"sentiment,omitempty"`
	Magnitude   *float64 `json:"magnitude,omitempty"`
	Mood        string   `json:"mood,omitempty"`
	Categories  []string `json:"categories"`
}

type summaryExport struct {
	ExportedAt string             `json:"exported_at"`
	Summary    *analytics.Summary `json:"summary"`
}

func ToJSON(entries []store.Entry, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteJSON(w, entries) })
}

func WriteJSON(w io.Writer, entries []store.Entry) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(entries),
		Entries:    make([]jsonEntry, 0, len(entries)),
	}

	for _, e := range entries {
		je := jsonEntry{
			ID:         e.ID,
			Title:      e.Title,
			Content:    e.Content,
			CreatedAt:  e.CreatedAt.Local().Format(time.RFC3339),
			UpdatedAt:  e.UpdatedAt.Local().Format(time.RFC3339),
			Categories: make([]string, len(e.Categories)),
		}
		for i, c := range e.Categories {
			je.Categories[i] = c.Name
		}
		if m := e.Metadata; m != nil {
			je.WordCount = m.WordCount
			je.ReadingTime = m.ReadingTime
			if m.Analyzed() {
				je.Sentiment = m.SentimentScore
				je.Magnitude = m.SentimentMagnitude
				je.Mood = string(*m.Mood)
			}
		}
		export.Entries = append(export.Entries, je)
	}
	return encode(w, export)
}

// SummaryToJSON writes an analytics summary to path.
func SummaryToJSON(s *analytics.Summary, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteSummaryJSON(w, s) })
}

func WriteSummaryJSON(w io.Writer, s *analytics.Summary) error {
	return encode(w, summaryExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Summary:    s,
	})
}

func encode(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
