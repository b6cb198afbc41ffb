package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/inkwell/internal/store"
)

var csvHeader = []string{"ID", "Title", "Created", "Words", "Reading (min)", "Sentiment", "Mood", "Categories", "Content"}

func ToCSV(entries []store.Entry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()
	return WriteCSV(f, entries)
}

// WriteCSV writes one row per entry. Unanalyzed entries leave the sentiment
// and mood columns empty.
func WriteCSV(out io.Writer, entries []store.Entry) error {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range entries {
		var words, reading, score, mood string
		if m := e.Metadata; m != nil {
			words = strconv.Itoa(m.WordCount)
			reading = strconv.Itoa(m.ReadingTime)
			if m.Analyzed() {
				score = strconv.FormatFloat(*m.SentimentScore, 'f', 4, 64)
				mood = string(*m.Mood)
			}
		}

		row := []string{
			e.ID,
			e.Title,
			e.CreatedAt.Local().Format(time.RFC3339),
			words,
			reading,
			score,
			mood,
			categoryNames(e.Categories),
			e.Content,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func categoryNames(cats []store.Category) string {
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	return strings.Join(names, ";")
}
