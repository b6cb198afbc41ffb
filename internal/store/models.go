package store

import (
	"time"

	"github.com/sadopc/inkwell/internal/analysis"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Entry struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	Metadata   *EntryMetadata `json:"metadata"`
	Categories []Category     `json:"categories"`
}

// EntryMetadata is derived from an entry's content. Sentiment fields stay
// nil until the entry has been analyzed; score and mood are set together.
type EntryMetadata struct {
	WordCount          int            `json:"wordCount"`
	ReadingTime        int            `json:"readingTime"` // minutes
	SentimentScore     *float64       `json:"sentimentScore"`
	SentimentMagnitude *float64       `json:"sentimentMagnitude"`
	Mood               *analysis.Mood `json:"mood"`
	AnalyzedAt         *time.Time     `json:"analyzedAt"`
}

// Analyzed reports whether sentiment has been computed.
func (m *EntryMetadata) Analyzed() bool {
	return m != nil && m.SentimentScore != nil && m.Mood != nil
}

type Category struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	Color      string    `json:"color"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	EntryCount int       `json:"entryCount"`
}

type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// NewEntry is the input for CreateEntry. A zero CreatedAt means now.
type NewEntry struct {
	UserID      string
	Title       string
	Content     string
	CategoryIDs []string
	CreatedAt   time.Time
}

// EntryUpdate changes only the fields that are non-nil.
type EntryUpdate struct {
	Title       *string
	Content     *string
	CategoryIDs *[]string
}

// Analysis is what the sentiment pipeline writes back for an entry.
type Analysis struct {
	WordCount   int
	ReadingTime int
	Score       float64
	Magnitude   float64
	Mood        analysis.Mood
	AnalyzedAt  time.Time
}

// EntryFilter is used to filter entries in queries. From is inclusive and
// To is exclusive.
type EntryFilter struct {
	UserID     string
	CategoryID *string
	From       *time.Time
	To         *time.Time
	Limit      int
}

const (
	SettingDefaultWindow = "default_window"
	SettingAutoAnalyze   = "auto_analyze"
	SettingEnrichment    = "enrichment"
	SettingThemeCount    = "theme_count"
)
