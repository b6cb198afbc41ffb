package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/inkwell/internal/analysis"
	"github.com/sadopc/inkwell/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewJournal viewState = iota
	viewCategories
	viewInsights
	viewSettings
)

var viewNames = []string{"Journal", "Categories", "Insights", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type exportDoneMsg struct {
	path  string
	count int
}

type entrySavedMsg struct {
	entry  *store.Entry
	queued bool
}

type entryDeletedMsg struct{}

type entryAnalyzedMsg struct {
	id   string
	mood analysis.Mood
}

// --- Helpers ---

func moodLabel(m analysis.Mood) string {
	return strings.ReplaceAll(string(m), "_", " ")
}

func renderMood(meta *store.EntryMetadata) string {
	if !meta.Analyzed() {
		return mutedStyle.Render("pending")
	}
	return moodStyle(*meta.Mood).Render(fmt.Sprintf("%s %+.2f", moodLabel(*meta.Mood), *meta.SentimentScore))
}

func formatScore(v float64) string {
	return fmt.Sprintf("%+.2f", v)
}

// truncate shortens s to n display runes, collapsing whitespace.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

func entryTitle(e store.Entry, n int) string {
	if e.Title != "" {
		return truncate(e.Title, n)
	}
	return truncate(e.Content, n)
}
