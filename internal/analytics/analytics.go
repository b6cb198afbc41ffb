// Package analytics summarizes a user's journal over a time window.
package analytics

import (
	"cmp"
	"context"
	"math"
	"slices"
	"time"

	"github.com/sadopc/inkwell/internal/analysis"
	"github.com/sadopc/inkwell/internal/errs"
	"github.com/sadopc/inkwell/internal/store"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Source is the read side of the store used for summaries.
type Source interface {
	ListEntries(ctx context.Context, f store.EntryFilter) ([]store.Entry, error)
	ListCategories(ctx context.Context, userID string) ([]store.Category, error)
}

type Query struct {
	UserID     string
	Window     Window
	CategoryID string // optional; narrows the window entries only
}

// MoodStats counts analyzed entries per mood and averages their scores.
type MoodStats struct {
	Analyzed     int                   `json:"analyzed"`
	Average      float64               `json:"average"`
	Distribution map[analysis.Mood]int `json:"distribution"`
}

type LongestEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	WordCount int       `json:"wordCount"`
	CreatedAt time.Time `json:"createdAt"`
}

type CategoryCount struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	EntryCount int    `json:"entryCount"`
}

type MonthActivity struct {
	Month     string `json:"month"` // YYYY-MM
	Entries   int    `json:"entries"`
	WordCount int    `json:"wordCount"`
}

type HourActivity struct {
	Hour      int `json:"hour"`
	Entries   int `json:"entries"`
	WordCount int `json:"wordCount"`
}

type TrendPoint struct {
	Date      time.Time `json:"date"`
	WordCount int       `json:"wordCount"`
}

// Summary is the analytics view of one user and window. Sentiment and
// LongestEntry are nil when no entry qualifies.
type Summary struct {
	Window               Window          `json:"window"`
	Start                time.Time       `json:"start"`
	End                  time.Time       `json:"end"`
	TotalEntries         int             `json:"totalEntries"`
	TotalWordCount       int             `json:"totalWordCount"`
	AverageWordsPerEntry float64         `json:"averageWordsPerEntry"`
	AverageWordsPerDay   float64         `json:"averageWordsPerDay"`
	LongestEntry         *LongestEntry   `json:"longestEntry"`
	Sentiment            *MoodStats      `json:"sentiment"`
	WritingStreak        int             `json:"writingStreak"`
	CategoryDistribution []CategoryCount `json:"categoryDistribution"`
	MonthlyActivity      []MonthActivity `json:"monthlyActivity"`
	TimeOfDay            []HourActivity  `json:"timeOfDay"`
	WritingTrend         []TrendPoint    `json:"writingTrend"`
}

type Aggregator struct {
	src Source
	loc *time.Location
	now func() time.Time
}

type Option func(*Aggregator)

// WithLocation sets the time zone used for day boundaries and hours.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) { a.loc = loc }
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func New(src Source, opts ...Option) *Aggregator {
	a := &Aggregator{src: src, loc: time.Local, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Summary builds the analytics for q. Totals, sentiment, the longest entry
// and monthly activity cover the window; the streak, hour histogram and
// trend cover the whole history.
func (a *Aggregator) Summary(ctx context.Context, q Query) (*Summary, error) {
	if q.UserID == "" {
		return nil, errs.Validation("user id is required")
	}
	if q.Window == "" {
		q.Window = Week
	}

	start, end := q.Window.Range(a.now(), a.loc)
	to := end.Add(time.Nanosecond)
	f := store.EntryFilter{UserID: q.UserID, From: &start, To: &to}
	if q.CategoryID != "" {
		f.CategoryID = &q.CategoryID
	}

	window, err := a.src.ListEntries(ctx, f)
	if err != nil {
		return nil, errs.Database("list window entries", err)
	}
	history, err := a.src.ListEntries(ctx, store.EntryFilter{UserID: q.UserID})
	if err != nil {
		return nil, errs.Database("list entries", err)
	}
	categories, err := a.src.ListCategories(ctx, q.UserID)
	if err != nil {
		return nil, errs.Database("list categories", err)
	}

	s := &Summary{
		Window:       q.Window,
		Start:        start,
		End:          end,
		TotalEntries: len(window),
	}

	words := make([]float64, len(window))
	for i, e := range window {
		words[i] = float64(wordCount(e))
	}
	s.TotalWordCount = int(floats.Sum(words))
	if len(window) > 0 {
		s.AverageWordsPerEntry = stat.Mean(words, nil)
	}
	days := math.Max(1, math.Ceil(float64(end.Sub(start))/float64(24*time.Hour)))
	s.AverageWordsPerDay = float64(s.TotalWordCount) / days

	s.LongestEntry = longest(window)
	if ms := MoodStatistics(window); ms.Analyzed > 0 {
		s.Sentiment = &ms
	}
	s.WritingStreak = Streak(history, a.loc)
	s.CategoryDistribution = categoryCounts(categories)
	s.MonthlyActivity = monthly(window, a.loc)
	s.TimeOfDay = hourly(history, a.loc)
	s.WritingTrend = trend(history)
	return s, nil
}

// MoodStatistics counts the analyzed entries per mood and averages their
// scores. Entries without both a score and a mood are skipped.
func MoodStatistics(entries []store.Entry) MoodStats {
	ms := MoodStats{Distribution: make(map[analysis.Mood]int)}
	var scores []float64
	for _, e := range entries {
		if !e.Metadata.Analyzed() {
			continue
		}
		scores = append(scores, *e.Metadata.SentimentScore)
		ms.Distribution[*e.Metadata.Mood]++
	}
	ms.Analyzed = len(scores)
	if ms.Analyzed > 0 {
		ms.Average = stat.Mean(scores, nil)
	}
	return ms
}

// Streak counts consecutive calendar days with writing, starting from the
// most recent entry. Two entries on the same day end the count; an entry
// one day earlier extends it.
func Streak(entries []store.Entry, loc *time.Location) int {
	if len(entries) == 0 {
		return 0
	}
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b store.Entry) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	streak := 1
	for i := 1; i < len(sorted); i++ {
		prev := dayNumber(sorted[i-1].CreatedAt.In(loc))
		cur := dayNumber(sorted[i].CreatedAt.In(loc))
		if prev-cur != 1 {
			break
		}
		streak++
	}
	return streak
}

func wordCount(e store.Entry) int {
	if e.Metadata == nil {
		return 0
	}
	return e.Metadata.WordCount
}

// longest keeps the first of equal word counts, so ties go to the newest.
func longest(entries []store.Entry) *LongestEntry {
	var best *store.Entry
	for i := range entries {
		if best == nil || wordCount(entries[i]) > wordCount(*best) {
			best = &entries[i]
		}
	}
	if best == nil {
		return nil
	}
	return &LongestEntry{ID: best.ID, Title: best.Title, WordCount: wordCount(*best), CreatedAt: best.CreatedAt}
}

func categoryCounts(categories []store.Category) []CategoryCount {
	out := make([]CategoryCount, len(categories))
	for i, c := range categories {
		out[i] = CategoryCount{ID: c.ID, Name: c.Name, Color: c.Color, EntryCount: c.EntryCount}
	}
	return out
}

func monthly(entries []store.Entry, loc *time.Location) []MonthActivity {
	byMonth := make(map[string]*MonthActivity)
	for _, e := range entries {
		key := e.CreatedAt.In(loc).Format("2006-01")
		m, ok := byMonth[key]
		if !ok {
			m = &MonthActivity{Month: key}
			byMonth[key] = m
		}
		m.Entries++
		m.WordCount += wordCount(e)
	}
	out := make([]MonthActivity, 0, len(byMonth))
	for _, m := range byMonth {
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b MonthActivity) int { return cmp.Compare(a.Month, b.Month) })
	return out
}

func hourly(entries []store.Entry, loc *time.Location) []HourActivity {
	out := make([]HourActivity, 24)
	for h := range out {
		out[h].Hour = h
	}
	for _, e := range entries {
		h := e.CreatedAt.In(loc).Hour()
		out[h].Entries++
		out[h].WordCount += wordCount(e)
	}
	return out
}

// trend expects entries newest first, as ListEntries returns them, and puts
// equal timestamps back in insertion order.
func trend(entries []store.Entry) []TrendPoint {
	out := make([]TrendPoint, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = TrendPoint{Date: e.CreatedAt, WordCount: wordCount(e)}
	}
	slices.SortStableFunc(out, func(a, b TrendPoint) int { return a.Date.Compare(b.Date) })
	return out
}
