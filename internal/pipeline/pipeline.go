// Package pipeline scores journal entries and writes the result back to the
// store.
package pipeline

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/sadopc/inkwell/internal/analysis"
	"github.com/sadopc/inkwell/internal/enrich"
	"github.com/sadopc/inkwell/internal/errs"
	"github.com/sadopc/inkwell/internal/logging"
	"github.com/sadopc/inkwell/internal/store"
	"github.com/sirupsen/logrus"
)

// SentenceSentiment is the score of one sentence. It is computed on demand
// and never stored.
type SentenceSentiment struct {
	Content   string  `json:"content"`
	Score     float64 `json:"score"`
	Magnitude float64 `json:"magnitude"`
}

type Result struct {
	Score     float64             `json:"score"`
	Magnitude float64             `json:"magnitude"`
	Mood      analysis.Mood       `json:"mood"`
	Sentences []SentenceSentiment `json:"sentences"`
}

// Insights is the on-demand writing feedback for one entry.
type Insights struct {
	EntryID     string               `json:"entryId"`
	Readability analysis.Readability `json:"readability"`
	Terms       []string             `json:"terms"`
	Themes      []string             `json:"themes"`
	Corrections []enrich.Correction  `json:"corrections"`
	Completions []string             `json:"completions"`
}

// Repository is the slice of the store the pipeline needs inside a
// transaction.
type Repository interface {
	EntryContent(ctx context.Context, id string) (string, error)
	UpsertEntryMetadata(ctx context.Context, id string, a store.Analysis) error
}

// Transactor runs fn in one transaction, rolling back when fn fails.
type Transactor interface {
	InTx(ctx context.Context, fn func(Repository) error) error
}

type storeTx struct {
	s *store.Store
}

func (a storeTx) InTx(ctx context.Context, fn func(Repository) error) error {
	return a.s.InTx(ctx, func(tx *store.Tx) error { return fn(tx) })
}

// FromStore adapts s to Transactor.
func FromStore(s *store.Store) Transactor {
	return storeTx{s: s}
}

type Pipeline struct {
	tx         Transactor
	scorer     *analysis.Scorer
	enricher   enrich.Service
	timeout    time.Duration
	themeCount int
	log        logrus.FieldLogger
	now        func() time.Time
}

type Option func(*Pipeline)

// WithScorer replaces the scorer built on the bundled lexicon.
func WithScorer(s *analysis.Scorer) Option {
	return func(p *Pipeline) { p.scorer = s }
}

// WithEnricher sets the service behind Insights. Calls are bounded by
// timeout when it is positive.
func WithEnricher(svc enrich.Service, timeout time.Duration) Option {
	return func(p *Pipeline) {
		p.enricher = svc
		p.timeout = timeout
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.log = log }
}

func WithThemeCount(n int) Option {
	return func(p *Pipeline) { p.themeCount = n }
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func New(tx Transactor, opts ...Option) *Pipeline {
	p := &Pipeline{
		tx:         tx,
		themeCount: analysis.DefaultThemeCount,
		log:        logging.Discard(),
		now:        time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	if p.scorer == nil {
		p.scorer = analysis.NewScorer(nil)
	}
	if _, ok := p.enricher.(*enrich.Safe); !ok {
		p.enricher = enrich.NewSafe(p.enricher, p.timeout, p.log)
	}
	return p
}

// Analyze scores the entry and stores the result. The read and the write
// happen in one transaction, so a failure leaves the stored metadata as it
// was. Analyzing unchanged content again stores the same values.
func (p *Pipeline) Analyze(ctx context.Context, entryID string) (Result, error) {
	var content string
	var sent analysis.Sentiment
	err := p.tx.InTx(ctx, func(r Repository) error {
		var err error
		content, err = r.EntryContent(ctx, entryID)
		if err != nil {
			return err
		}

		sent = p.scorer.Analyze(content)
		wc := analysis.WordCount(content)
		return r.UpsertEntryMetadata(ctx, entryID, store.Analysis{
			WordCount:   wc,
			ReadingTime: analysis.ReadingTime(wc),
			Score:       sent.Score,
			Magnitude:   sent.Magnitude,
			Mood:        sent.Mood,
			AnalyzedAt:  p.now(),
		})
	})
	if err != nil {
		l := p.log.WithError(err).WithField("entry_id", entryID)
		if errors.Is(err, errs.ErrNotFound) || errors.Is(err, errs.ErrValidation) {
			l.Warn("analyze entry")
		} else {
			l.Error("analyze entry")
		}
		return Result{}, errs.Database("analyze entry "+entryID, err)
	}

	p.log.WithFields(logrus.Fields{
		"entry_id": entryID,
		"score":    sent.Score,
		"mood":     sent.Mood,
	}).Debug("entry analyzed")

	return p.result(content, sent), nil
}

// Preview runs the same scoring as Analyze on text without storing it.
func (p *Pipeline) Preview(text string) Result {
	return p.result(text, p.scorer.Analyze(text))
}

func (p *Pipeline) result(content string, sent analysis.Sentiment) Result {
	sentences := analysis.Sentences(content)
	breakdown := make([]SentenceSentiment, 0, len(sentences))
	for _, s := range sentences {
		ss := p.scorer.Analyze(s)
		breakdown = append(breakdown, SentenceSentiment{Content: s, Score: ss.Score, Magnitude: ss.Magnitude})
	}
	return Result{
		Score:     sent.Score,
		Magnitude: sent.Magnitude,
		Mood:      sent.Mood,
		Sentences: breakdown,
	}
}

// Insights computes readability and top terms locally and asks the
// enricher for themes, corrections and completions. Enrichment failures
// leave those lists empty.
func (p *Pipeline) Insights(ctx context.Context, entryID string) (Insights, error) {
	var content string
	err := p.tx.InTx(ctx, func(r Repository) error {
		var err error
		content, err = r.EntryContent(ctx, entryID)
		return err
	})
	if err != nil {
		return Insights{}, errs.Database("read entry "+entryID, err)
	}

	ins := Insights{
		EntryID:     entryID,
		Readability: analysis.AnalyzeReadability(content),
		Terms:       slices.Collect(analysis.TopTerms(content, p.themeCount)),
	}
	if ins.Terms == nil {
		ins.Terms = []string{}
	}

	// Safe never returns an error.
	ins.Themes, _ = p.enricher.ClassifyThemes(ctx, content)
	ins.Corrections, _ = p.enricher.CorrectGrammar(ctx, content)
	ins.Completions, _ = p.enricher.GenerateCompletion(ctx, content)
	return ins, nil
}
