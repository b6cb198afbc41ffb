// Package enrich talks to an optional language model for the parts of entry
// insights that the local analyzers cannot produce: theme labels, grammar
// corrections and writing prompts.
package enrich

import (
	"context"
	"errors"
	"time"

	"github.com/sadopc/inkwell/internal/errs"
	"github.com/sadopc/inkwell/internal/logging"
	"github.com/sirupsen/logrus"
)

// Correction is one suggested grammar or spelling fix.
type Correction struct {
	Original   string `json:"original" jsonschema:"required"`
	Suggestion string `json:"suggestion" jsonschema:"required"`
	Reason     string `json:"reason" jsonschema:"required"`
}

// Service produces enrichment for a piece of entry text.
type Service interface {
	ClassifyThemes(ctx context.Context, text string) ([]string, error)
	CorrectGrammar(ctx context.Context, text string) ([]Correction, error)
	GenerateCompletion(ctx context.Context, text string) ([]string, error)
}

// ErrDisabled is returned by Noop.
var ErrDisabled = errors.New("enrichment disabled")

// Noop is the Service used when no model is configured.
type Noop struct{}

func (Noop) ClassifyThemes(context.Context, string) ([]string, error) {
	return nil, errs.Unavailable("enrichment", ErrDisabled)
}

func (Noop) CorrectGrammar(context.Context, string) ([]Correction, error) {
	return nil, errs.Unavailable("enrichment", ErrDisabled)
}

func (Noop) GenerateCompletion(context.Context, string) ([]string, error) {
	return nil, errs.Unavailable("enrichment", ErrDisabled)
}

// Safe wraps a Service so that it never fails: each call is bounded by a
// timeout, and any error is logged and replaced with an empty result.
type Safe struct {
	svc     Service
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewSafe wraps svc. A zero timeout leaves the caller's deadline alone.
func NewSafe(svc Service, timeout time.Duration, log logrus.FieldLogger) *Safe {
	if svc == nil {
		svc = Noop{}
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Safe{svc: svc, timeout: timeout, log: log}
}

func (s *Safe) ClassifyThemes(ctx context.Context, text string) ([]string, error) {
	return call(s, ctx, "classify_themes", func(ctx context.Context) ([]string, error) {
		return s.svc.ClassifyThemes(ctx, text)
	})
}

func (s *Safe) CorrectGrammar(ctx context.Context, text string) ([]Correction, error) {
	return call(s, ctx, "correct_grammar", func(ctx context.Context) ([]Correction, error) {
		return s.svc.CorrectGrammar(ctx, text)
	})
}

func (s *Safe) GenerateCompletion(ctx context.Context, text string) ([]string, error) {
	return call(s, ctx, "generate_completion", func(ctx context.Context) ([]string, error) {
		return s.svc.GenerateCompletion(ctx, text)
	})
}

func call[T any](s *Safe, ctx context.Context, op string, fn func(context.Context) ([]T, error)) ([]T, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, err := fn(ctx)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		if errors.Is(err, ErrDisabled) {
			s.log.WithField("op", op).Debug("enrichment disabled")
		} else {
			s.log.WithError(errs.Unavailable("enrichment", err)).WithField("op", op).Warn("enrichment failed")
		}
		return []T{}, nil
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
