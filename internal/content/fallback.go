package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/dia-canvas/internal/quiz"
)

// Fallback tries providers in order and returns the first non-empty result.
type Fallback struct {
	names     []string
	providers []Provider
}

// NewFallback creates an empty chain.
func NewFallback() *Fallback {
	return &Fallback{}
}

// Add appends a named provider to the chain.
func (f *Fallback) Add(name string, p Provider) *Fallback {
	f.names = append(f.names, name)
	f.providers = append(f.providers, p)
	return f
}

// Len returns the number of providers in the chain.
func (f *Fallback) Len() int { return len(f.providers) }

func (f *Fallback) Questions(ctx context.Context, req Request) ([]quiz.Question, error) {
	if len(f.providers) == 0 {
		return nil, ErrNoQuestions
	}

	var errs []error
	for i, p := range f.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		qs, err := p.Questions(ctx, req)
		if err == nil && len(qs) == 0 {
			err = ErrNoQuestions
		}
		if err != nil {
			slog.Warn("question source failed, trying next",
				"source", f.names[i],
				"topic_id", req.Topic.TopicID,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", f.names[i], err))
			continue
		}
		return qs, nil
	}
	return nil, errors.Join(errs...)
}
