// Package content supplies quiz questions to the session layer. Every external
// source (AI generators, static banks, caches) returns questions through the
// same Provider interface, and every external record shape is mapped onto
// quiz.Question by Adapt.
package content

import (
	"context"
	"errors"

	"github.com/p-n-ai/dia-canvas/internal/progress"
	"github.com/p-n-ai/dia-canvas/internal/quiz"
)

// ErrNoQuestions is returned when a source yields no usable questions.
var ErrNoQuestions = errors.New("no usable questions")

// TopicBrief is the topic context a provider needs to produce questions.
type TopicBrief struct {
	TopicID    int    `json:"topic_id"`
	ShortLabel string `json:"short_label"`
	FullText   string `json:"full_text"`
	GroupTitle string `json:"group_title,omitempty"`
}

// BriefFor builds a TopicBrief from curriculum content.
func BriefFor(c progress.TopicContent) TopicBrief {
	return TopicBrief{
		TopicID:    c.TopicID,
		ShortLabel: c.ShortLabel,
		FullText:   c.FullText,
		GroupTitle: c.GroupTitle,
	}
}

// Request asks a provider for an ordered list of questions.
type Request struct {
	Topic TopicBrief
	Count int
	Arena bool

	// ClassID and LearnerID identify who the quiz is for, for budgeting.
	ClassID   string
	LearnerID string
}

// Provider returns questions for a topic. Implementations return
// ErrNoQuestions (possibly wrapped) rather than an empty slice.
type Provider interface {
	Questions(ctx context.Context, req Request) ([]quiz.Question, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, req Request) ([]quiz.Question, error)

func (f ProviderFunc) Questions(ctx context.Context, req Request) ([]quiz.Question, error) {
	return f(ctx, req)
}
