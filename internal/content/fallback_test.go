package content_test

import (
	"context"
	"errors"
	"testing"

	"github.com/p-n-ai/dia-canvas/internal/content"
	"github.com/p-n-ai/dia-canvas/internal/quiz"
)

func static(qs ...quiz.Question) content.Provider {
	return content.ProviderFunc(func(context.Context, content.Request) ([]quiz.Question, error) {
		return qs, nil
	})
}

func failing(err error) content.Provider {
	return content.ProviderFunc(func(context.Context, content.Request) ([]quiz.Question, error) {
		return nil, err
	})
}

func TestFallback(t *testing.T) {
	boom := errors.New("boom")
	chain := content.NewFallback().
		Add("ai", failing(boom)).
		Add("empty", static()).
		Add("bank", static(quiz.Question{QID: "b1"}))

	qs, err := chain.Questions(context.Background(), content.Request{})
	if err != nil {
		t.Fatalf("Questions() error = %v", err)
	}
	if len(qs) != 1 || qs[0].QID != "b1" {
		t.Errorf("questions = %+v, want bank result", qs)
	}
	if chain.Len() != 3 {
		t.Errorf("Len() = %d, want 3", chain.Len())
	}
}

func TestFallback_AllFail(t *testing.T) {
	boom := errors.New("boom")
	chain := content.NewFallback().Add("ai", failing(boom)).Add("empty", static())

	_, err := chain.Questions(context.Background(), content.Request{})
	if !errors.Is(err, boom) || !errors.Is(err, content.ErrNoQuestions) {
		t.Errorf("Questions() error = %v, want both causes", err)
	}
}

func TestFallback_Empty(t *testing.T) {
	if _, err := content.NewFallback().Questions(context.Background(), content.Request{}); !errors.Is(err, content.ErrNoQuestions) {
		t.Errorf("Questions() error = %v, want ErrNoQuestions", err)
	}
}
