package content_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/p-n-ai/dia-canvas/internal/content"
	"github.com/p-n-ai/dia-canvas/internal/curriculum"
	"github.com/p-n-ai/dia-canvas/internal/quiz"
)

type fakeBanks map[int][]curriculum.BankQuestion

func (f fakeBanks) QuestionBank(id int) []curriculum.BankQuestion { return f[id] }

func bankOf(n int) []curriculum.BankQuestion {
	out := make([]curriculum.BankQuestion, n)
	for i := range out {
		out[i] = curriculum.BankQuestion{
			QID:        string(rune('a' + i)),
			Type:       "MCQ",
			SkillTag:   "C2",
			Difficulty: 3,
			Prompt:     "p",
			Choices:    map[string]string{"A": "1", "B": "2", "C": "3", "D": "4"},
			AnswerKey:  "d",
		}
	}
	return out
}

func TestBank_Questions(t *testing.T) {
	bank := content.NewBank(fakeBanks{1: bankOf(15)}, rand.New(rand.NewPCG(1, 2)))

	qs, err := bank.Questions(context.Background(), content.Request{Topic: content.TopicBrief{TopicID: 1}, Count: 10})
	if err != nil {
		t.Fatalf("Questions() error = %v", err)
	}
	if len(qs) != 10 {
		t.Fatalf("len = %d, want 10", len(qs))
	}
	seen := map[string]bool{}
	for _, q := range qs {
		if seen[q.QID] {
			t.Errorf("duplicate %q", q.QID)
		}
		seen[q.QID] = true
		if q.AnswerKey != "D" || q.Difficulty != 3 || q.SkillTag != quiz.SkillC2 || len(q.Choices) != 4 || q.TopicID != 1 {
			t.Errorf("question = %+v", q)
		}
	}
}

func TestBank_SmallBank(t *testing.T) {
	bank := content.NewBank(fakeBanks{1: bankOf(3)}, nil)

	qs, err := bank.Questions(context.Background(), content.Request{Topic: content.TopicBrief{TopicID: 1}, Count: 25})
	if err != nil {
		t.Fatalf("Questions() error = %v", err)
	}
	if len(qs) != 3 {
		t.Errorf("len = %d, want 3", len(qs))
	}
}

func TestBank_CountSnapped(t *testing.T) {
	bank := content.NewBank(fakeBanks{1: bankOf(26)}, nil)

	tests := []struct {
		count, want int
	}{
		{1, 10},
		{0, 10},
		{100000, 25},
	}
	for _, tt := range tests {
		qs, err := bank.Questions(context.Background(), content.Request{Topic: content.TopicBrief{TopicID: 1}, Count: tt.count})
		if err != nil {
			t.Fatalf("Questions(%d) error = %v", tt.count, err)
		}
		if len(qs) != tt.want {
			t.Errorf("Count %d: len = %d, want %d", tt.count, len(qs), tt.want)
		}
	}
}

func TestBank_Empty(t *testing.T) {
	bank := content.NewBank(fakeBanks{}, nil)
	if _, err := bank.Questions(context.Background(), content.Request{Topic: content.TopicBrief{TopicID: 9}}); !errors.Is(err, content.ErrNoQuestions) {
		t.Errorf("Questions() error = %v, want ErrNoQuestions", err)
	}
}
