package content

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"sync"

	"github.com/p-n-ai/dia-canvas/internal/curriculum"
	"github.com/p-n-ai/dia-canvas/internal/quiz"
)

// BankSource exposes authored question banks, typically a curriculum.Loader.
type BankSource interface {
	QuestionBank(topicID int) []curriculum.BankQuestion
}

// Bank serves questions from authored banks. It returns at most Count
// questions in shuffled order; small banks yield fewer.
type Bank struct {
	src BankSource

	mu  sync.Mutex
	rng *rand.Rand
}

// NewBank creates a bank provider. A nil rng uses a random seed.
func NewBank(src BankSource, rng *rand.Rand) *Bank {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Bank{src: src, rng: rng}
}

func (b *Bank) Questions(_ context.Context, req Request) ([]quiz.Question, error) {
	authored := b.src.QuestionBank(req.Topic.TopicID)
	if len(authored) == 0 {
		return nil, ErrNoQuestions
	}

	raws := make([]RawQuestion, len(authored))
	for i, bq := range authored {
		raws[i] = rawFromBank(bq)
	}

	b.mu.Lock()
	b.rng.Shuffle(len(raws), func(i, j int) { raws[i], raws[j] = raws[j], raws[i] })
	b.mu.Unlock()

	if n := count(req); len(raws) > n {
		raws = raws[:n]
	}
	return AdaptAll(raws, req.Topic.TopicID), nil
}

func rawFromBank(bq curriculum.BankQuestion) RawQuestion {
	raw := RawQuestion{
		QID:      bq.QID,
		Type:     bq.Type,
		SkillTag: bq.SkillTag,
		Prompt:   bq.Prompt,
		Explain:  bq.Explain,
	}
	raw.Difficulty, _ = json.Marshal(bq.Difficulty)
	raw.AnswerKey, _ = json.Marshal(bq.AnswerKey)
	if len(bq.Choices) > 0 {
		raw.Choices, _ = json.Marshal(bq.Choices)
	}
	return raw
}
