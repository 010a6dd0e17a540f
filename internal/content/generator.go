package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/p-n-ai/dia-canvas/internal/ai"
	"github.com/p-n-ai/dia-canvas/internal/quiz"
)

// ErrBudgetExceeded is returned when a learner has used today's generation budget.
var ErrBudgetExceeded = errors.New("generation budget exceeded")

// Completer is the slice of ai.Router the generator needs.
type Completer interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error)
}

// GeneratorConfig tunes generation requests. Zero values use defaults.
type GeneratorConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Generator produces questions with a language model.
type Generator struct {
	llm    Completer
	budget ai.BudgetChecker
	cfg    GeneratorConfig
}

// NewGenerator creates a generator. budget may be nil.
func NewGenerator(llm Completer, budget ai.BudgetChecker, cfg GeneratorConfig) *Generator {
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 8192
	}
	return &Generator{llm: llm, budget: budget, cfg: cfg}
}

func (g *Generator) Questions(ctx context.Context, req Request) ([]quiz.Question, error) {
	if g.budget != nil {
		ok, err := g.budget.Check(req.ClassID, req.LearnerID)
		if err != nil {
			return nil, fmt.Errorf("checking budget: %w", err)
		}
		if !ok {
			return nil, ErrBudgetExceeded
		}
	}

	resp, err := g.llm.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: systemInstruction(req.Topic, req.Arena)},
			{Role: "user", Content: fmt.Sprintf("Generate %d specialized questions for topic: %s.", count(req), req.Topic.ShortLabel)},
		},
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Task:        ai.TaskQuizGeneration,
		JSON:        true,
		Schema:      ResponseSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("generating questions: %w", err)
	}

	if g.budget != nil {
		if err := g.budget.Record(req.ClassID, req.LearnerID, resp.TotalTokens()); err != nil {
			slog.Warn("failed to record generation usage", "learner", req.LearnerID, "error", err)
		}
	}

	qs, err := ParsePayload([]byte(resp.Content), req.Topic.TopicID)
	if err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", resp.Provider, err)
	}

	slog.Info("quiz generated",
		"topic_id", req.Topic.TopicID,
		"requested", count(req),
		"received", len(qs),
		"provider", resp.Provider,
		"model", resp.Model,
	)
	return qs, nil
}

// count snaps the requested length onto 10 or 25; arena is always 10.
func count(req Request) int {
	return quiz.SessionTypeFor(req.Count, req.Arena).QuestionCount()
}

func systemInstruction(t TopicBrief, arena bool) string {
	var b strings.Builder
	b.WriteString("Bạn là chuyên gia khảo thí môn Địa lí.\n")
	b.WriteString("NHIỆM VỤ: Soạn bộ đề trắc nghiệm Địa lí lớp 8 (Việt Nam).\n")
	fmt.Fprintf(&b, "CHUYÊN ĐỀ: %q.\n", firstNonEmpty(t.FullText, t.ShortLabel))
	if arena {
		b.WriteString("CHẾ ĐỘ: ĐẤU TRƯỜNG 1v1. Yêu cầu độ khó cao hơn.\n")
	}
	b.WriteString(`YÊU CẦU:
1. Có đủ 3 loại: MCQ (trắc nghiệm), TF (đúng/sai), FILL (điền khuyết).
2. Gắn skill_tag C1 đến C4 và độ khó 1 đến 5 chính xác.
3. Đáp án MCQ: A, B, C hoặc D.
4. Đáp án TF: "TRUE" hoặc "FALSE".
5. Đáp án FILL: từ khóa ngắn gọn, ví dụ "HIMALAYA", "BIỂN ĐÔNG".
6. "explain" phải mang tính sư phạm.
7. Chỉ trả về JSON thuần túy dạng {"questions": [...]}.`)
	return b.String()
}
