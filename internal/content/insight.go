package content

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/p-n-ai/dia-canvas/internal/ai"
	"github.com/p-n-ai/dia-canvas/internal/progress"
)

// Source is a reference cited by an insight.
type Source struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// Insight is a short study note for one topic.
type Insight struct {
	TopicID int      `json:"topic_id"`
	Summary string   `json:"summary"`
	Sources []Source `json:"sources"`
}

// NotesSource looks up teacher-authored notes for a topic.
type NotesSource interface {
	GetTeachingNotes(topicID int) (string, bool)
}

// Insighter asks a language model for a study note tailored to a learner's
// progress on a topic.
type Insighter struct {
	llm   Completer
	notes NotesSource
}

// NewInsighter creates an Insighter. notes may be nil.
func NewInsighter(llm Completer, notes NotesSource) *Insighter {
	return &Insighter{llm: llm, notes: notes}
}

// Insight generates a note for topic. Replies that are not JSON are used
// verbatim as the summary.
func (in *Insighter) Insight(ctx context.Context, topic progress.Topic) (Insight, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Chuyên đề: %s.\n", firstNonEmpty(topic.FullText, topic.ShortLabel))
	fmt.Fprintf(&b, "Mức thành thạo: %.0f%%. Năng lực C1=%.0f C2=%.0f C3=%.0f C4=%.0f.\n",
		topic.MasteryPercent, topic.Competency.C1, topic.Competency.C2, topic.Competency.C3, topic.Competency.C4)
	if in.notes != nil {
		if notes, ok := in.notes.GetTeachingNotes(topic.TopicID); ok {
			b.WriteString("Ghi chú giáo viên:\n")
			b.WriteString(notes)
			b.WriteString("\n")
		}
	}
	b.WriteString(`Viết tóm tắt ôn tập ngắn (tối đa 120 từ) tập trung vào năng lực yếu nhất. Trả về JSON {"summary": "...", "sources": [{"title": "...", "uri": "..."}]}.`)

	resp, err := in.llm.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: "Bạn là giáo viên Địa lí lớp 8 tại Việt Nam."},
			{Role: "user", Content: b.String()},
		},
		MaxTokens: 1024,
		Task:      ai.TaskInsight,
		JSON:      true,
	})
	if err != nil {
		return Insight{}, fmt.Errorf("generating insight: %w", err)
	}

	out := Insight{TopicID: topic.TopicID}
	text := stripFences([]byte(resp.Content))
	if err := json.Unmarshal(text, &out); err != nil || out.Summary == "" {
		out.Summary = strings.TrimSpace(string(text))
	}
	out.TopicID = topic.TopicID
	if out.Sources == nil {
		out.Sources = []Source{}
	}
	if out.Summary == "" {
		return Insight{}, fmt.Errorf("empty insight for topic %d", topic.TopicID)
	}
	return out, nil
}
