package content_test

import (
	"context"
	"strings"
	"testing"

	"github.com/p-n-ai/dia-canvas/internal/ai"
	"github.com/p-n-ai/dia-canvas/internal/content"
	"github.com/p-n-ai/dia-canvas/internal/progress"
)

type notes map[int]string

func (n notes) GetTeachingNotes(id int) (string, bool) {
	s, ok := n[id]
	return s, ok
}

func topicWithProgress() progress.Topic {
	t := progress.NewTopic(progress.TopicContent{TopicID: 1, ShortLabel: "Vị trí địa lí"})
	t.MasteryPercent = 42
	t.Competency = progress.CompetencyScores{C1: 80, C2: 20}
	return t
}

func TestInsighter_JSON(t *testing.T) {
	mock := ai.NewMockProvider("```json\n{\"summary\": \"Ôn lại tọa độ.\", \"sources\": [{\"title\": \"SGK\", \"uri\": \"https://example.org\"}]}\n```")
	in := content.NewInsighter(mock, notes{1: "Dùng bản đồ."})

	got, err := in.Insight(context.Background(), topicWithProgress())
	if err != nil {
		t.Fatalf("Insight() error = %v", err)
	}
	if got.Summary != "Ôn lại tọa độ." || len(got.Sources) != 1 || got.TopicID != 1 {
		t.Errorf("Insight() = %+v", got)
	}

	req, _ := mock.LastRequest()
	if req.Task != ai.TaskInsight {
		t.Errorf("Task = %v, want insight", req.Task)
	}
	prompt := req.Messages[1].Content
	if !strings.Contains(prompt, "42%") || !strings.Contains(prompt, "Dùng bản đồ.") {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestInsighter_PlainText(t *testing.T) {
	in := content.NewInsighter(ai.NewMockProvider("Hãy ôn lại các điểm cực."), nil)

	got, err := in.Insight(context.Background(), topicWithProgress())
	if err != nil {
		t.Fatalf("Insight() error = %v", err)
	}
	if got.Summary != "Hãy ôn lại các điểm cực." || got.Sources == nil {
		t.Errorf("Insight() = %+v", got)
	}
}

func TestInsighter_Empty(t *testing.T) {
	in := content.NewInsighter(ai.NewMockProvider(""), nil)
	if _, err := in.Insight(context.Background(), topicWithProgress()); err == nil {
		t.Error("Insight() error = nil for an empty reply")
	}
}
