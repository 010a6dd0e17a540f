package content_test

import (
	"errors"
	"testing"

	"github.com/p-n-ai/dia-canvas/internal/content"
)

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr error
	}{
		{"envelope", `{"questions": [{"qid": "a", "prompt": "p"}, {"qid": "b", "prompt": "q"}]}`, 2, nil},
		{"fenced", "```json\n{\"questions\": [{\"prompt\": \"p\"}]}\n```", 1, nil},
		{"bare array", `[{"prompt": "p"}]`, 1, nil},
		{"empty list", `{"questions": []}`, 0, content.ErrNoQuestions},
		{"empty payload", "   ", 0, content.ErrNoQuestions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qs, err := content.ParsePayload([]byte(tt.in), 3)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParsePayload() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePayload() error = %v", err)
			}
			if len(qs) != tt.want {
				t.Fatalf("len = %d, want %d", len(qs), tt.want)
			}
			for _, q := range qs {
				if q.TopicID != 3 {
					t.Errorf("TopicID = %d, want 3", q.TopicID)
				}
			}
		})
	}
}

func TestParsePayload_Invalid(t *testing.T) {
	for _, in := range []string{
		`{"items": []}`,
		`{"questions": "none"}`,
		`{"questions": [1, 2]}`,
		`not json`,
	} {
		if _, err := content.ParsePayload([]byte(in), 1); err == nil {
			t.Errorf("ParsePayload(%q) error = nil", in)
		}
	}
}
