package quiz_test

import (
	"testing"

	"github.com/p-n-ai/dia-canvas/internal/quiz"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"true word", "TRUE", "TRUE"},
		{"true lowercase letter", "t", "TRUE"},
		{"true digit", "1", "TRUE"},
		{"true vietnamese", "Đúng", "TRUE"},
		{"true vietnamese lowercase", "  đúng ", "TRUE"},
		{"false word", "false", "FALSE"},
		{"false letter", "F", "FALSE"},
		{"false digit", "0", "FALSE"},
		{"false vietnamese", "sai", "FALSE"},
		{"mcq letter", " b ", "B"},
		{"fill keyword", "himalaya", "HIMALAYA"},
		{"fill vietnamese keyword", "biển đông", "BIỂN ĐÔNG"},
		{"empty", "   ", ""},
		{"number passes through", "10", "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quiz.Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"t", "Đúng", "sai", " a ", "Biển Đông", "0", "x y z", "TRUE", "ñandú"}
	for _, in := range inputs {
		once := quiz.Normalize(in)
		if twice := quiz.Normalize(once); twice != once {
			t.Errorf("Normalize(Normalize(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestNormalize_DecomposedVietnamese(t *testing.T) {
	// "Đúng" with a combining acute accent on the u.
	decomposed := "\u0110u\u0301ng"
	if got := quiz.Normalize(decomposed); got != "TRUE" {
		t.Errorf("Normalize(decomposed) = %q, want TRUE", got)
	}
}

func TestIsCorrect(t *testing.T) {
	tf := quiz.Question{QID: "q1", Type: quiz.TypeTrueFalse, AnswerKey: "TRUE"}
	if !quiz.IsCorrect(tf, "đúng") {
		t.Error("IsCorrect(TF, đúng) = false, want true")
	}
	if quiz.IsCorrect(tf, "F") {
		t.Error("IsCorrect(TF, F) = true, want false")
	}

	fill := quiz.Question{QID: "q2", Type: quiz.TypeFillIn, AnswerKey: "Himalaya"}
	if !quiz.IsCorrect(fill, " HIMALAYA ") {
		t.Error("IsCorrect(FILL) should ignore case and surrounding space")
	}
	if quiz.IsCorrect(fill, "Himalayas") {
		t.Error("IsCorrect(FILL) should not fuzzy match")
	}
}
