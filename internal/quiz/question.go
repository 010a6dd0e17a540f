// Package quiz holds the question model, answer normalization, scoring and the
// quiz session state machine.
package quiz

import (
	"errors"
	"time"
)

// ErrNoQuestions is returned when a session would start with an empty question list.
var ErrNoQuestions = errors.New("quiz has no questions")

// QuestionType is the presentation kind of a question.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "MCQ"
	TypeTrueFalse      QuestionType = "TF"
	TypeFillIn         QuestionType = "FILL"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	switch t {
	case TypeMultipleChoice, TypeTrueFalse, TypeFillIn:
		return true
	}
	return false
}

// SkillTag identifies one of the four competency dimensions.
type SkillTag string

const (
	SkillC1 SkillTag = "C1"
	SkillC2 SkillTag = "C2"
	SkillC3 SkillTag = "C3"
	SkillC4 SkillTag = "C4"
)

// SkillTags lists all competency dimensions in display order.
var SkillTags = []SkillTag{SkillC1, SkillC2, SkillC3, SkillC4}

// Valid reports whether s is one of C1..C4.
func (s SkillTag) Valid() bool {
	switch s {
	case SkillC1, SkillC2, SkillC3, SkillC4:
		return true
	}
	return false
}

// Choice is one labeled option of a multiple-choice question.
type Choice struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is an immutable unit of quiz content.
type Question struct {
	QID        string       `json:"qid"`
	TopicID    int          `json:"topic_id"`
	Type       QuestionType `json:"type"`
	SkillTag   SkillTag     `json:"skill_tag"`
	Difficulty int          `json:"difficulty"`
	Prompt     string       `json:"prompt"`
	Choices    []Choice     `json:"choices,omitempty"`
	AnswerKey  string       `json:"answer_key"`
	Explain    string       `json:"explain"`
}

// SessionType distinguishes practice lengths from competitive matches.
type SessionType string

const (
	SessionPractice10 SessionType = "PRACTICE_10"
	SessionPractice25 SessionType = "PRACTICE_25"
	SessionArena      SessionType = "ARENA"
)

// IsArena reports whether the session feeds the arena ladder.
func (t SessionType) IsArena() bool {
	return t == SessionArena
}

// SessionTypeFor maps a requested length and mode onto a session type.
// Arena matches are always ten questions.
func SessionTypeFor(count int, arena bool) SessionType {
	switch {
	case arena:
		return SessionArena
	case count >= 25:
		return SessionPractice25
	default:
		return SessionPractice10
	}
}

// QuestionCount returns the number of questions requested for a session type.
func (t SessionType) QuestionCount() int {
	if t == SessionPractice25 {
		return 25
	}
	return 10
}

// TimeLimits configures the countdown per session type. A zero value means untimed.
type TimeLimits struct {
	Practice10 time.Duration
	Practice25 time.Duration
	Arena      time.Duration
}

// DefaultTimeLimits returns the production countdowns.
func DefaultTimeLimits() TimeLimits {
	return TimeLimits{
		Practice10: 300 * time.Second,
		Practice25: 900 * time.Second,
		Arena:      300 * time.Second,
	}
}

// For returns the configured limit for a session type.
func (l TimeLimits) For(t SessionType) time.Duration {
	switch t {
	case SessionArena:
		return l.Arena
	case SessionPractice25:
		return l.Practice25
	default:
		return l.Practice10
	}
}
