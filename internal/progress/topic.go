package progress

import (
	"time"

	"github.com/p-n-ai/dia-canvas/internal/quiz"
)

// TagLevel is the cognitive level a topic is tagged with in the curriculum.
type TagLevel string

const (
	TagRecall        TagLevel = "NB"
	TagUnderstand    TagLevel = "TH"
	TagApply         TagLevel = "VD"
	TagApplyAdvanced TagLevel = "VDC"
)

// PulseType is the transient highlight shown on a bubble after a scoring event.
type PulseType string

const (
	PulseNone        PulseType = ""
	PulseCorrect     PulseType = "correct"
	PulseAchievement PulseType = "achievement"
	PulseDecay       PulseType = "decay"
)

// CompetencyScores are the four per-topic skill dimensions, each in [0,100].
type CompetencyScores struct {
	C1 float64 `json:"C1"`
	C2 float64 `json:"C2"`
	C3 float64 `json:"C3"`
	C4 float64 `json:"C4"`
}

// Get returns the score for a skill tag.
func (c CompetencyScores) Get(tag quiz.SkillTag) float64 {
	switch tag {
	case quiz.SkillC1:
		return c.C1
	case quiz.SkillC2:
		return c.C2
	case quiz.SkillC3:
		return c.C3
	case quiz.SkillC4:
		return c.C4
	}
	return 0
}

func (c *CompetencyScores) set(tag quiz.SkillTag, v float64) {
	v = clamp(v, 0, MaxCompetency)
	switch tag {
	case quiz.SkillC1:
		c.C1 = v
	case quiz.SkillC2:
		c.C2 = v
	case quiz.SkillC3:
		c.C3 = v
	case quiz.SkillC4:
		c.C4 = v
	}
}

// Clamped returns a copy with every dimension in [0,100].
func (c CompetencyScores) Clamped() CompetencyScores {
	for _, tag := range quiz.SkillTags {
		c.set(tag, c.Get(tag))
	}
	return c
}

// Average returns the mean of the four dimensions.
func (c CompetencyScores) Average() float64 {
	return (c.C1 + c.C2 + c.C3 + c.C4) / 4
}

// MasteryHistory holds the mastery growth figures shown in the ranking
// table. The tracker never writes them; values only arrive through a
// persisted blob and are otherwise exported as 0.
type MasteryHistory struct {
	Day         float64 `json:"day"`
	Week        float64 `json:"week"`
	Month       float64 `json:"month"`
	ThreeMonths float64 `json:"three_months"`
}

// TopicContent is the immutable curriculum metadata of a topic.
type TopicContent struct {
	TopicID        int      `json:"topic_id" yaml:"topic_id"`
	GroupID        int      `json:"group_id" yaml:"group_id"`
	GroupTitle     string   `json:"group_title" yaml:"group_title"`
	TagLevel       TagLevel `json:"tag_level" yaml:"tag_level"`
	KeywordLabel   string   `json:"keyword_label" yaml:"keyword_label"`
	ShortLabel     string   `json:"short_label" yaml:"short_label"`
	FullText       string   `json:"full_text" yaml:"full_text"`
	Scale          float64  `json:"scale" yaml:"scale"`
	Color          string   `json:"color" yaml:"color"`
	Icon           string   `json:"icon" yaml:"icon"`
	InfographicURL string   `json:"infographic_url,omitempty" yaml:"infographic_url"`
}

// Topic is a unit of curriculum content together with the learner's progress on it.
type Topic struct {
	TopicContent

	MasteryPercent float64          `json:"mastery_percent"`
	Competency     CompetencyScores `json:"competency_scores"`
	AttemptsCount  int              `json:"attempts_count"`
	Delta          float64          `json:"delta"`
	LastAttemptAt  *time.Time       `json:"last_attempt_at"`
	History        MasteryHistory   `json:"history_mastery"`

	Pulse      PulseType  `json:"pulse_type,omitempty"`
	PulseUntil *time.Time `json:"pulse_until,omitempty"`
}

// NewTopic returns a topic with zero progress.
func NewTopic(content TopicContent) Topic {
	return Topic{TopicContent: content}
}

func (t *Topic) setPulse(p PulseType, until time.Time) {
	t.Pulse = p
	t.PulseUntil = &until
}

func (t *Topic) clearPulse() {
	t.Pulse = PulseNone
	t.PulseUntil = nil
}

func (t *Topic) resetProgress() {
	t.MasteryPercent = 0
	t.AttemptsCount = 0
	t.Delta = 0
	t.Competency = CompetencyScores{}
	t.LastAttemptAt = nil
	t.clearPulse()
}

func (t Topic) clone() Topic {
	if t.LastAttemptAt != nil {
		at := *t.LastAttemptAt
		t.LastAttemptAt = &at
	}
	if t.PulseUntil != nil {
		until := *t.PulseUntil
		t.PulseUntil = &until
	}
	return t
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
