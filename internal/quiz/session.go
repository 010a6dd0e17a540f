package quiz

import (
	"fmt"
	"strings"
	"time"
)

// State is a node of the session state machine.
type State int

const (
	StateAwaitingAnswer State = iota
	StateScoring
	StateShowingExplanation
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateAwaitingAnswer:
		return "awaiting_answer"
	case StateScoring:
		return "scoring"
	case StateShowingExplanation:
		return "showing_explanation"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// Verdict is the graded outcome of a single submission.
type Verdict struct {
	QID       string   `json:"qid"`
	Index     int      `json:"index"`
	SkillTag  SkillTag `json:"skill_tag"`
	Submitted string   `json:"submitted"`
	Correct   bool     `json:"correct"`
	AnswerKey string   `json:"answer_key"`
	Explain   string   `json:"explain"`
}

// Session is one in-progress quiz bound to a single topic. Invalid transitions
// are silent no-ops reported through a false return. Session is not safe for
// concurrent use; the owner serializes access.
type Session struct {
	ID        string
	TopicID   int
	Type      SessionType
	StartedAt time.Time

	questions []Question
	index     int
	answers   map[string]string
	state     State
	timeLimit time.Duration
	remaining time.Duration
	last      *Verdict

	result      *Result
	resultTaken bool
}

// NewSession creates a session positioned on the first question. A zero
// timeLimit makes the session untimed.
func NewSession(id string, topicID int, typ SessionType, questions []Question, timeLimit time.Duration) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if timeLimit < 0 {
		return nil, fmt.Errorf("negative time limit %s", timeLimit)
	}
	qs := make([]Question, len(questions))
	copy(qs, questions)

	return &Session{
		ID:        id,
		TopicID:   topicID,
		Type:      typ,
		StartedAt: time.Now(),
		questions: qs,
		answers:   make(map[string]string, len(qs)),
		state:     StateAwaitingAnswer,
		timeLimit: timeLimit,
		remaining: timeLimit,
	}, nil
}

// Submit records an answer for the question at index and moves to Scoring.
// It is accepted only while awaiting an answer for that exact index and only
// for non-blank input.
func (s *Session) Submit(answer string, index int) (Verdict, bool) {
	if s.state != StateAwaitingAnswer || index != s.index || strings.TrimSpace(answer) == "" {
		return Verdict{}, false
	}
	q := s.questions[s.index]
	if _, seen := s.answers[q.QID]; seen {
		return Verdict{}, false
	}
	s.answers[q.QID] = answer

	v := Verdict{
		QID:       q.QID,
		Index:     s.index,
		SkillTag:  q.SkillTag,
		Submitted: answer,
		Correct:   IsCorrect(q, answer),
		AnswerKey: q.AnswerKey,
		Explain:   q.Explain,
	}
	s.last = &v
	s.state = StateScoring
	return v, true
}

// FinishScoring ends the scoring delay and reveals the explanation.
func (s *Session) FinishScoring() bool {
	if s.state != StateScoring {
		return false
	}
	s.state = StateShowingExplanation
	return true
}

// Advance moves past the explanation to the next question, or completes the
// session after the last one.
func (s *Session) Advance() bool {
	if s.state != StateShowingExplanation {
		return false
	}
	if s.index >= len(s.questions)-1 {
		s.complete(false)
		return true
	}
	s.index++
	s.last = nil
	s.state = StateAwaitingAnswer
	return true
}

// Cancel discards the session without producing a result.
func (s *Session) Cancel() bool {
	if s.state.Terminal() {
		return false
	}
	s.state = StateCancelled
	return true
}

// Tick consumes elapsed countdown time. It returns true when the countdown
// reaches zero and forces completion with the answers recorded so far.
func (s *Session) Tick(elapsed time.Duration) bool {
	if s.timeLimit == 0 || s.state.Terminal() || elapsed <= 0 {
		return false
	}
	s.remaining -= elapsed
	if s.remaining > 0 {
		return false
	}
	s.remaining = 0
	s.complete(true)
	return true
}

func (s *Session) complete(timedOut bool) {
	r := Score(s.questions, s.answers)
	r.TopicID = s.TopicID
	r.Type = s.Type
	r.TimedOut = timedOut
	s.result = &r
	s.state = StateCompleted
}

// TakeResult hands out the completion result exactly once.
func (s *Session) TakeResult() (Result, bool) {
	if s.result == nil || s.resultTaken {
		return Result{}, false
	}
	s.resultTaken = true
	return *s.result, true
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Index returns the zero-based index of the current question.
func (s *Session) Index() int { return s.index }

// Total returns the number of questions in the session.
func (s *Session) Total() int { return len(s.questions) }

// Current returns the question at the current index while the session is live.
func (s *Session) Current() (Question, bool) {
	if s.state.Terminal() {
		return Question{}, false
	}
	return s.questions[s.index], true
}

// Questions returns a copy of the question sequence.
func (s *Session) Questions() []Question {
	qs := make([]Question, len(s.questions))
	copy(qs, s.questions)
	return qs
}

// Answers returns a copy of the recorded answers keyed by question id.
func (s *Session) Answers() map[string]string {
	out := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// LastVerdict returns the verdict for the current question once it has been submitted.
func (s *Session) LastVerdict() (Verdict, bool) {
	if s.last == nil {
		return Verdict{}, false
	}
	return *s.last, true
}

// TimeLimit returns the configured countdown, zero when untimed.
func (s *Session) TimeLimit() time.Duration { return s.timeLimit }

// Remaining returns the time left on the countdown.
func (s *Session) Remaining() time.Duration { return s.remaining }
