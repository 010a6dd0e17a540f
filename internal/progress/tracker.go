// Package progress owns the learner's topic registry, profile, session log and
// arena ladder. Every mutation goes through a Tracker method so clamps and
// monotonic counters are enforced in one place.
package progress

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/dia-canvas/internal/quiz"
)

var (
	ErrUnknownTopic        = errors.New("unknown topic")
	ErrIdentityEstablished = errors.New("identity already established")
	ErrInvalidIdentity     = errors.New("name and class are required")
	ErrInvalidViewMode     = errors.New("invalid view mode")
)

const (
	defaultMasteryStep       = 2.0
	defaultCorrectPulse      = 1200 * time.Millisecond
	defaultCompletionPulse   = 3 * time.Second
	defaultImportPulse       = 2 * time.Second
	defaultHistoryLimit      = 50
	defaultPromotionAccuracy = 80.0
	defaultStreakAccuracy    = 80.0
	competencyPerCorrect     = 2.0
)

// Options tunes the progression rules. Zero values fall back to defaults.
type Options struct {
	MasteryStep       float64       // mastery gained per correct answer (default 2)
	CorrectPulse      time.Duration // pulse after a correct answer (default 1.2s)
	CompletionPulse   time.Duration // pulse after a completed session (default 3s)
	ImportPulse       time.Duration // pulse after an import (default 2s)
	HistoryLimit      int           // session log cap (default 50)
	PromotionAccuracy float64       // arena accuracy that earns a star (default 80)
	StreakAccuracy    float64       // accuracy that extends the streak (default 80)
}

// Outcome is what a completed session changed.
type Outcome struct {
	Topic       Topic        `json:"topic"`
	Profile     UserProfile  `json:"profile"`
	History     HistoryEntry `json:"history"`
	Arena       *ArenaStats  `json:"arena,omitempty"`
	Promoted    bool         `json:"promoted"`
	RankChanged bool         `json:"rank_changed"`
}

// TopicRecord is one imported row: mastery and competency overwrite the
// existing values for that topic.
type TopicRecord struct {
	TopicID        int
	MasteryPercent float64
	Competency     CompetencyScores
}

// Tracker holds State and Ladder behind a single lock.
type Tracker struct {
	mu     sync.RWMutex
	state  State
	ladder Ladder
	byID   map[int]int
	rev    uint64

	masteryStep       float64
	correctPulse      time.Duration
	completionPulse   time.Duration
	importPulse       time.Duration
	historyLimit      int
	promotionAccuracy float64
	streakAccuracy    float64
}

// NewTracker wraps a loaded state and ladder.
func NewTracker(state State, ladder Ladder, opts Options) *Tracker {
	if ladder == nil {
		ladder = Ladder{}
	}
	t := &Tracker{
		state:             state.clone(),
		ladder:            ladder.clone(),
		masteryStep:       opts.MasteryStep,
		correctPulse:      opts.CorrectPulse,
		completionPulse:   opts.CompletionPulse,
		importPulse:       opts.ImportPulse,
		historyLimit:      opts.HistoryLimit,
		promotionAccuracy: opts.PromotionAccuracy,
		streakAccuracy:    opts.StreakAccuracy,
	}
	if t.masteryStep == 0 {
		t.masteryStep = defaultMasteryStep
	}
	if t.correctPulse == 0 {
		t.correctPulse = defaultCorrectPulse
	}
	if t.completionPulse == 0 {
		t.completionPulse = defaultCompletionPulse
	}
	if t.importPulse == 0 {
		t.importPulse = defaultImportPulse
	}
	if t.historyLimit == 0 {
		t.historyLimit = defaultHistoryLimit
	}
	if t.promotionAccuracy == 0 {
		t.promotionAccuracy = defaultPromotionAccuracy
	}
	if t.streakAccuracy == 0 {
		t.streakAccuracy = defaultStreakAccuracy
	}
	t.reindex()
	return t
}

func (t *Tracker) reindex() {
	t.byID = make(map[int]int, len(t.state.Topics))
	for i, topic := range t.state.Topics {
		t.byID[topic.TopicID] = i
	}
}

func (t *Tracker) topic(id int) (*Topic, error) {
	i, ok := t.byID[id]
	if !ok {
		return nil, fmt.Errorf("topic %d: %w", id, ErrUnknownTopic)
	}
	return &t.state.Topics[i], nil
}

func (t *Tracker) touch(now time.Time) {
	t.rev++
	at := now
	t.state.LastActivityAt = &at
}

// RecordCorrectAnswer applies the mid-session credit for one correct answer:
// mastery rises by the step, capped at 200, and the actual increment becomes
// the topic's delta.
func (t *Tracker) RecordCorrectAnswer(topicID int, now time.Time) (Topic, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	topic, err := t.topic(topicID)
	if err != nil {
		return Topic{}, err
	}
	before := topic.MasteryPercent
	next := math.Min(MasteryCeiling, before+t.masteryStep)
	next = math.Max(next, before)
	next = math.Round(next*10) / 10

	topic.MasteryPercent = next
	topic.Delta = next - before
	topic.setPulse(PulseCorrect, now.Add(t.correctPulse))
	t.touch(now)
	return topic.clone(), nil
}

// ApplySession folds a completed session into the ladder, topic, profile and
// log. The caller guarantees it runs once per session.
func (t *Tracker) ApplySession(r quiz.Result, now time.Time) (Outcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	topic, err := t.topic(r.TopicID)
	if err != nil {
		return Outcome{}, err
	}

	var out Outcome
	if r.Type.IsArena() {
		stats, promoted := t.ladder.record(r.TopicID, r, t.promotionAccuracy, now)
		out.Arena = &stats
		out.Promoted = promoted
	}

	topic.AttemptsCount++
	for _, tag := range quiz.SkillTags {
		gain := competencyPerCorrect * float64(r.SkillCorrect[tag])
		topic.Competency.set(tag, topic.Competency.Get(tag)+gain)
	}
	at := now
	topic.LastAttemptAt = &at
	if topic.MasteryPercent >= 100 {
		topic.setPulse(PulseAchievement, now.Add(t.completionPulse))
	} else {
		topic.setPulse(PulseCorrect, now.Add(t.completionPulse))
	}

	p := &t.state.Profile
	oldRank := p.Rank
	p.RankPoints += r.ScoreTotal
	p.Rank = RankForPoints(p.RankPoints)
	if r.Accuracy >= t.streakAccuracy {
		p.Streak++
	} else {
		p.Streak = 0
	}

	entry := HistoryEntry{
		ID:         uuid.NewString(),
		Timestamp:  now,
		Type:       HistoryQuizComplete,
		TopicID:    r.TopicID,
		TopicLabel: topic.ShortLabel,
		Details:    fmt.Sprintf("Đúng %d/%d", r.Correct, r.Total),
	}
	if r.Type.IsArena() {
		entry.Type = HistoryArenaMatchEnd
	}
	t.state.SessionLog = prependHistory(t.state.SessionLog, entry, t.historyLimit)
	t.touch(now)

	out.Topic = topic.clone()
	out.Profile = *p
	out.History = entry
	out.RankChanged = p.Rank != oldRank
	return out, nil
}

// EstablishIdentity binds a name and class to the profile, once. It zeroes
// every topic's progress, the rank, the streak, the session log and the
// arena ladder.
func (t *Tracker) EstablishIdentity(fullName, className string, now time.Time) error {
	fullName = strings.ToUpper(strings.TrimSpace(fullName))
	className = strings.ToUpper(strings.TrimSpace(className))
	if fullName == "" || className == "" {
		return ErrInvalidIdentity
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Profile.HasIdentity() {
		return ErrIdentityEstablished
	}
	p := &t.state.Profile
	p.FullName = fullName
	p.ClassName = className
	p.Rank = RankBronze
	p.RankPoints = 0
	p.Streak = 0
	for i := range t.state.Topics {
		t.state.Topics[i].resetProgress()
	}
	t.state.SessionLog = []HistoryEntry{}
	t.state.HasStarted = true
	t.ladder = Ladder{}
	t.touch(now)
	return nil
}

// HasIdentity reports whether EstablishIdentity has run.
func (t *Tracker) HasIdentity() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Profile.HasIdentity()
}

// ImportTopics overwrites mastery and competency for the listed topics.
// Unknown ids are skipped. Ladder, rank and log are untouched. It returns
// the number of topics updated.
func (t *Tracker) ImportTopics(records []TopicRecord, now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, rec := range records {
		topic, err := t.topic(rec.TopicID)
		if err != nil {
			continue
		}
		topic.MasteryPercent = math.Max(0, math.Min(MasteryCeiling, rec.MasteryPercent))
		topic.Competency = rec.Competency.Clamped()
		topic.setPulse(PulseCorrect, now.Add(t.importPulse))
		n++
	}
	if n > 0 {
		t.touch(now)
	}
	return n
}

// SweepPulses clears every pulse whose window has passed. It is idempotent
// and returns how many pulses were cleared.
func (t *Tracker) SweepPulses(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for i := range t.state.Topics {
		topic := &t.state.Topics[i]
		if topic.Pulse == PulseNone {
			continue
		}
		if topic.PulseUntil == nil || !now.Before(*topic.PulseUntil) {
			topic.clearPulse()
			n++
		}
	}
	if n > 0 {
		t.rev++
	}
	return n
}

// SetPreferences stores clamped display settings and returns them.
func (t *Tracker) SetPreferences(p Preferences, now time.Time) Preferences {
	p = p.Clamped()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Profile.Preferences = p
	t.touch(now)
	return p
}

// SetViewMode switches the top-level screen. The teacher dashboard is only
// available to the teacher role.
func (t *Tracker) SetViewMode(m ViewMode, now time.Time) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidViewMode, m)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if m == ViewTeacherDashboard && t.state.Profile.Role != RoleTeacher {
		return fmt.Errorf("%w: dashboard requires teacher role", ErrInvalidViewMode)
	}
	t.state.ViewMode = m
	t.touch(now)
	return nil
}

// ToggleRole flips between student and teacher and moves to that role's home view.
func (t *Tracker) ToggleRole(now time.Time) Role {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := &t.state.Profile
	if p.Role == RoleTeacher {
		p.Role = RoleStudent
		t.state.ViewMode = ViewStudentCanvas
	} else {
		p.Role = RoleTeacher
		t.state.ViewMode = ViewTeacherDashboard
	}
	t.touch(now)
	return p.Role
}

// Snapshot returns a deep copy of the state.
func (t *Tracker) Snapshot() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.clone()
}

// LadderSnapshot returns a deep copy of the arena ladder.
func (t *Tracker) LadderSnapshot() Ladder {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ladder.clone()
}

// Topic returns a copy of one topic.
func (t *Tracker) Topic(id int) (Topic, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.byID[id]
	if !ok {
		return Topic{}, false
	}
	return t.state.Topics[i].clone(), true
}

// Topics returns a copy of every topic in registry order.
func (t *Tracker) Topics() []Topic {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Topic, len(t.state.Topics))
	for i, topic := range t.state.Topics {
		out[i] = topic.clone()
	}
	return out
}

// Profile returns the user profile.
func (t *Tracker) Profile() UserProfile {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Profile
}

// Arena returns the ladder record for a topic.
func (t *Tracker) Arena(topicID int) (ArenaStats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.ladder[topicID]
	return s, ok
}

// Revision increases on every mutation; callers use it to skip redundant work.
func (t *Tracker) Revision() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.rev
}
