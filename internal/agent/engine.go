// Package agent orchestrates a learner's quiz sessions: it asks the content
// provider for questions, drives the quiz state machine, applies results to
// the progress tracker and persists every change.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/dia-canvas/internal/content"
	"github.com/p-n-ai/dia-canvas/internal/progress"
	"github.com/p-n-ai/dia-canvas/internal/quiz"
)

var (
	ErrIdentityRequired = errors.New("identity required before starting a quiz")
	ErrNoActiveSession  = errors.New("no active quiz session")
	ErrSessionActive    = errors.New("a quiz session is already running")
	ErrNotFound         = errors.New("topic not found")
)

// Status lines shown on the canvas header.
const (
	StatusReady       = "BỘ NÃO ĐỊA AI SẴN SÀNG."
	StatusGenerating  = "AI ĐANG KHỞI TẠO MA TRẬN ĐỀ..."
	StatusMatching    = "ĐANG KẾT NỐI ĐỐI THỦ AI..."
	StatusFailed      = "AUDIT FAILED: Không thể khởi tạo đề thi."
	StatusIdentity    = "XÁC THỰC DANH TÍNH ĐỂ BẮT ĐẦU."
	StatusImported    = "ĐỒNG BỘ DỮ LIỆU THÀNH CÔNG."
	StatusTeacherMode = "KÍCH HOẠT QUYỀN CHUYÊN GIA. ĐANG NẠP MA TRẬN CCTV..."
	StatusStudentMode = "CHẾ ĐỘ HỌC VIÊN."
)

// DefaultScoringDelay is how long a submitted answer stays in the scoring
// state before its explanation is revealed.
const DefaultScoringDelay = 1200 * time.Millisecond

// EngineConfig configures the session engine.
type EngineConfig struct {
	Content    content.Provider
	Tracker    *progress.Tracker
	Store      BlobStore
	Events     EventLogger
	TimeLimits quiz.TimeLimits
	// ScoringDelay of zero reveals the explanation synchronously.
	ScoringDelay time.Duration
	ClassID      string
	Now          func() time.Time
}

// StartRequest asks for a new quiz on one topic.
type StartRequest struct {
	TopicID int  `json:"topic_id"`
	Count   int  `json:"count"`
	Arena   bool `json:"arena"`
}

// QuestionView is a question with its answer key withheld.
type QuestionView struct {
	QID        string            `json:"qid"`
	Type       quiz.QuestionType `json:"type"`
	SkillTag   quiz.SkillTag     `json:"skill_tag"`
	Difficulty int               `json:"difficulty"`
	Prompt     string            `json:"prompt"`
	Choices    []quiz.Choice     `json:"choices,omitempty"`
}

// Completion is what a finished session produced.
type Completion struct {
	Result  quiz.Result      `json:"result"`
	Outcome progress.Outcome `json:"outcome"`
}

// SessionView is the client-facing snapshot of a session. Verdict is only
// set while the explanation is shown.
type SessionView struct {
	ID               string           `json:"id"`
	TopicID          int              `json:"topic_id"`
	Type             quiz.SessionType `json:"type"`
	State            string           `json:"state"`
	Index            int              `json:"index"`
	Total            int              `json:"total"`
	TimeLimitSeconds int              `json:"time_limit_seconds"`
	RemainingSeconds int              `json:"remaining_seconds"`
	Question         *QuestionView    `json:"question,omitempty"`
	Verdict          *quiz.Verdict    `json:"verdict,omitempty"`
	Completion       *Completion      `json:"completion,omitempty"`
}

// Engine runs one learner profile. At most one session is live at a time.
type Engine struct {
	provider     content.Provider
	tracker      *progress.Tracker
	store        BlobStore
	events       EventLogger
	limits       quiz.TimeLimits
	scoringDelay time.Duration
	classID      string
	now          func() time.Time

	mu      sync.Mutex
	session *quiz.Session
	scoring *time.Timer
	pending *StartRequest
	loading bool
	status  string
	last    *Completion
}

// NewEngine creates a new session engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Tracker == nil {
		cfg.Tracker = progress.NewTracker(progress.DefaultState(nil), nil, progress.Options{})
	}
	if cfg.Store == nil {
		cfg.Store = NewMemoryStore()
	}
	if cfg.Events == nil {
		cfg.Events = NopEventLogger{}
	}
	if cfg.TimeLimits == (quiz.TimeLimits{}) {
		cfg.TimeLimits = quiz.DefaultTimeLimits()
	}
	if cfg.ScoringDelay < 0 {
		cfg.ScoringDelay = 0
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{
		provider:     cfg.Content,
		tracker:      cfg.Tracker,
		store:        cfg.Store,
		events:       cfg.Events,
		limits:       cfg.TimeLimits,
		scoringDelay: cfg.ScoringDelay,
		classID:      cfg.ClassID,
		now:          cfg.Now,
		status:       StatusReady,
	}
}

// Tracker exposes the progress tracker for read-side consumers.
func (e *Engine) Tracker() *progress.Tracker {
	return e.tracker
}

// Status returns the current header status line.
func (e *Engine) Status() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Loading reports whether a quiz is being fetched.
func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// StartQuiz fetches questions and opens a session. The count is snapped to
// 10 or 25 questions. Without an identity the request is parked and
// ErrIdentityRequired is returned; EstablishIdentity resumes it.
func (e *Engine) StartQuiz(ctx context.Context, req StartRequest) (SessionView, error) {
	req.Count = quiz.SessionTypeFor(req.Count, req.Arena).QuestionCount()
	topic, ok := e.tracker.Topic(req.TopicID)
	if !ok {
		return SessionView{}, fmt.Errorf("%w: %d", ErrNotFound, req.TopicID)
	}

	e.mu.Lock()
	if e.session != nil && !e.session.State().Terminal() {
		e.mu.Unlock()
		return SessionView{}, ErrSessionActive
	}
	if e.loading {
		e.mu.Unlock()
		return SessionView{}, ErrSessionActive
	}
	if !e.tracker.HasIdentity() {
		pending := req
		e.pending = &pending
		e.status = StatusIdentity
		e.mu.Unlock()
		return SessionView{}, ErrIdentityRequired
	}
	e.loading = true
	e.last = nil
	if req.Arena {
		e.status = StatusMatching
	} else {
		e.status = StatusGenerating
	}
	e.mu.Unlock()

	profile := e.tracker.Profile()
	creq := content.Request{
		Topic:     content.BriefFor(topic.TopicContent),
		Count:     req.Count,
		Arena:     req.Arena,
		ClassID:   e.classID,
		LearnerID: profile.FullName,
	}
	questions, err := e.fetch(ctx, creq)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading = false

	if err != nil {
		e.status = StatusFailed
		slog.Error("failed to start quiz",
			"topic_id", req.TopicID,
			"arena", req.Arena,
			"error", err,
		)
		e.logEvent("", EventQuizStartFailed, map[string]any{
			"topic_id": req.TopicID,
			"error":    err.Error(),
		})
		return SessionView{}, fmt.Errorf("starting quiz: %w", err)
	}

	typ := quiz.SessionTypeFor(req.Count, req.Arena)
	s, err := quiz.NewSession(uuid.NewString(), req.TopicID, typ, questions, e.limits.For(typ))
	if err != nil {
		e.status = StatusFailed
		return SessionView{}, fmt.Errorf("starting quiz: %w", err)
	}
	s.StartedAt = e.now()
	e.session = s
	e.status = fmt.Sprintf("CHUYÊN ĐỀ: %s", topic.ShortLabel)

	slog.Info("quiz started",
		"session_id", s.ID,
		"topic_id", s.TopicID,
		"type", string(s.Type),
		"questions", s.Total(),
	)
	e.logEvent(s.ID, EventQuizStarted, map[string]any{
		"topic_id":  s.TopicID,
		"type":      string(s.Type),
		"questions": s.Total(),
	})
	return e.viewLocked(), nil
}

func (e *Engine) fetch(ctx context.Context, req content.Request) ([]quiz.Question, error) {
	if e.provider == nil {
		return nil, content.ErrNoQuestions
	}
	qs, err := e.provider.Questions(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, content.ErrNoQuestions
	}
	return qs, nil
}

// EstablishIdentity binds the learner's name and class and, if a quiz was
// waiting on it, starts that quiz. The returned view is nil when nothing was
// pending.
func (e *Engine) EstablishIdentity(ctx context.Context, fullName, className string) (*SessionView, error) {
	if err := e.tracker.EstablishIdentity(fullName, className, e.now()); err != nil {
		return nil, err
	}
	e.persist(ctx)
	e.logEvent("", EventIdentityEstablished, map[string]any{
		"class": e.tracker.Profile().ClassName,
	})

	e.mu.Lock()
	pending := e.pending
	e.pending = nil
	e.status = StatusReady
	e.mu.Unlock()

	if pending == nil {
		return nil, nil
	}
	view, err := e.StartQuiz(ctx, *pending)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Pending returns the quiz request parked behind the identity gate.
func (e *Engine) Pending() (StartRequest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return StartRequest{}, false
	}
	return *e.pending, true
}

// Submit grades the current question. The session stays in the scoring
// state until the scoring delay elapses.
func (e *Engine) Submit(ctx context.Context, answer string, index int) (SessionView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.session
	if s == nil {
		return SessionView{}, false
	}
	v, ok := s.Submit(answer, index)
	if !ok {
		return e.viewLocked(), false
	}
	e.logEvent(s.ID, EventAnswerSubmitted, map[string]any{
		"qid":     v.QID,
		"index":   v.Index,
		"correct": v.Correct,
	})

	if e.scoringDelay == 0 {
		e.finishScoringLocked(ctx, s.ID)
		return e.viewLocked(), true
	}

	id := s.ID
	e.scoring = time.AfterFunc(e.scoringDelay, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.finishScoringLocked(context.Background(), id)
	})
	return e.viewLocked(), true
}

func (e *Engine) finishScoringLocked(ctx context.Context, sessionID string) {
	s := e.session
	if s == nil || s.ID != sessionID {
		return
	}
	if !s.FinishScoring() {
		return
	}
	e.scoring = nil
	if e.creditLastAnswerLocked(s) {
		e.persist(ctx)
	}
}

// creditLastAnswerLocked bumps mastery when the last verdict was correct.
func (e *Engine) creditLastAnswerLocked(s *quiz.Session) bool {
	v, ok := s.LastVerdict()
	if !ok || !v.Correct {
		return false
	}
	if _, err := e.tracker.RecordCorrectAnswer(s.TopicID, e.now()); err != nil {
		slog.Warn("failed to record correct answer", "topic_id", s.TopicID, "error", err)
		return false
	}
	return true
}

// Advance moves past the explanation. After the last question the session
// completes and the view carries its Completion.
func (e *Engine) Advance(ctx context.Context) (SessionView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.session
	if s == nil || !s.Advance() {
		if s == nil {
			return SessionView{}, false
		}
		return e.viewLocked(), false
	}
	if s.State() == quiz.StateCompleted {
		return e.completeLocked(ctx), true
	}
	return e.viewLocked(), true
}

// Cancel abandons the session without applying a result.
func (e *Engine) Cancel(ctx context.Context) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.session
	if s == nil || !s.Cancel() {
		return false
	}
	e.stopScoringLocked()
	e.session = nil
	e.status = StatusReady

	slog.Info("quiz cancelled", "session_id", s.ID, "index", s.Index())
	e.logEvent(s.ID, EventQuizCancelled, map[string]any{
		"topic_id": s.TopicID,
		"index":    s.Index(),
	})
	return true
}

// Tick advances the countdown. A session that runs out of time completes
// with its current answers; an answer still being scored is credited first.
// It reports whether the session timed out.
func (e *Engine) Tick(ctx context.Context, elapsed time.Duration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.session
	if s == nil {
		return false
	}
	scoring := s.State() == quiz.StateScoring
	if !s.Tick(elapsed) {
		return false
	}
	if scoring {
		e.stopScoringLocked()
		e.creditLastAnswerLocked(s)
	}
	e.completeLocked(ctx)
	return true
}

// RunCountdown ticks the active session once per second until ctx is done.
func (e *Engine) RunCountdown(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.Tick(ctx, time.Second)
		}
	}
}

func (e *Engine) completeLocked(ctx context.Context) SessionView {
	s := e.session
	e.stopScoringLocked()

	view := e.viewLocked()
	r, ok := s.TakeResult()
	e.session = nil
	if !ok {
		return view
	}

	outcome, err := e.tracker.ApplySession(r, e.now())
	if err != nil {
		slog.Error("failed to apply session result",
			"session_id", s.ID,
			"topic_id", r.TopicID,
			"error", err,
		)
		e.status = StatusReady
		return view
	}
	e.persist(ctx)

	done := &Completion{Result: r, Outcome: outcome}
	e.last = done
	view.Completion = done
	e.status = fmt.Sprintf("HOÀN THÀNH: ĐÚNG %d/%d.", r.Correct, r.Total)

	slog.Info("quiz completed",
		"session_id", s.ID,
		"topic_id", r.TopicID,
		"correct", r.Correct,
		"total", r.Total,
		"timed_out", r.TimedOut,
		"promoted", outcome.Promoted,
	)
	e.logEvent(s.ID, EventQuizCompleted, map[string]any{
		"topic_id":  r.TopicID,
		"type":      string(r.Type),
		"correct":   r.Correct,
		"total":     r.Total,
		"accuracy":  r.Accuracy,
		"timed_out": r.TimedOut,
		"promoted":  outcome.Promoted,
	})
	return view
}

func (e *Engine) stopScoringLocked() {
	if e.scoring != nil {
		e.scoring.Stop()
		e.scoring = nil
	}
}

// Session returns the live session view.
func (e *Engine) Session() (SessionView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return SessionView{}, false
	}
	return e.viewLocked(), true
}

// LastCompletion returns the most recent completed session since the last
// StartQuiz.
func (e *Engine) LastCompletion() (Completion, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return Completion{}, false
	}
	return *e.last, true
}

func (e *Engine) viewLocked() SessionView {
	s := e.session
	v := SessionView{
		ID:               s.ID,
		TopicID:          s.TopicID,
		Type:             s.Type,
		State:            s.State().String(),
		Index:            s.Index(),
		Total:            s.Total(),
		TimeLimitSeconds: int(s.TimeLimit() / time.Second),
		RemainingSeconds: int(s.Remaining() / time.Second),
	}
	if q, ok := s.Current(); ok {
		v.Question = &QuestionView{
			QID:        q.QID,
			Type:       q.Type,
			SkillTag:   q.SkillTag,
			Difficulty: q.Difficulty,
			Prompt:     q.Prompt,
			Choices:    q.Choices,
		}
	}
	if s.State() == quiz.StateShowingExplanation {
		if verdict, ok := s.LastVerdict(); ok {
			v.Verdict = &verdict
		}
	}
	return v
}

// Import overwrites topic progress from a roster file.
func (e *Engine) Import(ctx context.Context, records []progress.TopicRecord) int {
	n := e.tracker.ImportTopics(records, e.now())
	if n == 0 {
		return 0
	}
	e.persist(ctx)

	e.mu.Lock()
	e.status = StatusImported
	e.logEvent("", EventTopicsImported, map[string]any{"topics": n})
	e.mu.Unlock()
	return n
}

// SetPreferences stores display settings and returns the clamped values.
func (e *Engine) SetPreferences(ctx context.Context, p progress.Preferences) progress.Preferences {
	p = e.tracker.SetPreferences(p, e.now())
	e.persist(ctx)
	return p
}

// SetViewMode switches the top-level screen.
func (e *Engine) SetViewMode(ctx context.Context, m progress.ViewMode) error {
	if err := e.tracker.SetViewMode(m, e.now()); err != nil {
		return err
	}
	e.persist(ctx)
	return nil
}

// ToggleRole flips the learner between student and teacher.
func (e *Engine) ToggleRole(ctx context.Context) progress.Role {
	role := e.tracker.ToggleRole(e.now())
	e.persist(ctx)

	e.mu.Lock()
	if role == progress.RoleTeacher {
		e.status = StatusTeacherMode
	} else {
		e.status = StatusStudentMode
	}
	e.mu.Unlock()
	return role
}

// Close stops a pending scoring timer.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopScoringLocked()
}

func (e *Engine) persist(ctx context.Context) {
	if err := SaveTracker(ctx, e.store, e.tracker); err != nil {
		slog.Error("failed to persist progress", "error", err)
	}
}

func (e *Engine) logEvent(sessionID, eventType string, data map[string]any) {
	if err := e.events.LogEvent(Event{
		SessionID: sessionID,
		EventType: eventType,
		Data:      data,
		CreatedAt: e.now(),
	}); err != nil {
		slog.Warn("failed to log event", "type", eventType, "error", err)
	}
}
