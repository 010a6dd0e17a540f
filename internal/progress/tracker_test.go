package progress_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/p-n-ai/dia-canvas/internal/progress"
	"github.com/p-n-ai/dia-canvas/internal/quiz"
)

var now = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func testContent() []progress.TopicContent {
	return []progress.TopicContent{
		{TopicID: 1, ShortLabel: "Vị trí địa lí", Scale: 1.2, Color: "#00f5ff"},
		{TopicID: 2, ShortLabel: "Khí hậu", Scale: 1, Color: "#ffcc00"},
		{TopicID: 3, ShortLabel: "Sông ngòi", Scale: 0.8, Color: "#ff0055"},
	}
}

func newTracker(t *testing.T) *progress.Tracker {
	t.Helper()
	return progress.NewTracker(progress.DefaultState(testContent()), nil, progress.Options{})
}

// result grades a session of n difficulty-1 questions with the first correct
// ones answered right; skill tags cycle C1..C4.
func result(topicID, n, correct int, typ quiz.SessionType) quiz.Result {
	qs := make([]quiz.Question, n)
	answers := map[string]string{}
	for i := range qs {
		qs[i] = quiz.Question{
			QID:        fmt.Sprintf("q%d", i),
			Type:       quiz.TypeMultipleChoice,
			SkillTag:   quiz.SkillTags[i%4],
			Difficulty: 1,
			AnswerKey:  "A",
		}
		if i < correct {
			answers[qs[i].QID] = "A"
		}
	}
	r := quiz.Score(qs, answers)
	r.TopicID = topicID
	r.Type = typ
	return r
}

func TestRecordCorrectAnswer_MasteryCeiling(t *testing.T) {
	state := progress.DefaultState(testContent())
	state.Topics[0].MasteryPercent = 199
	tr := progress.NewTracker(state, nil, progress.Options{})

	topic, err := tr.RecordCorrectAnswer(1, now)
	if err != nil {
		t.Fatalf("RecordCorrectAnswer() error = %v", err)
	}
	if topic.MasteryPercent != 200 {
		t.Errorf("MasteryPercent = %v, want 200", topic.MasteryPercent)
	}
	if topic.Delta != 1 {
		t.Errorf("Delta = %v, want 1", topic.Delta)
	}

	for i := 0; i < 10; i++ {
		topic, _ = tr.RecordCorrectAnswer(1, now)
	}
	if topic.MasteryPercent != 200 {
		t.Errorf("MasteryPercent after repeats = %v, want 200", topic.MasteryPercent)
	}
	if topic.Delta != 0 {
		t.Errorf("Delta at ceiling = %v, want 0", topic.Delta)
	}
}

func TestRecordCorrectAnswer_PulseAndDelta(t *testing.T) {
	tr := newTracker(t)
	topic, _ := tr.RecordCorrectAnswer(2, now)

	if topic.MasteryPercent != 2 || topic.Delta != 2 {
		t.Errorf("mastery=%v delta=%v, want 2 and 2", topic.MasteryPercent, topic.Delta)
	}
	if topic.Pulse != progress.PulseCorrect {
		t.Errorf("Pulse = %q, want correct", topic.Pulse)
	}
	if topic.PulseUntil == nil || !topic.PulseUntil.Equal(now.Add(1200*time.Millisecond)) {
		t.Errorf("PulseUntil = %v, want now+1.2s", topic.PulseUntil)
	}
}

func TestRecordCorrectAnswer_UnknownTopic(t *testing.T) {
	tr := newTracker(t)
	if _, err := tr.RecordCorrectAnswer(42, now); !errors.Is(err, progress.ErrUnknownTopic) {
		t.Errorf("error = %v, want ErrUnknownTopic", err)
	}
}

func TestApplySession_AllCorrectPractice(t *testing.T) {
	tr := newTracker(t)
	out, err := tr.ApplySession(result(1, 10, 10, quiz.SessionPractice10), now)
	if err != nil {
		t.Fatalf("ApplySession() error = %v", err)
	}

	if out.Profile.RankPoints != 100 {
		t.Errorf("RankPoints = %d, want 100", out.Profile.RankPoints)
	}
	if out.Profile.Streak != 1 {
		t.Errorf("Streak = %d, want 1", out.Profile.Streak)
	}
	if out.Arena != nil {
		t.Errorf("Arena = %+v, want nil for practice", out.Arena)
	}
	if _, ok := tr.Arena(1); ok {
		t.Error("ladder touched by a practice session")
	}
	if out.Topic.AttemptsCount != 1 {
		t.Errorf("AttemptsCount = %d, want 1", out.Topic.AttemptsCount)
	}
	want := progress.CompetencyScores{C1: 6, C2: 6, C3: 4, C4: 4}
	if out.Topic.Competency != want {
		t.Errorf("Competency = %+v, want %+v", out.Topic.Competency, want)
	}
	if out.Topic.Pulse != progress.PulseCorrect {
		t.Errorf("Pulse = %q, want correct", out.Topic.Pulse)
	}
	if out.History.Type != progress.HistoryQuizComplete || out.History.Details != "Đúng 10/10" {
		t.Errorf("History = %+v", out.History)
	}
}

func TestApplySession_ArenaPromotionBoundary(t *testing.T) {
	tests := []struct {
		correct   int
		wantStars int
		promoted  bool
	}{
		{8, 1, true},
		{7, 0, false},
		{10, 1, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d of 10", tt.correct), func(t *testing.T) {
			tr := newTracker(t)
			out, err := tr.ApplySession(result(2, 10, tt.correct, quiz.SessionArena), now)
			if err != nil {
				t.Fatalf("ApplySession() error = %v", err)
			}
			if out.Arena == nil {
				t.Fatal("Arena = nil for an arena session")
			}
			if out.Arena.StarLevel != tt.wantStars {
				t.Errorf("StarLevel = %d, want %d", out.Arena.StarLevel, tt.wantStars)
			}
			if out.Promoted != tt.promoted {
				t.Errorf("Promoted = %v, want %v", out.Promoted, tt.promoted)
			}
			if out.Arena.MatchesPlayed != 1 {
				t.Errorf("MatchesPlayed = %d, want 1", out.Arena.MatchesPlayed)
			}
			if out.Arena.LastResult.WrongCount != 10-tt.correct {
				t.Errorf("WrongCount = %d, want %d", out.Arena.LastResult.WrongCount, 10-tt.correct)
			}
			if out.History.Type != progress.HistoryArenaMatchEnd {
				t.Errorf("History.Type = %q, want ARENA_MATCH_END", out.History.Type)
			}
		})
	}
}

func TestApplySession_StarsCapAndBestAccuracy(t *testing.T) {
	tr := newTracker(t)
	for i := 0; i < 7; i++ {
		tr.ApplySession(result(3, 10, 9, quiz.SessionArena), now)
	}
	out, _ := tr.ApplySession(result(3, 10, 2, quiz.SessionArena), now)

	if out.Arena.StarLevel != progress.MaxStars {
		t.Errorf("StarLevel = %d, want %d", out.Arena.StarLevel, progress.MaxStars)
	}
	if out.Arena.BestAccuracy != 90 {
		t.Errorf("BestAccuracy = %v, want 90", out.Arena.BestAccuracy)
	}
	if out.Arena.MatchesPlayed != 8 {
		t.Errorf("MatchesPlayed = %d, want 8", out.Arena.MatchesPlayed)
	}
	if out.Profile.Streak != 0 {
		t.Errorf("Streak = %d, want reset to 0", out.Profile.Streak)
	}
}

func TestApplySession_CompetencyClamp(t *testing.T) {
	tr := newTracker(t)
	var out progress.Outcome
	for i := 0; i < 40; i++ {
		out, _ = tr.ApplySession(result(1, 25, 25, quiz.SessionPractice25), now)
	}
	for _, tag := range quiz.SkillTags {
		if got := out.Topic.Competency.Get(tag); got != 100 {
			t.Errorf("Competency %s = %v, want 100", tag, got)
		}
	}
}

func TestApplySession_AchievementPulse(t *testing.T) {
	state := progress.DefaultState(testContent())
	state.Topics[1].MasteryPercent = 100
	tr := progress.NewTracker(state, nil, progress.Options{})

	out, _ := tr.ApplySession(result(2, 10, 1, quiz.SessionPractice10), now)
	if out.Topic.Pulse != progress.PulseAchievement {
		t.Errorf("Pulse = %q, want achievement", out.Topic.Pulse)
	}
}

func TestApplySession_HistoryCapped(t *testing.T) {
	tr := newTracker(t)
	for i := 0; i < 60; i++ {
		tr.ApplySession(result(1, 10, i%10, quiz.SessionPractice10), now.Add(time.Duration(i)*time.Minute))
	}
	log := tr.Snapshot().SessionLog
	if len(log) != 50 {
		t.Fatalf("len(SessionLog) = %d, want 50", len(log))
	}
	if !log[0].Timestamp.Equal(now.Add(59 * time.Minute)) {
		t.Errorf("newest entry at %v, want most recent first", log[0].Timestamp)
	}
}

func TestHistoryFor(t *testing.T) {
	tr := newTracker(t)
	tr.ApplySession(result(1, 10, 3, quiz.SessionPractice10), now)
	tr.ApplySession(result(2, 10, 5, quiz.SessionPractice10), now.Add(time.Minute))
	tr.ApplySession(result(1, 10, 7, quiz.SessionPractice10), now.Add(2*time.Minute))
	log := tr.Snapshot().SessionLog

	tests := []struct {
		topicID int
		want    []time.Time
	}{
		{1, []time.Time{now.Add(2 * time.Minute), now}},
		{2, []time.Time{now.Add(time.Minute)}},
		{3, nil},
	}
	for _, tt := range tests {
		got := progress.HistoryFor(log, tt.topicID)
		if len(got) != len(tt.want) {
			t.Errorf("HistoryFor(%d) = %d entries, want %d", tt.topicID, len(got), len(tt.want))
			continue
		}
		for i, e := range got {
			if e.TopicID != tt.topicID || !e.Timestamp.Equal(tt.want[i]) {
				t.Errorf("HistoryFor(%d)[%d] = topic %d at %v, want %v", tt.topicID, i, e.TopicID, e.Timestamp, tt.want[i])
			}
		}
	}
}

func TestApplySession_RankUp(t *testing.T) {
	state := progress.DefaultState(testContent())
	state.Profile.RankPoints = 450
	tr := progress.NewTracker(state, nil, progress.Options{})

	out, _ := tr.ApplySession(result(1, 10, 5, quiz.SessionPractice10), now)
	if out.Profile.RankPoints != 500 {
		t.Fatalf("RankPoints = %d, want 500", out.Profile.RankPoints)
	}
	if out.Profile.Rank != progress.RankSilver || !out.RankChanged {
		t.Errorf("Rank = %v changed=%v, want Bạc and true", out.Profile.Rank, out.RankChanged)
	}
}

func TestEstablishIdentity(t *testing.T) {
	tr := newTracker(t)
	tr.RecordCorrectAnswer(1, now)
	tr.ApplySession(result(1, 10, 10, quiz.SessionArena), now)

	if tr.HasIdentity() {
		t.Fatal("HasIdentity() = true before identity")
	}
	if err := tr.EstablishIdentity("  nguyễn văn an ", "8a1", now); err != nil {
		t.Fatalf("EstablishIdentity() error = %v", err)
	}

	s := tr.Snapshot()
	if s.Profile.FullName != "NGUYỄN VĂN AN" || s.Profile.ClassName != "8A1" {
		t.Errorf("identity = %q/%q, want upper-cased", s.Profile.FullName, s.Profile.ClassName)
	}
	if s.Profile.RankPoints != 0 || s.Profile.Streak != 0 || s.Profile.Rank != progress.RankBronze {
		t.Errorf("profile not reset: %+v", s.Profile)
	}
	for _, topic := range s.Topics {
		if topic.MasteryPercent != 0 || topic.AttemptsCount != 0 || topic.Delta != 0 ||
			topic.Competency != (progress.CompetencyScores{}) || topic.Pulse != progress.PulseNone {
			t.Errorf("topic %d not reset: %+v", topic.TopicID, topic)
		}
	}
	if len(s.SessionLog) != 0 {
		t.Errorf("SessionLog has %d entries, want 0", len(s.SessionLog))
	}
	if len(tr.LadderSnapshot()) != 0 {
		t.Error("ladder not reset")
	}
	if !s.HasStarted {
		t.Error("HasStarted = false")
	}

	if err := tr.EstablishIdentity("other", "8b", now); !errors.Is(err, progress.ErrIdentityEstablished) {
		t.Errorf("second EstablishIdentity() error = %v, want ErrIdentityEstablished", err)
	}
}

func TestEstablishIdentity_Invalid(t *testing.T) {
	tr := newTracker(t)
	if err := tr.EstablishIdentity(" ", "8a", now); !errors.Is(err, progress.ErrInvalidIdentity) {
		t.Errorf("error = %v, want ErrInvalidIdentity", err)
	}
}

func TestImportTopics(t *testing.T) {
	tr := newTracker(t)
	tr.ApplySession(result(2, 10, 10, quiz.SessionArena), now)
	before := tr.Snapshot()

	n := tr.ImportTopics([]progress.TopicRecord{
		{TopicID: 1, MasteryPercent: 75, Competency: progress.CompetencyScores{C1: 10, C2: 20, C3: 30, C4: 150}},
		{TopicID: 99, MasteryPercent: 50},
	}, now)
	if n != 1 {
		t.Errorf("ImportTopics() = %d, want 1", n)
	}

	got, _ := tr.Topic(1)
	if got.MasteryPercent != 75 {
		t.Errorf("MasteryPercent = %v, want 75", got.MasteryPercent)
	}
	if got.Competency.C4 != 100 {
		t.Errorf("C4 = %v, want clamped to 100", got.Competency.C4)
	}
	untouched, _ := tr.Topic(2)
	if untouched.MasteryPercent != before.Topics[1].MasteryPercent ||
		untouched.Competency != before.Topics[1].Competency {
		t.Error("topic 2 changed by an import that did not list it")
	}

	after := tr.Snapshot()
	if after.Profile.RankPoints != before.Profile.RankPoints || len(after.SessionLog) != len(before.SessionLog) {
		t.Error("import changed rank or history")
	}
	if s, _ := tr.Arena(2); s.StarLevel != 1 {
		t.Errorf("arena StarLevel = %d, want 1", s.StarLevel)
	}
}

func TestSweepPulses(t *testing.T) {
	tr := newTracker(t)
	tr.RecordCorrectAnswer(1, now)
	tr.ApplySession(result(2, 10, 5, quiz.SessionPractice10), now)

	if n := tr.SweepPulses(now.Add(time.Second)); n != 0 {
		t.Errorf("SweepPulses(+1s) = %d, want 0", n)
	}
	if n := tr.SweepPulses(now.Add(1200 * time.Millisecond)); n != 1 {
		t.Errorf("SweepPulses(+1.2s) = %d, want 1", n)
	}
	if n := tr.SweepPulses(now.Add(5 * time.Second)); n != 1 {
		t.Errorf("SweepPulses(+5s) = %d, want 1", n)
	}
	if n := tr.SweepPulses(now.Add(5 * time.Second)); n != 0 {
		t.Errorf("repeated SweepPulses() = %d, want 0", n)
	}
	for _, topic := range tr.Topics() {
		if topic.Pulse != progress.PulseNone || topic.PulseUntil != nil {
			t.Errorf("topic %d still pulsing", topic.TopicID)
		}
	}
}

func TestSetPreferences_Clamps(t *testing.T) {
	tr := newTracker(t)
	p := tr.SetPreferences(progress.Preferences{
		Theme:       "NEON",
		FontSize:    50,
		Intensity:   5,
		BubbleScale: -1,
	}, now)

	if p.Theme != progress.ThemeCrypto || p.FontSize != 30 || p.Intensity != 2 || p.BubbleScale != 0 {
		t.Errorf("SetPreferences() = %+v", p)
	}
	if tr.Profile().Preferences != p {
		t.Error("preferences not stored")
	}
}

func TestViewModeAndRole(t *testing.T) {
	tr := newTracker(t)

	if err := tr.SetViewMode(progress.ViewTeacherDashboard, now); !errors.Is(err, progress.ErrInvalidViewMode) {
		t.Errorf("student SetViewMode(dashboard) error = %v, want ErrInvalidViewMode", err)
	}
	if err := tr.SetViewMode("BOGUS", now); !errors.Is(err, progress.ErrInvalidViewMode) {
		t.Errorf("SetViewMode(BOGUS) error = %v", err)
	}
	if err := tr.SetViewMode(progress.ViewArena, now); err != nil {
		t.Errorf("SetViewMode(arena) error = %v", err)
	}

	if role := tr.ToggleRole(now); role != progress.RoleTeacher {
		t.Errorf("ToggleRole() = %q, want TEACHER", role)
	}
	if s := tr.Snapshot(); s.ViewMode != progress.ViewTeacherDashboard {
		t.Errorf("ViewMode = %q, want dashboard", s.ViewMode)
	}
	if role := tr.ToggleRole(now); role != progress.RoleStudent {
		t.Errorf("ToggleRole() = %q, want STUDENT", role)
	}
}

func TestRevision(t *testing.T) {
	tr := newTracker(t)
	r0 := tr.Revision()
	tr.RecordCorrectAnswer(1, now)
	if tr.Revision() <= r0 {
		t.Error("Revision() did not advance after a mutation")
	}
	r1 := tr.Revision()
	tr.SweepPulses(now)
	if tr.Revision() != r1 {
		t.Error("Revision() advanced on a no-op sweep")
	}
}

func TestSnapshot_IsolatedCopy(t *testing.T) {
	tr := newTracker(t)
	s := tr.Snapshot()
	s.Topics[0].MasteryPercent = 99
	s.Profile.RankPoints = 1000

	if got, _ := tr.Topic(1); got.MasteryPercent != 0 {
		t.Error("mutating a snapshot changed the tracker")
	}
	if tr.Profile().RankPoints != 0 {
		t.Error("mutating a snapshot changed the profile")
	}
}
