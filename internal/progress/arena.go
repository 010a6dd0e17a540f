package progress

import (
	"time"

	"github.com/p-n-ai/dia-canvas/internal/quiz"
)

const MaxStars = 5

// MatchResult summarizes the most recent arena match on a topic.
type MatchResult struct {
	CorrectCount int     `json:"correct_count"`
	WrongCount   int     `json:"wrong_count"`
	Accuracy     float64 `json:"accuracy"`
}

// ArenaStats is the star ladder record for one topic.
type ArenaStats struct {
	StarLevel     int          `json:"star_level"`
	MatchesPlayed int          `json:"matches_played"`
	BestAccuracy  float64      `json:"best_accuracy"`
	LastMatchAt   *time.Time   `json:"last_match_at"`
	LastResult    *MatchResult `json:"last_result"`
}

// Ladder holds arena stats keyed by topic id. It is persisted separately from State.
type Ladder map[int]ArenaStats

// record applies one arena match and returns the updated stats and whether
// a star was earned.
func (l Ladder) record(topicID int, r quiz.Result, promoteAt float64, now time.Time) (ArenaStats, bool) {
	s := l[topicID]
	promoted := false
	if r.Accuracy >= promoteAt && s.StarLevel < MaxStars {
		s.StarLevel++
		promoted = true
	}
	s.MatchesPlayed++
	if r.Accuracy > s.BestAccuracy {
		s.BestAccuracy = r.Accuracy
	}
	at := now
	s.LastMatchAt = &at
	s.LastResult = &MatchResult{
		CorrectCount: r.Correct,
		WrongCount:   r.Wrong(),
		Accuracy:     r.Accuracy,
	}
	l[topicID] = s
	return s, promoted
}

func (l Ladder) clone() Ladder {
	out := make(Ladder, len(l))
	for id, s := range l {
		if s.LastMatchAt != nil {
			at := *s.LastMatchAt
			s.LastMatchAt = &at
		}
		if s.LastResult != nil {
			r := *s.LastResult
			s.LastResult = &r
		}
		out[id] = s
	}
	return out
}
