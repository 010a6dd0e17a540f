package progress

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// persistedState shadows Topics so saved topics can be merged by id.
type persistedState struct {
	State
	Topics []json.RawMessage `json:"topics"`
}

// EncodeState serializes s for storage. Pulses are transient and dropped.
func EncodeState(s State) ([]byte, error) {
	s = s.clone()
	for i := range s.Topics {
		s.Topics[i].clearPulse()
	}
	s.Version = StateVersion
	return json.Marshal(s)
}

// DecodeState merges a saved blob over defaults field by field, so blobs
// written before a field existed keep the default for it. Topics are matched
// by id; curriculum metadata always comes from defaults. An empty blob yields
// defaults. On error the returned state is defaults.
func DecodeState(defaults State, blob []byte) (State, error) {
	defaults = defaults.clone()
	if len(bytes.TrimSpace(blob)) == 0 {
		return defaults, nil
	}

	ps := persistedState{State: defaults.clone()}
	if err := json.Unmarshal(blob, &ps); err != nil {
		return defaults, fmt.Errorf("decoding state: %w", err)
	}
	s := ps.State

	if ps.Topics != nil {
		saved := make(map[int]json.RawMessage, len(ps.Topics))
		for _, raw := range ps.Topics {
			var key struct {
				TopicID *int `json:"topic_id"`
			}
			if err := json.Unmarshal(raw, &key); err != nil {
				return defaults, fmt.Errorf("decoding topic: %w", err)
			}
			if key.TopicID != nil {
				saved[*key.TopicID] = raw
			}
		}
		for i, def := range defaults.Topics {
			raw, ok := saved[def.TopicID]
			if !ok {
				continue
			}
			merged := def.clone()
			if err := json.Unmarshal(raw, &merged); err != nil {
				return defaults, fmt.Errorf("decoding topic %d: %w", def.TopicID, err)
			}
			merged.TopicContent = def.TopicContent
			s.Topics[i] = merged
		}
	}

	sanitize(&s)
	return s, nil
}

func sanitize(s *State) {
	s.Version = StateVersion
	for i := range s.Topics {
		t := &s.Topics[i]
		t.clearPulse()
		t.Competency = t.Competency.Clamped()
		if t.MasteryPercent > MasteryCeiling {
			t.MasteryPercent = MasteryCeiling
		}
		if t.AttemptsCount < 0 {
			t.AttemptsCount = 0
		}
	}

	p := &s.Profile
	if p.RankPoints < 0 {
		p.RankPoints = 0
	}
	if p.Streak < 0 {
		p.Streak = 0
	}
	p.Rank = RankForPoints(p.RankPoints)
	if p.Role != RoleTeacher {
		p.Role = RoleStudent
	}
	p.Preferences = p.Preferences.Clamped()

	if !s.ViewMode.Valid() {
		s.ViewMode = ViewStudentCanvas
	}
	if s.SessionLog == nil {
		s.SessionLog = []HistoryEntry{}
	}
	if len(s.SessionLog) > defaultHistoryLimit {
		s.SessionLog = s.SessionLog[:defaultHistoryLimit]
	}
}

// EncodeLadder serializes the arena ladder.
func EncodeLadder(l Ladder) ([]byte, error) {
	if l == nil {
		l = Ladder{}
	}
	return json.Marshal(l)
}

// DecodeLadder parses a saved ladder. An empty blob yields an empty ladder;
// on error the returned ladder is empty.
func DecodeLadder(blob []byte) (Ladder, error) {
	l := Ladder{}
	if len(bytes.TrimSpace(blob)) == 0 {
		return l, nil
	}
	if err := json.Unmarshal(blob, &l); err != nil {
		return Ladder{}, fmt.Errorf("decoding ladder: %w", err)
	}
	if l == nil {
		l = Ladder{}
	}
	for id, s := range l {
		if s.StarLevel < 0 {
			s.StarLevel = 0
		} else if s.StarLevel > MaxStars {
			s.StarLevel = MaxStars
		}
		if s.MatchesPlayed < 0 {
			s.MatchesPlayed = 0
		}
		l[id] = s
	}
	return l, nil
}
