package progress

import "time"

// HistoryType classifies a session log entry.
type HistoryType string

const (
	HistoryQuizComplete  HistoryType = "QUIZ_COMPLETE"
	HistoryArenaMatchEnd HistoryType = "ARENA_MATCH_END"
)

// HistoryEntry is one line of the session log.
type HistoryEntry struct {
	ID         string      `json:"id"`
	Timestamp  time.Time   `json:"timestamp"`
	Type       HistoryType `json:"type"`
	TopicID    int         `json:"topicId"`
	TopicLabel string      `json:"topicLabel"`
	Details    string      `json:"details,omitempty"`
}

// prependHistory puts e first and drops the oldest entries beyond limit.
func prependHistory(log []HistoryEntry, e HistoryEntry, limit int) []HistoryEntry {
	n := len(log) + 1
	if n > limit {
		n = limit
	}
	out := make([]HistoryEntry, 0, n)
	out = append(out, e)
	for _, old := range log {
		if len(out) == n {
			break
		}
		out = append(out, old)
	}
	return out
}

// HistoryFor returns the entries for one topic, newest first.
func HistoryFor(log []HistoryEntry, topicID int) []HistoryEntry {
	var out []HistoryEntry
	for _, e := range log {
		if e.TopicID == topicID {
			out = append(out, e)
		}
	}
	return out
}
