package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/p-n-ai/dia-canvas/internal/quiz"
)

const (
	placeholderChoice  = "..."
	placeholderPrompt  = "..."
	placeholderExplain = "Đáp án đã được hệ thống phê duyệt."

	minDifficulty = 1
	maxDifficulty = 5
)

// choiceLabels are the labels of a four-option question, in display order.
var choiceLabels = []string{"A", "B", "C", "D"}

// RawQuestion is a question record as produced by an external source. It
// accepts every field spelling seen from generators and authored banks.
type RawQuestion struct {
	QID         string          `json:"qid"`
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	SkillTag    string          `json:"skill_tag"`
	Difficulty  json.RawMessage `json:"difficulty"`
	Prompt      string          `json:"prompt"`
	Question    string          `json:"question"`
	Choices     json.RawMessage `json:"choices"`
	Options     json.RawMessage `json:"options"`
	AnswerKey   json.RawMessage `json:"answer_key"`
	Answer      json.RawMessage `json:"answer"`
	Explain     string          `json:"explain"`
	Explanation string          `json:"explanation"`
}

// Adapt maps a raw record onto a quiz.Question, applying every default.
// It never fails; missing or invalid fields are substituted.
func Adapt(raw RawQuestion, topicID int) quiz.Question {
	q := quiz.Question{
		QID:     firstNonEmpty(raw.QID, raw.ID),
		TopicID: topicID,
		Prompt:  firstNonEmpty(raw.Prompt, raw.Question),
		Explain: firstNonEmpty(raw.Explain, raw.Explanation),
	}
	if q.QID == "" {
		q.QID = "Q-" + uuid.NewString()[:8]
	}
	if q.Prompt == "" {
		q.Prompt = placeholderPrompt
	}
	if q.Explain == "" {
		q.Explain = placeholderExplain
	}

	q.Type = quiz.QuestionType(strings.ToUpper(strings.TrimSpace(raw.Type)))
	if !q.Type.Valid() {
		q.Type = quiz.TypeMultipleChoice
	}

	q.SkillTag = quiz.SkillTag(strings.ToUpper(strings.TrimSpace(raw.SkillTag)))
	if !q.SkillTag.Valid() {
		q.SkillTag = quiz.SkillC1
	}

	q.Difficulty = parseDifficulty(raw.Difficulty)

	if q.Type == quiz.TypeMultipleChoice {
		q.Choices = parseChoices(raw.Choices)
		if len(q.Choices) == 0 {
			q.Choices = parseChoices(raw.Options)
		}
		if len(q.Choices) == 0 {
			q.Choices = placeholderChoices()
		}
	}

	key := scalarString(raw.AnswerKey)
	if key == "" {
		key = scalarString(raw.Answer)
	}
	key = quiz.Normalize(key)
	if key == "" {
		key = choiceLabels[0]
		if len(q.Choices) > 0 {
			key = q.Choices[0].Label
		}
	}
	q.AnswerKey = key
	return q
}

// AdaptAll adapts a list of records, keeping QIDs unique within the list.
func AdaptAll(raws []RawQuestion, topicID int) []quiz.Question {
	out := make([]quiz.Question, 0, len(raws))
	seen := make(map[string]int, len(raws))
	for _, raw := range raws {
		q := Adapt(raw, topicID)
		if n := seen[q.QID]; n > 0 {
			seen[q.QID] = n + 1
			q.QID = fmt.Sprintf("%s-%d", q.QID, n+1)
		}
		seen[q.QID]++
		out = append(out, q)
	}
	return out
}

func placeholderChoices() []quiz.Choice {
	out := make([]quiz.Choice, len(choiceLabels))
	for i, l := range choiceLabels {
		out[i] = quiz.Choice{Label: l, Text: placeholderChoice}
	}
	return out
}

// parseChoices accepts {"A": "...", ...}, ["...", ...] or
// [{"label": "A", "text": "..."}, ...].
func parseChoices(data json.RawMessage) []quiz.Choice {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var byLabel map[string]string
	if err := json.Unmarshal(data, &byLabel); err == nil {
		labels := make([]string, 0, len(byLabel))
		for l := range byLabel {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		out := make([]quiz.Choice, 0, len(labels))
		for _, l := range labels {
			out = append(out, quiz.Choice{Label: strings.ToUpper(strings.TrimSpace(l)), Text: byLabel[l]})
		}
		return out
	}

	var texts []string
	if err := json.Unmarshal(data, &texts); err == nil {
		out := make([]quiz.Choice, 0, len(texts))
		for i, text := range texts {
			if i >= len(choiceLabels) {
				break
			}
			out = append(out, quiz.Choice{Label: choiceLabels[i], Text: text})
		}
		return out
	}

	var pairs []quiz.Choice
	if err := json.Unmarshal(data, &pairs); err == nil {
		out := make([]quiz.Choice, 0, len(pairs))
		for i, c := range pairs {
			if c.Label == "" && i < len(choiceLabels) {
				c.Label = choiceLabels[i]
			}
			c.Label = strings.ToUpper(strings.TrimSpace(c.Label))
			out = append(out, c)
		}
		return out
	}
	return nil
}

// parseDifficulty accepts a number or numeric string and clamps to 1..5.
func parseDifficulty(data json.RawMessage) int {
	var d float64
	if err := json.Unmarshal(data, &d); err != nil {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return minDifficulty
		}
		d, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return minDifficulty
		}
	}
	n := int(d)
	switch {
	case n < minDifficulty:
		return minDifficulty
	case n > maxDifficulty:
		return maxDifficulty
	}
	return n
}

// scalarString renders a JSON string, number or bool as text.
func scalarString(data json.RawMessage) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return s
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		return strconv.FormatBool(b)
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		return n.String()
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
