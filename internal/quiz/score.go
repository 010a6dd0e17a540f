package quiz

const pointsPerDifficulty = 10

// Result summarizes a completed session.
type Result struct {
	TopicID      int               `json:"topic_id"`
	Type         SessionType       `json:"type"`
	Total        int               `json:"total_questions"`
	Correct      int               `json:"correct_count"`
	ScoreTotal   int               `json:"score_total"`
	Accuracy     float64           `json:"accuracy_pct"`
	SkillCorrect map[SkillTag]int  `json:"skill_correct"`
	Answers      map[string]string `json:"answers"`
	TimedOut     bool              `json:"timed_out"`
}

// Wrong returns the number of questions not answered correctly.
func (r Result) Wrong() int {
	return r.Total - r.Correct
}

// Score grades answers against the question sequence. Unanswered questions
// count as present but incorrect. Score is pure.
func Score(questions []Question, answers map[string]string) Result {
	r := Result{
		Total:        len(questions),
		SkillCorrect: make(map[SkillTag]int, len(SkillTags)),
		Answers:      make(map[string]string, len(answers)),
	}
	for k, v := range answers {
		r.Answers[k] = v
	}

	for _, q := range questions {
		submitted, ok := answers[q.QID]
		if !ok || !IsCorrect(q, submitted) {
			continue
		}
		r.Correct++
		difficulty := q.Difficulty
		if difficulty < 1 {
			difficulty = 1
		}
		r.ScoreTotal += pointsPerDifficulty * difficulty
		if q.SkillTag.Valid() {
			r.SkillCorrect[q.SkillTag]++
		}
	}

	if r.Total > 0 {
		r.Accuracy = float64(r.Correct*100) / float64(r.Total)
	}
	return r
}
