package curriculum

// QuestionBank is a static set of questions authored for one topic.
type QuestionBank struct {
	TopicID   int            `yaml:"topic_id"`
	Questions []BankQuestion `yaml:"questions"`
}

// BankQuestion is a question record as authored in YAML. Fields stay loosely
// typed; defaults are applied when the question is adapted for a quiz.
type BankQuestion struct {
	QID        string            `yaml:"qid"`
	Type       string            `yaml:"type"`
	SkillTag   string            `yaml:"skill_tag"`
	Difficulty int               `yaml:"difficulty"`
	Prompt     string            `yaml:"prompt"`
	Choices    map[string]string `yaml:"choices"`
	AnswerKey  string            `yaml:"answer_key"`
	Explain    string            `yaml:"explain"`
}
