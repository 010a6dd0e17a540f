package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/p-n-ai/dia-canvas/internal/quiz"
)

// envelopeSchema is the minimum shape a generated payload must have. Field
// level problems inside each question are repaired by Adapt instead.
const envelopeSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["questions"],
	"properties": {
		"questions": {
			"type": "array",
			"items": {"type": "object"}
		}
	}
}`

// ResponseSchema is the structured-output schema sent to generators that
// support one. It uses the OpenAPI subset Gemini accepts.
var ResponseSchema = json.RawMessage(`{
	"type": "OBJECT",
	"properties": {
		"questions": {
			"type": "ARRAY",
			"items": {
				"type": "OBJECT",
				"properties": {
					"qid": {"type": "STRING"},
					"type": {"type": "STRING", "description": "MCQ, TF, or FILL"},
					"skill_tag": {"type": "STRING", "description": "C1, C2, C3, or C4"},
					"difficulty": {"type": "NUMBER"},
					"prompt": {"type": "STRING"},
					"choices": {
						"type": "OBJECT",
						"properties": {
							"A": {"type": "STRING"},
							"B": {"type": "STRING"},
							"C": {"type": "STRING"},
							"D": {"type": "STRING"}
						}
					},
					"answer_key": {"type": "STRING"},
					"explain": {"type": "STRING"}
				},
				"required": ["qid", "type", "skill_tag", "difficulty", "prompt", "answer_key", "explain"]
			}
		}
	}
}`)

var (
	envelopeOnce sync.Once
	envelope     *gojsonschema.Schema
	envelopeErr  error
)

func compiledEnvelope() (*gojsonschema.Schema, error) {
	envelopeOnce.Do(func() {
		envelope, envelopeErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(envelopeSchema))
	})
	return envelope, envelopeErr
}

// ValidatePayload checks that data is a question envelope.
func ValidatePayload(data []byte) error {
	schema, err := compiledEnvelope()
	if err != nil {
		return fmt.Errorf("compiling envelope schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid payload: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// ParsePayload decodes a generator response into adapted questions. It
// tolerates markdown code fences and a bare top-level array. A payload with
// no questions yields ErrNoQuestions.
func ParsePayload(data []byte, topicID int) ([]quiz.Question, error) {
	data = stripFences(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty payload: %w", ErrNoQuestions)
	}
	if data[0] == '[' {
		data = append(append([]byte(`{"questions":`), data...), '}')
	}

	if err := ValidatePayload(data); err != nil {
		return nil, err
	}

	var env struct {
		Questions []RawQuestion `json:"questions"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	if len(env.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	return AdaptAll(env.Questions, topicID), nil
}

func stripFences(data []byte) []byte {
	data = bytes.TrimSpace(data)
	if !bytes.HasPrefix(data, []byte("```")) {
		return data
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		data = data[i+1:]
	} else {
		return nil
	}
	data = bytes.TrimSpace(data)
	data = bytes.TrimSuffix(data, []byte("```"))
	return bytes.TrimSpace(data)
}
