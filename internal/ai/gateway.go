// Package ai provides a provider-agnostic gateway to the language models that
// generate quiz content and topic insights.
package ai

import (
	"context"
	"encoding/json"
)

// TaskType defines the kind of AI task for routing and budgeting.
type TaskType int

const (
	TaskQuizGeneration TaskType = iota
	TaskInsight
)

func (t TaskType) String() string {
	switch t {
	case TaskQuizGeneration:
		return "quiz_generation"
	case TaskInsight:
		return "insight"
	default:
		return "unknown"
	}
}

// Message represents a chat message. Role is "system", "user" or "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to an AI completion.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Task        TaskType  `json:"task,omitempty"`

	// JSON asks the provider for a bare JSON document. Schema, when set, is
	// forwarded to providers that support constrained output.
	JSON   bool            `json:"json,omitempty"`
	Schema json.RawMessage `json:"schema,omitempty"`
}

// CompletionResponse is the output from an AI completion.
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	Provider     string `json:"provider"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// TotalTokens returns the sum of input and output tokens.
func (r CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// ModelInfo describes an available model.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MaxTokens   int    `json:"max_tokens"`
	Description string `json:"description"`
}

// Provider is the interface all AI providers must implement.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	Models() []ModelInfo
	HealthCheck(ctx context.Context) error
}

// jsonOnlyInstruction is appended to the system prompt for providers without
// a native JSON response mode.
const jsonOnlyInstruction = "Respond with a single JSON document and nothing else."

// splitSystem separates system messages from the conversation.
func splitSystem(msgs []Message) (string, []Message) {
	var system string
	rest := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == "system" {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
