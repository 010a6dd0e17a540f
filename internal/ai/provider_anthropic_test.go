package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const anthropicOK = `{
	"content": [{"type": "text", "text": "Claude response"}],
	"model": "claude-haiku-4-5-20251001",
	"usage": {"input_tokens": 10, "output_tokens": 5}
}`

func TestNewAnthropicProvider_EmptyKey(t *testing.T) {
	if _, err := NewAnthropicProvider(""); err == nil {
		t.Fatal("NewAnthropicProvider(\"\") error = nil")
	}
}

func TestAnthropicProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("path = %s, want /messages", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Error("missing x-api-key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Error("missing anthropic-version header")
		}
		w.Write([]byte(anthropicOK))
	}))
	defer server.Close()

	p, _ := NewAnthropicProvider("test-key", WithAnthropicBaseURL(server.URL))
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "Claude response" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.TotalTokens() != 15 {
		t.Errorf("TotalTokens() = %d, want 15", resp.TotalTokens())
	}
}

func TestAnthropicProvider_Complete_SystemMessage(t *testing.T) {
	var got anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(anthropicOK))
	}))
	defer server.Close()

	p, _ := NewAnthropicProvider("k", WithAnthropicBaseURL(server.URL), WithAnthropicModel("claude-sonnet-4-6"))
	_, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: "You write geography quizzes."},
			{Role: "user", Content: "5 questions"},
		},
		JSON: true,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	if got.Model != "claude-sonnet-4-6" {
		t.Errorf("model = %q, want configured model", got.Model)
	}
	if !strings.HasPrefix(got.System, "You write geography quizzes.") {
		t.Errorf("system = %q", got.System)
	}
	if !strings.HasSuffix(got.System, jsonOnlyInstruction) {
		t.Errorf("system = %q, want JSON instruction appended", got.System)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Errorf("messages = %+v, want only the user turn", got.Messages)
	}
	if got.MaxTokens != 4096 {
		t.Errorf("max_tokens = %d, want default 4096", got.MaxTokens)
	}
}

func TestAnthropicProvider_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	}))
	defer server.Close()

	p, _ := NewAnthropicProvider("k", WithAnthropicBaseURL(server.URL))
	if _, err := p.Complete(context.Background(), CompletionRequest{}); err == nil {
		t.Fatal("Complete() error = nil, want API error")
	}
}

func TestAnthropicProvider_Complete_NoText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[],"model":"m"}`))
	}))
	defer server.Close()

	p, _ := NewAnthropicProvider("k", WithAnthropicBaseURL(server.URL))
	if _, err := p.Complete(context.Background(), CompletionRequest{}); err == nil {
		t.Fatal("Complete() error = nil, want no-content error")
	}
}

func TestAnthropicProvider_HealthCheck(t *testing.T) {
	var maxTokens int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		json.NewDecoder(r.Body).Decode(&req)
		maxTokens = req.MaxTokens
		w.Write([]byte(anthropicOK))
	}))
	defer server.Close()

	p, _ := NewAnthropicProvider("k", WithAnthropicBaseURL(server.URL))
	if err := p.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
	if maxTokens != 1 {
		t.Errorf("health check max_tokens = %d, want 1", maxTokens)
	}
}

func TestAnthropicProvider_Models(t *testing.T) {
	p, _ := NewAnthropicProvider("k")
	if len(p.Models()) != 2 {
		t.Errorf("len(Models()) = %d, want 2", len(p.Models()))
	}
}
