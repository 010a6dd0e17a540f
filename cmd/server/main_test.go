package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/p-n-ai/dia-canvas/internal/agent"
	"github.com/p-n-ai/dia-canvas/internal/api"
	"github.com/p-n-ai/dia-canvas/internal/content"
	"github.com/p-n-ai/dia-canvas/internal/curriculum"
	"github.com/p-n-ai/dia-canvas/internal/platform/config"
	"github.com/p-n-ai/dia-canvas/internal/progress"
)

func TestHealthEndpoints(t *testing.T) {
	h := api.NewHandler(api.Deps{Engine: agent.NewEngine(agent.EngineConfig{})})

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthz returns 200",
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "readyz returns 200",
			path:       "/readyz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ready"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LogConfig
		wantDebug bool
		wantJSON  bool
	}{
		{"json info", config.LogConfig{Level: "info", Format: "json"}, false, true},
		{"text debug", config.LogConfig{Level: "debug", Format: "text"}, true, false},
		{"warn drops info", config.LogConfig{Level: "warn", Format: "json"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(tt.cfg, &buf)
			if got := logger.Enabled(context.Background(), -4); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			logger.Error("check", "k", "v")
			if got := json.Valid(bytes.TrimSpace(buf.Bytes())); got != tt.wantJSON {
				t.Errorf("json output = %v, want %v: %s", got, tt.wantJSON, buf.String())
			}
		})
	}
}

func TestNewStore(t *testing.T) {
	s, err := newStore(config.StorageMemory, "local:v1", nil, nil)
	if err != nil {
		t.Fatalf("newStore(memory) error = %v", err)
	}
	if _, ok := s.(*agent.MemoryStore); !ok {
		t.Errorf("store = %T, want *agent.MemoryStore", s)
	}

	for _, backend := range []string{config.StoragePostgres, config.StorageRedis} {
		if _, err := newStore(backend, "local:v1", nil, nil); err == nil {
			t.Errorf("newStore(%s) without a connection should fail", backend)
		}
	}
}

func TestNewAIRouter(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.AIConfig
		want []string
	}{
		{"none", config.AIConfig{}, nil},
		{
			name: "fallback order",
			cfg: config.AIConfig{
				Google:     config.GoogleConfig{APIKey: "g"},
				OpenAI:     config.OpenAIConfig{APIKey: "o"},
				OpenRouter: config.OpenRouterConfig{APIKey: "r"},
				Ollama:     config.OllamaConfig{Enabled: true, URL: "http://localhost:11434"},
			},
			want: []string{"google", "openai", "openrouter", "ollama"},
		},
		{"anthropic", config.AIConfig{Anthropic: config.AnthropicConfig{APIKey: "a"}}, []string{"anthropic"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newAIRouter(tt.cfg).Providers()
			if !slices.Equal(got, tt.want) {
				t.Errorf("Providers() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewQuestionSource_BankOnly(t *testing.T) {
	loader, err := curriculum.NewLoader("../../oss")
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	topic, ok := loader.GetTopic(1)
	if !ok {
		t.Fatal("topic 1 missing from sample curriculum")
	}

	src := newQuestionSource(newAIRouter(config.AIConfig{}), loader, &config.Config{}, nil)
	qs, err := src.Questions(context.Background(), content.Request{Topic: content.BriefFor(topic), Count: 10})
	if err != nil {
		t.Fatalf("Questions() error = %v", err)
	}
	if len(qs) == 0 || len(qs) > 10 {
		t.Fatalf("got %d questions, want 1..10", len(qs))
	}
	for _, q := range qs {
		if q.TopicID != 1 {
			t.Errorf("question %s topic = %d, want 1", q.QID, q.TopicID)
		}
	}
}

func TestPhysicsConfig_KeepsDefaultsForZero(t *testing.T) {
	pc := physicsConfig(config.PhysicsConfig{Friction: 0.95})
	if pc.Friction != 0.95 {
		t.Errorf("Friction = %v, want 0.95", pc.Friction)
	}
	if pc.MaxSpeed != 40 || pc.Padding != 10 {
		t.Errorf("defaults lost: MaxSpeed=%v Padding=%v", pc.MaxSpeed, pc.Padding)
	}
}

func TestProgressOptions(t *testing.T) {
	opts := progressOptions(config.QuizConfig{CorrectPulse: 1, CompletionPulse: 2})
	if opts != (progress.Options{CorrectPulse: 1, CompletionPulse: 2}) {
		t.Errorf("options = %+v", opts)
	}
}
