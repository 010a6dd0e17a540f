// Package config loads application configuration from environment variables.
// All variables use the LEARN_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// Config holds all application configuration.
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Cache          CacheConfig
	AI             AIConfig
	Storage        StorageConfig
	Quiz           QuizConfig
	Physics        PhysicsConfig
	Canvas         CanvasConfig
	Log            LogConfig
	CurriculumPath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
	// AllowedOrigins are extra websocket origins, e.g. a dev renderer.
	AllowedOrigins []string
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL
// disables the database.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings. An empty URL disables the
// cache.
type CacheConfig struct {
	URL     string
	QuizTTL time.Duration
}

// AIConfig holds configuration for all AI providers.
type AIConfig struct {
	Google     GoogleConfig
	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Ollama     OllamaConfig
	OpenRouter OpenRouterConfig
	// DailyTokenBudget caps generation per learner per day; 0 is unlimited.
	DailyTokenBudget int64
}

// GoogleConfig holds Google Gemini provider settings.
type GoogleConfig struct {
	APIKey string
	Model  string
}

// AnthropicConfig holds Anthropic provider settings.
type AnthropicConfig struct {
	APIKey string
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	APIKey string
}

// OllamaConfig holds self-hosted Ollama settings.
type OllamaConfig struct {
	Enabled bool
	URL     string
}

// OpenRouterConfig holds OpenRouter provider settings.
type OpenRouterConfig struct {
	APIKey string
}

// StorageConfig selects where learner state is persisted.
type StorageConfig struct {
	Backend    string // memory, postgres or redis
	ProfileID  string
	Generation int
}

// QuizConfig holds session timing.
type QuizConfig struct {
	ScoringDelay    time.Duration
	Practice10Limit time.Duration
	Practice25Limit time.Duration
	ArenaLimit      time.Duration
	CorrectPulse    time.Duration
	CompletionPulse time.Duration
}

// PhysicsConfig holds simulation tuning.
type PhysicsConfig struct {
	Gravity           float64
	Drift             float64
	Friction          float64
	Spring            float64
	Padding           float64
	Margin            float64
	BoundaryStiffness float64
	MaxSpeed          float64
}

// CanvasConfig holds frame loop settings.
type CanvasConfig struct {
	FPS    int
	Width  float64
	Height float64
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with LEARN_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           envInt("LEARN_SERVER_PORT", 8080),
			Host:           envStr("LEARN_SERVER_HOST", "0.0.0.0"),
			AllowedOrigins: envList("LEARN_SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			URL:      envStr("LEARN_DATABASE_URL", ""),
			MaxConns: envInt("LEARN_DATABASE_MAX_CONNS", 10),
			MinConns: envInt("LEARN_DATABASE_MIN_CONNS", 1),
		},
		Cache: CacheConfig{
			URL:     envStr("LEARN_CACHE_URL", ""),
			QuizTTL: envDuration("LEARN_CACHE_QUIZ_TTL", 7*24*time.Hour),
		},
		AI: AIConfig{
			Google: GoogleConfig{
				APIKey: envStr("LEARN_AI_GOOGLE_API_KEY", ""),
				Model:  envStr("LEARN_AI_GOOGLE_MODEL", ""),
			},
			Anthropic: AnthropicConfig{
				APIKey: envStr("LEARN_AI_ANTHROPIC_API_KEY", ""),
			},
			OpenAI: OpenAIConfig{
				APIKey: envStr("LEARN_AI_OPENAI_API_KEY", ""),
			},
			Ollama: OllamaConfig{
				Enabled: envBool("LEARN_AI_OLLAMA_ENABLED", false),
				URL:     envStr("LEARN_AI_OLLAMA_URL", "http://localhost:11434"),
			},
			OpenRouter: OpenRouterConfig{
				APIKey: envStr("LEARN_AI_OPENROUTER_API_KEY", ""),
			},
			DailyTokenBudget: int64(envInt("LEARN_AI_DAILY_TOKEN_BUDGET", 0)),
		},
		Storage: StorageConfig{
			Backend:    strings.ToLower(envStr("LEARN_STORAGE_BACKEND", StorageMemory)),
			ProfileID:  envStr("LEARN_STORAGE_PROFILE", "local"),
			Generation: envInt("LEARN_STORAGE_GENERATION", 1),
		},
		Quiz: QuizConfig{
			ScoringDelay:    envDuration("LEARN_QUIZ_SCORING_DELAY", 1200*time.Millisecond),
			Practice10Limit: envDuration("LEARN_QUIZ_PRACTICE10_LIMIT", 300*time.Second),
			Practice25Limit: envDuration("LEARN_QUIZ_PRACTICE25_LIMIT", 900*time.Second),
			ArenaLimit:      envDuration("LEARN_QUIZ_ARENA_LIMIT", 300*time.Second),
			CorrectPulse:    envDuration("LEARN_QUIZ_CORRECT_PULSE", 1200*time.Millisecond),
			CompletionPulse: envDuration("LEARN_QUIZ_COMPLETION_PULSE", 3*time.Second),
		},
		Physics: PhysicsConfig{
			Gravity:           envFloat("LEARN_PHYSICS_GRAVITY", 0.00018),
			Drift:             envFloat("LEARN_PHYSICS_DRIFT", 0.015),
			Friction:          envFloat("LEARN_PHYSICS_FRICTION", 0.99),
			Spring:            envFloat("LEARN_PHYSICS_SPRING", 0.06),
			Padding:           envFloat("LEARN_PHYSICS_PADDING", 10),
			Margin:            envFloat("LEARN_PHYSICS_MARGIN", 30),
			BoundaryStiffness: envFloat("LEARN_PHYSICS_BOUNDARY_STIFFNESS", 0.02),
			MaxSpeed:          envFloat("LEARN_PHYSICS_MAX_SPEED", 40),
		},
		Canvas: CanvasConfig{
			FPS:    envInt("LEARN_CANVAS_FPS", 60),
			Width:  envFloat("LEARN_CANVAS_WIDTH", 1280),
			Height: envFloat("LEARN_CANVAS_HEIGHT", 800),
		},
		Log: LogConfig{
			Level:  strings.ToLower(envStr("LEARN_LOG_LEVEL", "info")),
			Format: strings.ToLower(envStr("LEARN_LOG_FORMAT", "json")),
		},
		CurriculumPath: envStr("LEARN_CURRICULUM_PATH", "./oss"),
	}

	return cfg, nil
}

// Validate checks enum values and that the chosen storage backend has a URL.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageMemory:
	case StoragePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("LEARN_DATABASE_URL is required for postgres storage")
		}
	case StorageRedis:
		if c.Cache.URL == "" {
			return fmt.Errorf("LEARN_CACHE_URL is required for redis storage")
		}
	default:
		return fmt.Errorf("LEARN_STORAGE_BACKEND must be 'memory', 'postgres' or 'redis', got %q", c.Storage.Backend)
	}

	if c.Storage.ProfileID == "" {
		return fmt.Errorf("LEARN_STORAGE_PROFILE must not be empty")
	}
	if c.Storage.Generation < 1 {
		return fmt.Errorf("LEARN_STORAGE_GENERATION must be at least 1, got %d", c.Storage.Generation)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LEARN_LOG_LEVEL must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("LEARN_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	if c.Canvas.FPS < 1 || c.Canvas.FPS > 240 {
		return fmt.Errorf("LEARN_CANVAS_FPS must be between 1 and 240, got %d", c.Canvas.FPS)
	}
	if c.Quiz.ScoringDelay < 0 {
		return fmt.Errorf("LEARN_QUIZ_SCORING_DELAY must not be negative")
	}

	return nil
}

// HasAIProvider returns true if at least one AI provider is configured.
// Without one, quizzes come from the authored question banks only.
func (c *Config) HasAIProvider() bool {
	return c.AI.Google.APIKey != "" ||
		c.AI.Anthropic.APIKey != "" ||
		c.AI.OpenAI.APIKey != "" ||
		c.AI.OpenRouter.APIKey != "" ||
		c.AI.Ollama.Enabled
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

// envDuration accepts Go durations ("1.2s") or bare milliseconds ("1200").
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
