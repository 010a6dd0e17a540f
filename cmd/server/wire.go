package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/p-n-ai/dia-canvas/internal/agent"
	"github.com/p-n-ai/dia-canvas/internal/ai"
	"github.com/p-n-ai/dia-canvas/internal/content"
	"github.com/p-n-ai/dia-canvas/internal/physics"
	"github.com/p-n-ai/dia-canvas/internal/platform/cache"
	"github.com/p-n-ai/dia-canvas/internal/platform/config"
	"github.com/p-n-ai/dia-canvas/internal/platform/database"
	"github.com/p-n-ai/dia-canvas/internal/progress"
	"github.com/p-n-ai/dia-canvas/internal/quiz"
)

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// newStore picks the blob store for the configured backend. db and rc are
// nil when their URLs are unset.
func newStore(backend, namespace string, db *database.DB, rc *cache.Cache) (agent.BlobStore, error) {
	switch backend {
	case config.StoragePostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres storage needs a database connection")
		}
		return agent.NewPostgresStore(db.Pool, namespace)
	case config.StorageRedis:
		if rc == nil {
			return nil, fmt.Errorf("redis storage needs a cache connection")
		}
		return agent.NewRedisStore(rc.Client, namespace)
	default:
		return agent.NewMemoryStore(), nil
	}
}

// newAIRouter registers every configured provider. Registration order is
// the fallback order.
func newAIRouter(cfg config.AIConfig) *ai.Router {
	router := ai.NewRouter()
	if cfg.Google.APIKey != "" {
		var opts []ai.GoogleOption
		if cfg.Google.Model != "" {
			opts = append(opts, ai.WithGoogleModel(cfg.Google.Model))
		}
		router.Register("google", ai.NewGoogleProvider(cfg.Google.APIKey, opts...))
	}
	if cfg.Anthropic.APIKey != "" {
		p, err := ai.NewAnthropicProvider(cfg.Anthropic.APIKey)
		if err != nil {
			slog.Warn("skipping anthropic provider", "error", err)
		} else {
			router.Register("anthropic", p)
		}
	}
	if cfg.OpenAI.APIKey != "" {
		router.Register("openai", ai.NewOpenAIProvider(cfg.OpenAI.APIKey))
	}
	if cfg.OpenRouter.APIKey != "" {
		router.Register("openrouter", ai.NewOpenRouterProvider(cfg.OpenRouter.APIKey))
	}
	if cfg.Ollama.Enabled {
		router.Register("ollama", ai.NewOllamaProvider(cfg.Ollama.URL))
	}
	return router
}

// newQuestionSource chains the model generator ahead of the authored banks
// and, with a cache, remembers the last good quiz per topic.
func newQuestionSource(router *ai.Router, banks content.BankSource, cfg *config.Config, rc *cache.Cache) content.Provider {
	chain := content.NewFallback()
	if router.HasProvider() {
		var budget ai.BudgetChecker
		if cfg.AI.DailyTokenBudget > 0 {
			budget = ai.NewInMemoryBudget(cfg.AI.DailyTokenBudget)
		}
		chain.Add("generator", content.NewGenerator(router, budget, content.GeneratorConfig{}))
	}
	chain.Add("bank", content.NewBank(banks, nil))

	if rc == nil {
		return chain
	}
	return content.NewCachedProvider(chain, content.NewRedisCache(rc.Client), cfg.Cache.QuizTTL)
}

func quizLimits(cfg config.QuizConfig) quiz.TimeLimits {
	return quiz.TimeLimits{
		Practice10: cfg.Practice10Limit,
		Practice25: cfg.Practice25Limit,
		Arena:      cfg.ArenaLimit,
	}
}

func progressOptions(cfg config.QuizConfig) progress.Options {
	return progress.Options{
		CorrectPulse:    cfg.CorrectPulse,
		CompletionPulse: cfg.CompletionPulse,
	}
}

// physicsConfig overlays the configured forces on the tuned defaults.
// Non-positive values keep the default.
func physicsConfig(cfg config.PhysicsConfig) physics.Config {
	pc := physics.DefaultConfig()
	set := func(dst *float64, v float64) {
		if v > 0 {
			*dst = v
		}
	}
	set(&pc.Gravity, cfg.Gravity)
	set(&pc.Drift, cfg.Drift)
	set(&pc.Friction, cfg.Friction)
	set(&pc.Spring, cfg.Spring)
	set(&pc.Padding, cfg.Padding)
	set(&pc.Margin, cfg.Margin)
	set(&pc.BoundaryStiffness, cfg.BoundaryStiffness)
	set(&pc.MaxSpeed, cfg.MaxSpeed)
	return pc
}
