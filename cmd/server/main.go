package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/p-n-ai/dia-canvas/internal/agent"
	"github.com/p-n-ai/dia-canvas/internal/api"
	"github.com/p-n-ai/dia-canvas/internal/canvas"
	"github.com/p-n-ai/dia-canvas/internal/content"
	"github.com/p-n-ai/dia-canvas/internal/curriculum"
	"github.com/p-n-ai/dia-canvas/internal/physics"
	"github.com/p-n-ai/dia-canvas/internal/platform/cache"
	"github.com/p-n-ai/dia-canvas/internal/platform/config"
	"github.com/p-n-ai/dia-canvas/internal/platform/database"
	"github.com/p-n-ai/dia-canvas/internal/roster"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log, os.Stdout))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	loader, err := curriculum.NewLoader(cfg.CurriculumPath)
	if err != nil {
		return fmt.Errorf("loading curriculum: %w", err)
	}
	topics := loader.AllTopics()

	var checks []api.HealthChecker

	var db *database.DB
	if cfg.Database.URL != "" {
		db, err = database.New(ctx, cfg.Database.URL, database.PoolConfig{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return err
		}
		defer db.Close()
		if err := agent.Migrate(ctx, db.Pool); err != nil {
			return err
		}
		checks = append(checks, db)
	}

	var rc *cache.Cache
	if cfg.Cache.URL != "" {
		rc, err = cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return err
		}
		defer rc.Close()
		checks = append(checks, rc)
	}

	ns := agent.Namespace(cfg.Storage.ProfileID, cfg.Storage.Generation)
	store, err := newStore(cfg.Storage.Backend, ns, db, rc)
	if err != nil {
		return err
	}
	var events agent.EventLogger = agent.NopEventLogger{}
	if db != nil {
		events = agent.NewPostgresEventLogger(db.Pool, ns)
	}

	tracker, err := agent.LoadTracker(ctx, store, topics, progressOptions(cfg.Quiz))
	if err != nil {
		return err
	}

	router := newAIRouter(cfg.AI)
	if !router.HasProvider() {
		slog.Warn("no AI provider configured, serving authored question banks only")
	}
	provider := newQuestionSource(router, loader, cfg, rc)

	engine := agent.NewEngine(agent.EngineConfig{
		Content:      provider,
		Tracker:      tracker,
		Store:        store,
		Events:       events,
		TimeLimits:   quizLimits(cfg.Quiz),
		ScoringDelay: cfg.Quiz.ScoringDelay,
		ClassID:      cfg.Storage.ProfileID,
	})
	defer engine.Close()

	loop := canvas.NewLoop(physics.New(physicsConfig(cfg.Physics), nil), tracker, canvas.LoopConfig{
		FPS:      cfg.Canvas.FPS,
		Viewport: physics.Viewport{W: cfg.Canvas.Width, H: cfg.Canvas.Height},
	})
	hub := canvas.NewHub(loop, canvas.HubConfig{OriginPatterns: cfg.Server.AllowedOrigins})

	deps := api.Deps{
		Engine:    engine,
		Dashboard: roster.NewDashboard(topics),
		Canvas:    hub,
		Checks:    checks,
	}
	if router.HasProvider() {
		deps.Insights = content.NewInsighter(router, loader)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewHandler(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting",
			"addr", srv.Addr,
			"storage", cfg.Storage.Backend,
			"ai_providers", router.Providers(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return loop.Run(gctx) })
	g.Go(func() error { return engine.RunCountdown(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		return nil
	})
	return g.Wait()
}
