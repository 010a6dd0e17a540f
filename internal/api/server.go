// Package api exposes the learner engine, roster files and the teacher
// dashboard over HTTP, plus the canvas frame stream.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/p-n-ai/dia-canvas/internal/agent"
	"github.com/p-n-ai/dia-canvas/internal/content"
	"github.com/p-n-ai/dia-canvas/internal/progress"
	"github.com/p-n-ai/dia-canvas/internal/roster"
)

// HealthChecker is a dependency checked by /readyz.
type HealthChecker interface {
	Name() string
	HealthCheck(ctx context.Context) error
}

// InsightSource generates a study note for a topic.
type InsightSource interface {
	Insight(ctx context.Context, topic progress.Topic) (content.Insight, error)
}

// Deps wires the handler. Insights, Dashboard and Canvas are optional; their
// routes answer 503 when unset.
type Deps struct {
	Engine    *agent.Engine
	Insights  InsightSource
	Dashboard *roster.Dashboard
	Canvas    http.Handler
	Checks    []HealthChecker
	Now       func() time.Time
}

type server struct {
	engine    *agent.Engine
	insights  InsightSource
	dashboard *roster.Dashboard
	canvas    http.Handler
	checks    []HealthChecker
	now       func() time.Time
}

// NewHandler builds the HTTP handler with request id, access log and panic
// recovery applied to every route.
func NewHandler(d Deps) http.Handler {
	s := &server{
		engine:    d.Engine,
		insights:  d.Insights,
		dashboard: d.Dashboard,
		canvas:    d.Canvas,
		checks:    d.Checks,
		now:       d.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/arena", s.handleArena)
	mux.HandleFunc("POST /api/identity", s.handleIdentity)
	mux.HandleFunc("PUT /api/preferences", s.handlePreferences)
	mux.HandleFunc("PUT /api/view", s.handleViewMode)
	mux.HandleFunc("POST /api/role/toggle", s.handleToggleRole)
	mux.HandleFunc("GET /api/topics/{id}", s.handleTopic)
	mux.HandleFunc("GET /api/topics/{id}/insight", s.handleInsight)

	mux.HandleFunc("POST /api/quiz", s.handleStartQuiz)
	mux.HandleFunc("GET /api/quiz", s.handleGetQuiz)
	mux.HandleFunc("DELETE /api/quiz", s.handleCancelQuiz)
	mux.HandleFunc("POST /api/quiz/answer", s.handleAnswer)
	mux.HandleFunc("POST /api/quiz/advance", s.handleAdvance)

	mux.HandleFunc("POST /api/roster/import", s.handleRosterImport)
	mux.HandleFunc("GET /api/roster/export", s.handleRosterExport)

	mux.HandleFunc("POST /api/dashboard/snapshots", s.handleDashboardUpload)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("DELETE /api/dashboard", s.handleDashboardReset)

	mux.HandleFunc("GET /ws/canvas", s.handleCanvas)

	var h http.Handler = mux
	h = recoverMiddleware(h)
	h = accessLogMiddleware(h)
	h = requestIDMiddleware(h)
	return h
}

func (s *server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for _, c := range s.checks {
		if err := c.HealthCheck(ctx); err != nil {
			failed[c.Name()] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"checks": failed,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *server) handleCanvas(w http.ResponseWriter, r *http.Request) {
	if s.canvas == nil {
		writeError(w, http.StatusServiceUnavailable, "canvas stream disabled")
		return
	}
	s.canvas.ServeHTTP(w, r)
}
