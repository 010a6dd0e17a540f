package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/p-n-ai/dia-canvas/internal/agent"
	"github.com/p-n-ai/dia-canvas/internal/progress"
)

type stateResponse struct {
	State      progress.State      `json:"state"`
	Status     string              `json:"status"`
	Loading    bool                `json:"loading"`
	Session    *agent.SessionView  `json:"session,omitempty"`
	Pending    *agent.StartRequest `json:"pending,omitempty"`
	Completion *agent.Completion   `json:"completion,omitempty"`
}

func (s *server) handleState(w http.ResponseWriter, _ *http.Request) {
	resp := stateResponse{
		State:   s.engine.Tracker().Snapshot(),
		Status:  s.engine.Status(),
		Loading: s.engine.Loading(),
	}
	if v, ok := s.engine.Session(); ok {
		resp.Session = &v
	}
	if p, ok := s.engine.Pending(); ok {
		resp.Pending = &p
	}
	if c, ok := s.engine.LastCompletion(); ok {
		resp.Completion = &c
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleArena(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ladder": s.engine.Tracker().LadderSnapshot(),
	})
}

type identityRequest struct {
	FullName  string `json:"full_name"`
	ClassName string `json:"class_name"`
}

func (s *server) handleIdentity(w http.ResponseWriter, r *http.Request) {
	var req identityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := s.engine.EstablishIdentity(r.Context(), req.FullName, req.ClassName)
	switch {
	case errors.Is(err, progress.ErrInvalidIdentity):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, progress.ErrIdentityEstablished):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		// The identity is bound; only the resumed quiz failed.
		writeEngineError(w, err, s.engine.Status())
		return
	}

	resp := map[string]any{"profile": s.engine.Tracker().Profile()}
	if view != nil {
		resp["session"] = view
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handlePreferences(w http.ResponseWriter, r *http.Request) {
	prefs := s.engine.Tracker().Profile().Preferences
	if err := decodeJSON(w, r, &prefs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, s.engine.SetPreferences(r.Context(), prefs))
}

func (s *server) handleViewMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ViewMode progress.ViewMode `json:"view_mode"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.engine.SetViewMode(r.Context(), req.ViewMode); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"view_mode": req.ViewMode})
}

func (s *server) handleToggleRole(w http.ResponseWriter, r *http.Request) {
	role := s.engine.ToggleRole(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"role":   role,
		"status": s.engine.Status(),
	})
}

type topicResponse struct {
	Topic   progress.Topic          `json:"topic"`
	Arena   *progress.ArenaStats    `json:"arena,omitempty"`
	History []progress.HistoryEntry `json:"history"`
}

// handleTopic returns one topic with its arena stats and its slice of the
// session log.
func (s *server) handleTopic(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid topic id")
		return
	}
	tracker := s.engine.Tracker()
	topic, ok := tracker.Topic(id)
	if !ok {
		writeError(w, http.StatusNotFound, "topic not found")
		return
	}
	resp := topicResponse{
		Topic:   topic,
		History: progress.HistoryFor(tracker.Snapshot().SessionLog, id),
	}
	if resp.History == nil {
		resp.History = []progress.HistoryEntry{}
	}
	if stats, ok := tracker.Arena(id); ok {
		resp.Arena = &stats
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleInsight(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid topic id")
		return
	}
	topic, ok := s.engine.Tracker().Topic(id)
	if !ok {
		writeError(w, http.StatusNotFound, "topic not found")
		return
	}
	if s.insights == nil {
		writeError(w, http.StatusServiceUnavailable, "insights unavailable")
		return
	}
	insight, err := s.insights.Insight(r.Context(), topic)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, insight)
}
