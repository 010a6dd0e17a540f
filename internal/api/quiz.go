package api

import (
	"errors"
	"net/http"

	"github.com/p-n-ai/dia-canvas/internal/agent"
)

// writeEngineError maps engine failures to HTTP codes. Anything not
// recognised is a content provider failure.
func writeEngineError(w http.ResponseWriter, err error, status string) {
	switch {
	case errors.Is(err, agent.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), status)
	case errors.Is(err, agent.ErrIdentityRequired):
		writeError(w, http.StatusPreconditionRequired, err.Error(), status)
	case errors.Is(err, agent.ErrSessionActive):
		writeError(w, http.StatusConflict, err.Error(), status)
	case errors.Is(err, agent.ErrNoActiveSession):
		writeError(w, http.StatusNotFound, err.Error(), status)
	default:
		writeError(w, http.StatusBadGateway, err.Error(), status)
	}
}

func (s *server) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	var req agent.StartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	view, err := s.engine.StartQuiz(r.Context(), req)
	if err != nil {
		writeEngineError(w, err, s.engine.Status())
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *server) handleGetQuiz(w http.ResponseWriter, _ *http.Request) {
	view, ok := s.engine.Session()
	if !ok {
		writeEngineError(w, agent.ErrNoActiveSession, "")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *server) handleCancelQuiz(w http.ResponseWriter, r *http.Request) {
	if !s.engine.Cancel(r.Context()) {
		writeEngineError(w, agent.ErrNoActiveSession, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type answerRequest struct {
	Answer string `json:"answer"`
	Index  int    `json:"index"`
}

func (s *server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	view, ok := s.engine.Submit(r.Context(), req.Answer, req.Index)
	if !ok {
		writeError(w, http.StatusConflict, "answer not accepted in the current state")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	view, ok := s.engine.Advance(r.Context())
	if !ok {
		writeError(w, http.StatusConflict, "cannot advance in the current state")
		return
	}
	writeJSON(w, http.StatusOK, view)
}
