package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

// writeError writes {"error": {"message": ..., "status": ...}}. status is
// the canvas header line, when the failure changed it.
func writeError(w http.ResponseWriter, code int, message string, status ...string) {
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = http.StatusText(code)
	}
	body := map[string]any{"message": msg}
	if len(status) > 0 && status[0] != "" {
		body["status"] = status[0]
	}
	writeJSON(w, code, map[string]any{"error": body})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
