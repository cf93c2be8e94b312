// Package assistant exposes the intent engine over HTTP: one execution
// endpoint consuming producer envelopes and one context endpoint the producer
// uses to ground follow-up requests.
package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"splitcore/internal/core"
)

// Engine is the surface of the core service the handler needs.
type Engine interface {
	Execute(ctx context.Context, env core.Envelope) core.Result
	SessionContext(ctx context.Context, sessionID int64) (core.SessionContext, error)
}

// Handler provides HTTP access to envelope execution and session contexts.
type Handler struct {
	Engine Engine
}

// NewHandler constructs an assistant HTTP handler.
func NewHandler(engine Engine) *Handler {
	return &Handler{Engine: engine}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Engine == nil {
		writeError(w, http.StatusInternalServerError, "engine not configured")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/api/ai/execute":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleExecute(w, r)
	case path == "/api/health":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	case strings.HasPrefix(path, "/api/sessions/") && strings.HasSuffix(path, "/context"):
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/api/sessions/"), "/context")
		h.handleContext(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}
	env, err := core.ParseEnvelope(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.Engine.Execute(r.Context(), env)
	status := http.StatusOK
	if !result.OK {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, result)
}

func (h *Handler) handleContext(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	sc, err := h.Engine.SessionContext(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
