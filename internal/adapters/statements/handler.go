package statements

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Handler provides HTTP access to statement export scheduling and status.
type Handler struct {
	Scheduler Scheduler
}

// NewHandler constructs a statements HTTP handler.
func NewHandler(scheduler Scheduler) *Handler {
	return &Handler{Scheduler: scheduler}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Scheduler == nil {
		writeError(w, http.StatusInternalServerError, "export scheduler not configured")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/api/statements/exports":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleCreate(w, r)
	case strings.HasPrefix(path, "/api/statements/exports/"):
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		id := strings.TrimPrefix(path, "/api/statements/exports/")
		if id == "" {
			http.NotFound(w, r)
			return
		}
		record, ok := h.Scheduler.Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, "export not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"export": record})
	default:
		http.NotFound(w, r)
	}
}

type createRequest struct {
	SessionID   int64    `json:"session_id"`
	Formats     []Format `json:"formats"`
	RequestedBy string   `json:"requested_by"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid export request payload")
		return
	}
	record, err := h.Scheduler.Enqueue(r.Context(), Input{
		SessionID:   req.SessionID,
		Formats:     req.Formats,
		RequestedBy: req.RequestedBy,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"export": record})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
