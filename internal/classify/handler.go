package classify

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vkovalov/workbot/pkg/logging"
)

// Handler handles HTTP requests for classification
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new classification handler
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Classify handles POST /v1/classify requests
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Classify(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CheckRequest is the body for POST /v1/check
type CheckRequest struct {
	Text string `json:"text"`
}

// Check handles POST /v1/check requests: classify without touching stats
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Check(r.Context(), req.Text)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Mute handles POST /v1/conversations/{conversationID}/mute
func (h *Handler) Mute(w http.ResponseWriter, r *http.Request) {
	h.setMuted(w, r, true)
}

// Unmute handles POST /v1/conversations/{conversationID}/unmute
func (h *Handler) Unmute(w http.ResponseWriter, r *http.Request) {
	h.setMuted(w, r, false)
}

func (h *Handler) setMuted(w http.ResponseWriter, r *http.Request, muted bool) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		http.Error(w, "missing conversation id", http.StatusBadRequest)
		return
	}

	h.service.SetMuted(conversationID, muted)
	h.logger.Info("tracking toggled", "conversation_id", conversationID, "muted", muted)
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":        "ok",
		"model_version": h.service.Version(),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrTextTooLong):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, ErrTimeout):
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
	default:
		h.logger.Error("classification request failed", "error", err)
		http.Error(w, "classification failed", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
