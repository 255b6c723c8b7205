package stats

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vkovalov/workbot/pkg/logging"
)

// Handler handles HTTP requests for conversation statistics
type Handler struct {
	aggregator *Aggregator
	logger     *logging.Logger
}

// NewHandler creates a new stats handler
func NewHandler(aggregator *Aggregator, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		aggregator: aggregator,
		logger:     logger,
	}
}

// GetConversationStats handles GET /v1/conversations/{conversationID}/stats
func (h *Handler) GetConversationStats(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		http.Error(w, "missing conversation id", http.StatusBadRequest)
		return
	}

	snap, err := h.aggregator.Snapshot(conversationID)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "no stats for conversation", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to snapshot stats", "conversation_id", conversationID, "error", err)
		http.Error(w, "failed to read stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// ResetConversationStats handles DELETE /v1/conversations/{conversationID}/stats
func (h *Handler) ResetConversationStats(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		http.Error(w, "missing conversation id", http.StatusBadRequest)
		return
	}

	h.aggregator.Reset(r.Context(), conversationID)
	h.logger.Info("conversation stats reset", "conversation_id", conversationID)
	w.WriteHeader(http.StatusNoContent)
}

// GetSummary handles GET /v1/stats/summary
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.aggregator.Summary())
}

// ResetDaily handles POST /v1/stats/reset-daily, invoked by the collaborator's
// end-of-day scheduler.
func (h *Handler) ResetDaily(w http.ResponseWriter, r *http.Request) {
	h.aggregator.ResetDaily(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
