package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Diyadey08/Mordex/internal/domain"
)

// HistoryHandler serves the persisted estimate history.
type HistoryHandler struct {
	store  domain.EstimateStore
	logger *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(store domain.EstimateStore, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		store:  store,
		logger: logHandler(logger, "history"),
	}
}

// listEstimatesResponse wraps the recent-estimates response.
type listEstimatesResponse struct {
	Estimates []domain.Estimate `json:"estimates"`
}

// ListRecent returns the most recent estimates, newest first.
// GET /api/estimates/recent?limit=20
func (h *HistoryHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := limitParam(r, 20, 200)

	ests, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list estimates failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list estimates")
		return
	}

	if ests == nil {
		ests = []domain.Estimate{}
	}
	writeJSON(w, http.StatusOK, listEstimatesResponse{Estimates: ests})
}

// GetByID returns a single estimate.
// GET /api/estimates/{id}
func (h *HistoryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing estimate id")
		return
	}

	est, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "estimate not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "get estimate failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to get estimate")
		return
	}

	writeJSON(w, http.StatusOK, est)
}
