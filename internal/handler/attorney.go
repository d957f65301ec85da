package handler

import (
	"log/slog"
	"net/http"

	"github.com/rowanvale/bridgewell/internal/store"
)

type AttorneyHandler struct {
	attorneys *store.AttorneyStore
	logger    *slog.Logger
}

func NewAttorneyHandler(as *store.AttorneyStore, logger *slog.Logger) *AttorneyHandler {
	return &AttorneyHandler{attorneys: as, logger: logger}
}

// Search powers the attorney autocomplete on the profile form.
func (h *AttorneyHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if len(query) < 2 {
		respondJSON(w, http.StatusOK, map[string]any{"attorneys": []any{}})
		return
	}

	attorneys, err := h.attorneys.Search(query, 10)
	if err != nil {
		h.logger.Error("search attorneys", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"attorneys": attorneys})
}
