package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rowanvale/bridgewell/internal/course"
	"github.com/rowanvale/bridgewell/internal/swap"
)

type SwapHandler struct {
	svc    *swap.Service
	logger *slog.Logger
}

func NewSwapHandler(svc *swap.Service, logger *slog.Logger) *SwapHandler {
	return &SwapHandler{svc: svc, logger: logger}
}

// SwapClass reassigns the caller's purchase to the other single course.
// Ownership comes from the session, never the payload.
func (h *SwapHandler) SwapClass(w http.ResponseWriter, r *http.Request) {
	accountID := AccountIDFromContext(r.Context())
	if accountID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		FromClass string `json:"fromClass"`
		ToClass   string `json:"toClass"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	from, err := course.ParseSingle(req.FromClass)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid fromClass")
		return
	}
	to, err := course.ParseSingle(req.ToClass)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid toClass")
		return
	}

	purchase, err := h.svc.Swap(accountID, from, to)
	if err != nil {
		if swap.IsEligibilityError(err) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("swap failed", "error", err, "account_id", accountID)
		respondError(w, http.StatusInternalServerError, "swap failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"newClassType": string(purchase.CourseType),
	})
}
