package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rowanvale/bridgewell/internal/store"
)

type ProfileHandler struct {
	profiles *store.ProfileStore
	logger   *slog.Logger
}

func NewProfileHandler(ps *store.ProfileStore, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: ps, logger: logger}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID := AccountIDFromContext(r.Context())
	if accountID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.profiles.GetByAccountID(accountID)
	if err != nil {
		h.logger.Error("get profile", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if profile == nil {
		respondJSON(w, http.StatusOK, map[string]any{"profile": nil})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"profile": profile})
}

// Update writes the user-editable profile fields, creating the row if this is
// the first edit.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	accountID := AccountIDFromContext(r.Context())
	if accountID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		LegalName     string `json:"legalName"`
		CourtState    string `json:"courtState"`
		CourtCounty   string `json:"courtCounty"`
		CaseNumber    string `json:"caseNumber"`
		AttorneyName  string `json:"attorneyName"`
		AttorneyEmail string `json:"attorneyEmail"`
		Phone         string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	profile, err := h.profiles.Upsert(accountID, store.ProfileFields{
		LegalName:     req.LegalName,
		CourtState:    req.CourtState,
		CourtCounty:   req.CourtCounty,
		CaseNumber:    req.CaseNumber,
		AttorneyName:  req.AttorneyName,
		AttorneyEmail: req.AttorneyEmail,
		Phone:         req.Phone,
	})
	if err != nil {
		h.logger.Error("update profile", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"profile": profile})
}
