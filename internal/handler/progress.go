package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rowanvale/bridgewell/internal/course"
	"github.com/rowanvale/bridgewell/internal/store"
)

type ProgressHandler struct {
	purchases *store.PurchaseStore
	progress  *store.ProgressStore
	logger    *slog.Logger
}

func NewProgressHandler(ps *store.PurchaseStore, cps *store.ProgressStore, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{purchases: ps, progress: cps, logger: logger}
}

// resolveCourse validates the path course type and the caller's entitlement.
func (h *ProgressHandler) resolveCourse(w http.ResponseWriter, r *http.Request) (string, course.Type, bool) {
	accountID := AccountIDFromContext(r.Context())
	if accountID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return "", "", false
	}

	t, err := course.ParseSingle(r.PathValue("courseType"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid course type")
		return "", "", false
	}

	entitled, err := h.purchases.HasActiveEntitlement(accountID, t)
	if err != nil {
		h.logger.Error("entitlement check", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return "", "", false
	}
	if !entitled {
		respondError(w, http.StatusForbidden, "no active purchase for this course")
		return "", "", false
	}

	return accountID, t, true
}

// Get returns the caller's study state for the course, creating the row on
// first access.
func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID, t, ok := h.resolveCourse(w, r)
	if !ok {
		return
	}

	cp, err := h.progress.GetByAccountAndType(accountID, t)
	if err != nil {
		h.logger.Error("get progress", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if cp == nil {
		cp, err = h.progress.Create(accountID, t)
		if err != nil {
			h.logger.Error("create progress", "error", err)
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	respondJSON(w, http.StatusOK, cp)
}

// CompleteLesson marks a lesson done. Completing an already-completed lesson
// is a no-op, not an error.
func (h *ProgressHandler) CompleteLesson(w http.ResponseWriter, r *http.Request) {
	accountID, t, ok := h.resolveCourse(w, r)
	if !ok {
		return
	}

	var req struct {
		Lesson int `json:"lesson"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Lesson < 1 || req.Lesson > course.LessonCount {
		respondError(w, http.StatusBadRequest, "lesson out of range")
		return
	}

	cp, err := h.progress.CompleteLesson(accountID, t, req.Lesson)
	if err != nil {
		h.logger.Error("complete lesson", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, cp)
}
