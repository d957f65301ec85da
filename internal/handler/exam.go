package handler

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"

	"github.com/rowanvale/bridgewell/internal/certificate"
	"github.com/rowanvale/bridgewell/internal/course"
	"github.com/rowanvale/bridgewell/internal/model"
	"github.com/rowanvale/bridgewell/internal/store"
)

// passingScore is the minimum percentage to pass the final exam.
const passingScore = 80

type ExamHandler struct {
	purchases   *store.PurchaseStore
	progress    *store.ProgressStore
	exams       *store.ExamStore
	certificate *certificate.Service
	logger      *slog.Logger
}

func NewExamHandler(ps *store.PurchaseStore, cps *store.ProgressStore, es *store.ExamStore, cs *certificate.Service, logger *slog.Logger) *ExamHandler {
	return &ExamHandler{
		purchases:   ps,
		progress:    cps,
		exams:       es,
		certificate: cs,
		logger:      logger,
	}
}

// Submit records an exam attempt for the caller's purchase and, on a pass,
// issues the certificate. Attempts are unlimited; each is a new row scoped to
// the purchase so a later class swap invalidates them together.
func (h *ExamHandler) Submit(w http.ResponseWriter, r *http.Request) {
	accountID := AccountIDFromContext(r.Context())
	if accountID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		CourseType string `json:"courseType"`
		Correct    int    `json:"correct"`
		Total      int    `json:"total"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}

	t, err := course.ParseSingle(req.CourseType)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid course type")
		return
	}
	if req.Total <= 0 || req.Correct < 0 || req.Correct > req.Total {
		respondError(w, http.StatusBadRequest, "invalid score")
		return
	}

	purchase, err := h.entitlingPurchase(accountID, t)
	if err != nil {
		h.logger.Error("load purchase for exam", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if purchase == nil {
		respondError(w, http.StatusForbidden, "no active purchase for this course")
		return
	}

	cp, err := h.progress.GetByAccountAndType(accountID, t)
	if err != nil {
		h.logger.Error("load progress for exam", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if cp == nil || cp.CompletedAt == nil {
		respondError(w, http.StatusBadRequest, "course not yet completed")
		return
	}

	score := int(math.Round(100 * float64(req.Correct) / float64(req.Total)))
	passed := score >= passingScore

	attempt, err := h.exams.Create(accountID, purchase.ID, score, passed)
	if err != nil {
		h.logger.Error("record exam attempt", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := map[string]any{
		"passed":  passed,
		"score":   score,
		"attempt": attempt.ID,
	}

	if passed {
		cert, err := h.certificate.Issue(r.Context(), accountID, t)
		if err != nil {
			// The passing attempt is recorded; surface the issuance failure.
			h.logger.Error("issue certificate", "error", err, "account_id", accountID)
			respondError(w, http.StatusInternalServerError, "certificate issuance failed")
			return
		}
		resp["certificateNumber"] = cert.CertificateNumber
		resp["verificationCode"] = cert.VerificationCode
	}

	respondJSON(w, http.StatusOK, resp)
}

// entitlingPurchase returns the active purchase covering the course: an exact
// match first, then the bundle.
func (h *ExamHandler) entitlingPurchase(accountID string, t course.Type) (*model.Purchase, error) {
	purchase, err := h.purchases.ActiveByAccountAndType(accountID, t)
	if err != nil || purchase != nil {
		return purchase, err
	}
	return h.purchases.ActiveByAccountAndType(accountID, course.Bundle)
}
