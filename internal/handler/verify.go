package handler

import (
	"net/http"
	"time"

	"github.com/rowanvale/bridgewell/internal/store"
)

type VerifyHandler struct {
	certificates *store.CertificateStore
	profiles     *store.ProfileStore
	progress     *store.ProgressStore
	purchases    *store.PurchaseStore
}

func NewVerifyHandler(cs *store.CertificateStore, ps *store.ProfileStore, cps *store.ProgressStore, pus *store.PurchaseStore) *VerifyHandler {
	return &VerifyHandler{
		certificates: cs,
		profiles:     ps,
		progress:     cps,
		purchases:    pus,
	}
}

// verifiedCertificate is the public verification payload. It deliberately
// carries no contact or financial data; courts and attorneys only need the
// name, case metadata, course, and dates.
type verifiedCertificate struct {
	CertificateNumber string `json:"certificateNumber"`
	ParticipantName   string `json:"participantName"`
	CourseType        string `json:"courseType"`
	CourseLabel       string `json:"courseLabel"`
	CaseNumber        string `json:"caseNumber,omitempty"`
	CourtState        string `json:"courtState,omitempty"`
	CourtCounty       string `json:"courtCounty,omitempty"`
	RegisteredAt      string `json:"registeredAt"`
	CompletedAt       string `json:"completedAt"`
	IssuedAt          string `json:"issuedAt"`
}

// Verify looks up a certificate by its verification code, case-insensitively.
// Public by design: external verification is the whole point of the endpoint.
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if code == "" {
		respondJSON(w, http.StatusNotFound, map[string]bool{"found": false})
		return
	}

	cert, err := h.certificates.GetByCode(code)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if cert == nil {
		respondJSON(w, http.StatusNotFound, map[string]bool{"found": false})
		return
	}

	out := verifiedCertificate{
		CertificateNumber: cert.CertificateNumber,
		ParticipantName:   cert.ParticipantName,
		CourseType:        string(cert.CourseType),
		CourseLabel:       cert.CourseType.Label(),
		RegisteredAt:      cert.IssuedAt.Format(time.RFC3339),
		CompletedAt:       cert.IssuedAt.Format(time.RFC3339),
		IssuedAt:          cert.IssuedAt.Format(time.RFC3339),
	}
	if out.ParticipantName == "" {
		out.ParticipantName = "Not provided"
	}

	// Enrichment lookups are best-effort; the certificate's own fields are
	// the fallbacks.
	if profile, err := h.profiles.GetByAccountID(cert.AccountID); err == nil && profile != nil {
		if profile.LegalName != nil {
			out.ParticipantName = *profile.LegalName
		}
		if profile.CaseNumber != nil {
			out.CaseNumber = *profile.CaseNumber
		}
		if profile.CourtState != nil {
			out.CourtState = *profile.CourtState
		}
		if profile.CourtCounty != nil {
			out.CourtCounty = *profile.CourtCounty
		}
	}

	if cp, err := h.progress.GetByAccountAndType(cert.AccountID, cert.CourseType); err == nil && cp != nil && cp.CompletedAt != nil {
		out.CompletedAt = cp.CompletedAt.Format(time.RFC3339)
	}

	if purchase, err := h.purchases.ActiveByAccountAndType(cert.AccountID, cert.CourseType); err == nil && purchase != nil {
		out.RegisteredAt = purchase.PurchasedAt.Format(time.RFC3339)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"found":       true,
		"certificate": out,
	})
}
