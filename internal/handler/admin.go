package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rowanvale/bridgewell/internal/admin"
	"github.com/rowanvale/bridgewell/internal/identity"
	"github.com/rowanvale/bridgewell/internal/model"
	"github.com/rowanvale/bridgewell/internal/store"
)

type AdminHandler struct {
	identity     *identity.Store
	profiles     *store.ProfileStore
	purchases    *store.PurchaseStore
	progress     *store.ProgressStore
	exams        *store.ExamStore
	certificates *store.CertificateStore
	logger       *slog.Logger
}

func NewAdminHandler(
	ids *identity.Store,
	ps *store.ProfileStore,
	pus *store.PurchaseStore,
	cps *store.ProgressStore,
	es *store.ExamStore,
	cs *store.CertificateStore,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		identity:     ids,
		profiles:     ps,
		purchases:    pus,
		progress:     cps,
		exams:        es,
		certificates: cs,
		logger:       logger,
	}
}

// DashboardStats loads the full tables and returns the support rollups.
// Read-only; no pagination by design, the tables are operational scale.
func (h *AdminHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.purchases.ListAll()
	if err != nil {
		h.internalError(w, "list purchases", err)
		return
	}
	certificates, err := h.certificates.ListAll()
	if err != nil {
		h.internalError(w, "list certificates", err)
		return
	}
	profiles, err := h.profiles.ListAll()
	if err != nil {
		h.internalError(w, "list profiles", err)
		return
	}
	attempts, err := h.exams.ListAll()
	if err != nil {
		h.internalError(w, "list exam attempts", err)
		return
	}

	stats := admin.ComputeStats(time.Now().UTC(), purchases, certificates, profiles, attempts)
	respondJSON(w, http.StatusOK, stats)
}

// customerBundle is the combined view returned by the support lookup. The
// orphan flag marks an identity-provider account with no profile row.
type customerBundle struct {
	Account      *model.Account         `json:"account"`
	Profile      *model.Profile         `json:"profile"`
	Orphan       bool                   `json:"orphan"`
	Purchases    []model.Purchase       `json:"purchases"`
	Progress     []model.CourseProgress `json:"progress"`
	ExamAttempts []model.ExamAttempt    `json:"examAttempts"`
	Certificates []model.Certificate    `json:"certificates"`
}

// CustomerLookup finds a customer by email, name, phone, or Stripe customer
// id and returns everything support needs in one response.
func (h *AdminHandler) CustomerLookup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	accountID, err := h.findAccountID(query)
	if err != nil {
		h.internalError(w, "customer lookup", err)
		return
	}
	if accountID == "" {
		respondJSON(w, http.StatusNotFound, map[string]bool{"found": false})
		return
	}

	bundle, err := h.loadBundle(accountID)
	if err != nil {
		h.internalError(w, "load customer bundle", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"found":    true,
		"customer": bundle,
	})
}

// findAccountID resolves the search query to an account id, trying email
// first, then Stripe customer id, then profile name/phone.
func (h *AdminHandler) findAccountID(query string) (string, error) {
	if strings.Contains(query, "@") {
		account, err := h.identity.GetByEmail(query)
		if err != nil {
			return "", err
		}
		if account != nil {
			return account.ID, nil
		}
	}

	if strings.HasPrefix(query, "cus_") {
		purchases, err := h.purchases.ListByStripeCustomerID(query)
		if err != nil {
			return "", err
		}
		if len(purchases) > 0 {
			return purchases[0].AccountID, nil
		}
	}

	profiles, err := h.profiles.Search(query)
	if err != nil {
		return "", err
	}
	if len(profiles) > 0 {
		return profiles[0].AccountID, nil
	}
	return "", nil
}

func (h *AdminHandler) loadBundle(accountID string) (*customerBundle, error) {
	account, err := h.identity.GetByID(accountID)
	if err != nil {
		return nil, err
	}
	profile, err := h.profiles.GetByAccountID(accountID)
	if err != nil {
		return nil, err
	}
	purchases, err := h.purchases.ListByAccount(accountID)
	if err != nil {
		return nil, err
	}
	progress, err := h.progress.ListByAccount(accountID)
	if err != nil {
		return nil, err
	}
	attempts, err := h.exams.ListByAccount(accountID)
	if err != nil {
		return nil, err
	}
	certificates, err := h.certificates.ListByAccount(accountID)
	if err != nil {
		return nil, err
	}

	return &customerBundle{
		Account:      account,
		Profile:      profile,
		Orphan:       account != nil && profile == nil,
		Purchases:    purchases,
		Progress:     progress,
		ExamAttempts: attempts,
		Certificates: certificates,
	}, nil
}

func (h *AdminHandler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, "error", err)
	respondError(w, http.StatusInternalServerError, "internal error")
}
