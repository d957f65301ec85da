package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	stripe "github.com/stripe/stripe-go/v82"

	"github.com/rowanvale/bridgewell/internal/course"
	"github.com/rowanvale/bridgewell/internal/email"
	"github.com/rowanvale/bridgewell/internal/identity"
	"github.com/rowanvale/bridgewell/internal/store"
	billingstripe "github.com/rowanvale/bridgewell/internal/stripe"
)

type WebhookHandler struct {
	stripeClient *billingstripe.Client
	identity     *identity.Store
	purchases    *store.PurchaseStore
	profiles     *store.ProfileStore
	emailClient  *email.Client
	logger       *slog.Logger
}

func NewWebhookHandler(
	sc *billingstripe.Client,
	ids *identity.Store,
	ps *store.PurchaseStore,
	prs *store.ProfileStore,
	ec *email.Client,
	logger *slog.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		stripeClient: sc,
		identity:     ids,
		purchases:    ps,
		profiles:     prs,
		emailClient:  ec,
		logger:       logger,
	}
}

// HandleStripeWebhook provisions a purchase on a completed checkout. A bad
// signature is fatal (400, the gateway retries delivery); a failed account
// creation is fatal (500); email sends are best-effort.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		respondError(w, http.StatusBadRequest, "read body")
		return
	}

	event, err := h.stripeClient.ConstructWebhookEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	if event.Type == "checkout.session.completed" {
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			h.logger.Error("unmarshal checkout session", "error", err)
			respondError(w, http.StatusBadRequest, "malformed event")
			return
		}
		if err := h.provisionPurchase(&sess); err != nil {
			h.logger.Error("provision purchase", "error", err)
			respondError(w, http.StatusInternalServerError, "provisioning failed")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// provisionPurchase creates or looks up the account for the checkout email
// and inserts a purchase row. Duplicate completed events for the same email
// insert additional purchase rows; each payment is a distinct entitlement.
func (h *WebhookHandler) provisionPurchase(sess *stripe.CheckoutSession) error {
	if sess.CustomerDetails == nil || sess.CustomerDetails.Email == "" {
		h.logger.Error("checkout session missing customer email", "session", sess.ID)
		return nil
	}
	addr := sess.CustomerDetails.Email

	courseType := course.Coparenting
	if tag, ok := sess.Metadata["course_type"]; ok {
		if t, err := course.Parse(tag); err == nil {
			courseType = t
		} else {
			h.logger.Warn("unknown course_type in metadata, defaulting", "value", tag)
		}
	}

	account, err := h.identity.GetByEmail(addr)
	if err != nil {
		return err
	}

	var oneTimePassword string
	if account == nil {
		password, err := identity.GeneratePassword()
		if err != nil {
			return err
		}
		account, err = h.identity.Create(addr, password)
		if err != nil {
			if identity.IsDuplicateEmail(err) {
				// Lost a race with a concurrent event for the same email.
				account, err = h.identity.GetByEmail(addr)
				if err != nil || account == nil {
					return err
				}
			} else {
				return err
			}
		} else {
			oneTimePassword = password
			h.seedProfile(account.ID, sess.CustomerDetails.Name)
		}
	}

	customerID := ""
	if sess.Customer != nil {
		customerID = sess.Customer.ID
	}
	purchase, err := h.purchases.Create(account.ID, courseType, sess.AmountTotal, customerID, sess.ID)
	if err != nil {
		return err
	}

	h.logger.Info("purchase provisioned",
		"purchase_id", purchase.ID,
		"course_type", string(courseType),
		"new_account", oneTimePassword != "",
	)

	if h.emailClient != nil && h.emailClient.Configured() {
		var sendErr error
		if oneTimePassword != "" {
			sendErr = h.emailClient.SendWelcome(addr, courseType.Label(), oneTimePassword)
		} else {
			sendErr = h.emailClient.SendCourseAdded(addr, courseType.Label())
		}
		if sendErr != nil {
			// Non-fatal: the purchase record stands.
			h.logger.Error("purchase email failed", "error", sendErr, "purchase_id", purchase.ID)
		}
	}

	return nil
}

// seedProfile creates an initial profile row for a freshly provisioned
// account so the participant name from checkout is not lost. Best-effort.
func (h *WebhookHandler) seedProfile(accountID, displayName string) {
	if _, err := h.profiles.Upsert(accountID, store.ProfileFields{LegalName: displayName}); err != nil {
		h.logger.Error("seed profile", "error", err, "account_id", accountID)
	}
}
