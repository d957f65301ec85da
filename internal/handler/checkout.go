package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rowanvale/bridgewell/internal/course"
	billingstripe "github.com/rowanvale/bridgewell/internal/stripe"
)

type CheckoutHandler struct {
	stripeClient *billingstripe.Client
}

func NewCheckoutHandler(sc *billingstripe.Client) *CheckoutHandler {
	return &CheckoutHandler{stripeClient: sc}
}

// CreateCheckout creates a Stripe checkout session and returns its URL. The
// buyer does not need an account yet; the webhook provisions one on payment.
func (h *CheckoutHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PriceID    string `json:"priceId"`
		CourseType string `json:"courseType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.PriceID == "" {
		respondError(w, http.StatusBadRequest, "priceId is required")
		return
	}

	courseType := course.Coparenting
	if req.CourseType != "" {
		t, err := course.Parse(req.CourseType)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid course type")
			return
		}
		courseType = t
	}

	url, err := h.stripeClient.CreateCheckoutSession(req.PriceID, courseType)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create checkout session")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}
