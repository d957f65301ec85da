package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	stripe "github.com/stripe/stripe-go/v82"

	"github.com/rowanvale/bridgewell/internal/course"
	billingstripe "github.com/rowanvale/bridgewell/internal/stripe"
)

func newWebhookEnv(t *testing.T) (*testEnv, *WebhookHandler) {
	t.Helper()
	e := newTestEnv(t)
	sc := billingstripe.NewClient(billingstripe.Config{WebhookSecret: "whsec_test"})
	h := NewWebhookHandler(sc, e.identity, e.purchases, e.profiles, nil, e.logger)
	return e, h
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	_, h := newWebhookEnv(t)

	req := httptest.NewRequest("POST", "/api/webhook", strings.NewReader(`{"type":"checkout.session.completed"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=bogus")
	rec := httptest.NewRecorder()
	h.HandleStripeWebhook(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for a bad signature", rec.Code)
	}
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	_, h := newWebhookEnv(t)

	req := httptest.NewRequest("POST", "/api/webhook", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.HandleStripeWebhook(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 without a signature header", rec.Code)
	}
}

func checkoutSession(email, name, courseType string) *stripe.CheckoutSession {
	return &stripe.CheckoutSession{
		ID:          "cs_test_1",
		AmountTotal: 5999,
		Customer:    &stripe.Customer{ID: "cus_test_1"},
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{
			Email: email,
			Name:  name,
		},
		Metadata: map[string]string{"course_type": courseType},
	}
}

func TestProvisionNewAccount(t *testing.T) {
	e, h := newWebhookEnv(t)

	if err := h.provisionPurchase(checkoutSession("buyer@example.com", "Buyer Name", "parenting")); err != nil {
		t.Fatalf("provision: %v", err)
	}

	account, err := e.identity.GetByEmail("buyer@example.com")
	if err != nil || account == nil {
		t.Fatalf("account not created: %v", err)
	}
	if account.ConfirmedAt == nil {
		t.Error("provisioned account should be pre-confirmed")
	}

	profile, _ := e.profiles.GetByAccountID(account.ID)
	if profile == nil || profile.LegalName == nil || *profile.LegalName != "Buyer Name" {
		t.Errorf("profile = %v, want seeded with the checkout name", profile)
	}

	purchases, _ := e.purchases.ListByAccount(account.ID)
	if len(purchases) != 1 {
		t.Fatalf("len(purchases) = %d, want 1", len(purchases))
	}
	p := purchases[0]
	if p.CourseType != course.Parenting {
		t.Errorf("course_type = %q, want parenting from metadata", p.CourseType)
	}
	if p.AmountPaid != 5999 {
		t.Errorf("amount_paid = %d, want 5999", p.AmountPaid)
	}
	if p.StripeCustomerID == nil || *p.StripeCustomerID != "cus_test_1" {
		t.Errorf("stripe_customer_id = %v", p.StripeCustomerID)
	}
}

func TestProvisionExistingAccountAddsPurchase(t *testing.T) {
	e, h := newWebhookEnv(t)

	if err := h.provisionPurchase(checkoutSession("buyer@example.com", "Buyer Name", "coparenting")); err != nil {
		t.Fatalf("first provision: %v", err)
	}
	if err := h.provisionPurchase(checkoutSession("buyer@example.com", "Buyer Name", "coparenting")); err != nil {
		t.Fatalf("second provision: %v", err)
	}

	accounts, _ := e.identity.ListAll()
	if len(accounts) != 1 {
		t.Fatalf("len(accounts) = %d, want 1", len(accounts))
	}
	purchases, _ := e.purchases.ListByAccount(accounts[0].ID)
	if len(purchases) != 2 {
		t.Errorf("len(purchases) = %d, want 2 (each payment is a distinct entitlement)", len(purchases))
	}
}

func TestProvisionUnknownCourseTypeDefaults(t *testing.T) {
	e, h := newWebhookEnv(t)

	if err := h.provisionPurchase(checkoutSession("buyer@example.com", "", "basket-weaving")); err != nil {
		t.Fatalf("provision: %v", err)
	}

	account, _ := e.identity.GetByEmail("buyer@example.com")
	purchases, _ := e.purchases.ListByAccount(account.ID)
	if len(purchases) != 1 || purchases[0].CourseType != course.Coparenting {
		t.Errorf("purchases = %v, want one coparenting purchase by default", purchases)
	}
}

func TestProvisionMissingEmailIsIgnored(t *testing.T) {
	e, h := newWebhookEnv(t)

	sess := checkoutSession("", "", "coparenting")
	if err := h.provisionPurchase(sess); err != nil {
		t.Fatalf("provision without email should not error: %v", err)
	}
	accounts, _ := e.identity.ListAll()
	if len(accounts) != 0 {
		t.Errorf("len(accounts) = %d, want 0", len(accounts))
	}
}
