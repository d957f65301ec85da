package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rowanvale/bridgewell/internal/course"
	"github.com/rowanvale/bridgewell/internal/store"
)

func verifyRequest(h *VerifyHandler, code string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/api/verify/"+code, nil)
	req.SetPathValue("code", code)
	rec := httptest.NewRecorder()
	h.Verify(rec, req)
	return rec
}

func TestVerifyFound(t *testing.T) {
	e := newTestEnv(t)
	h := NewVerifyHandler(e.certificates, e.profiles, e.progress, e.purchases)
	accountID := e.createAccount(t, "alice@example.com")
	e.profiles.Upsert(accountID, store.ProfileFields{
		LegalName:   "Alice Example",
		CaseNumber:  "2026-FC-0042",
		CourtState:  "TX",
		CourtCounty: "Travis",
	})

	cert, err := e.certificates.Create(accountID, course.Coparenting, "Alice Example")
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}

	rec := verifyRequest(h, cert.VerificationCode)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Found       bool `json:"found"`
		Certificate struct {
			CertificateNumber string `json:"certificateNumber"`
			ParticipantName   string `json:"participantName"`
			CourseType        string `json:"courseType"`
			CaseNumber        string `json:"caseNumber"`
			CourtState        string `json:"courtState"`
		} `json:"certificate"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Found {
		t.Fatal("found = false, want true")
	}
	if resp.Certificate.CertificateNumber != cert.CertificateNumber {
		t.Errorf("certificateNumber = %q, want %q", resp.Certificate.CertificateNumber, cert.CertificateNumber)
	}
	if resp.Certificate.ParticipantName != "Alice Example" {
		t.Errorf("participantName = %q", resp.Certificate.ParticipantName)
	}
	if resp.Certificate.CaseNumber != "2026-FC-0042" || resp.Certificate.CourtState != "TX" {
		t.Errorf("case metadata = %q/%q", resp.Certificate.CaseNumber, resp.Certificate.CourtState)
	}
}

func TestVerifyCaseInsensitive(t *testing.T) {
	e := newTestEnv(t)
	h := NewVerifyHandler(e.certificates, e.profiles, e.progress, e.purchases)
	accountID := e.createAccount(t, "alice@example.com")

	cert, err := e.certificates.Create(accountID, course.Parenting, "Alice")
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}

	for _, code := range []string{cert.VerificationCode, strings.ToLower(cert.VerificationCode)} {
		rec := verifyRequest(h, code)
		if rec.Code != http.StatusOK {
			t.Errorf("verify(%q) status = %d, want 200", code, rec.Code)
		}
	}
}

func TestVerifyNotFound(t *testing.T) {
	e := newTestEnv(t)
	h := NewVerifyHandler(e.certificates, e.profiles, e.progress, e.purchases)

	rec := verifyRequest(h, "DEADBEEF00")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var resp map[string]bool
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["found"] {
		t.Error("found = true, want false")
	}
}

func TestVerifyNeverLeaksContactData(t *testing.T) {
	e := newTestEnv(t)
	h := NewVerifyHandler(e.certificates, e.profiles, e.progress, e.purchases)
	accountID := e.createAccount(t, "alice@example.com")
	e.profiles.Upsert(accountID, store.ProfileFields{
		LegalName:     "Alice Example",
		Phone:         "555-0100",
		AttorneyEmail: "lawyer@example.com",
	})

	cert, _ := e.certificates.Create(accountID, course.Coparenting, "Alice Example")
	rec := verifyRequest(h, cert.VerificationCode)

	body := rec.Body.String()
	for _, secret := range []string{"alice@example.com", "555-0100", "lawyer@example.com"} {
		if strings.Contains(body, secret) {
			t.Errorf("public verification payload leaks %q", secret)
		}
	}
}
