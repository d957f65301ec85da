package identity

import (
	"strings"
	"testing"

	"github.com/rowanvale/bridgewell/internal/database"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestCreateAndAuthenticate(t *testing.T) {
	s := setupTestStore(t)

	created, err := s.Create("Alice@Example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if created.Email != "alice@example.com" {
		t.Errorf("email = %q, want lowercased", created.Email)
	}
	if created.ConfirmedAt == nil {
		t.Error("webhook-provisioned accounts should be pre-confirmed")
	}

	a, err := s.Authenticate("alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if a == nil || a.ID != created.ID {
		t.Fatalf("authenticate = %v, want account %s", a, created.ID)
	}

	a, err = s.Authenticate("alice@example.com", "wrong-password")
	if err != nil {
		t.Fatalf("authenticate wrong password: %v", err)
	}
	if a != nil {
		t.Error("wrong password should not authenticate")
	}

	a, err = s.Authenticate("nobody@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("authenticate unknown email: %v", err)
	}
	if a != nil {
		t.Error("unknown email should not authenticate")
	}
}

func TestDuplicateEmail(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.Create("alice@example.com", "pw-one-pw-one"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := s.Create("ALICE@example.com", "pw-two-pw-two")
	if err == nil {
		t.Fatal("duplicate email should fail")
	}
	if !IsDuplicateEmail(err) {
		t.Errorf("IsDuplicateEmail(%v) = false, want true", err)
	}
	if IsDuplicateEmail(nil) {
		t.Error("IsDuplicateEmail(nil) should be false")
	}
}

func TestGetByEmailCaseInsensitive(t *testing.T) {
	s := setupTestStore(t)

	created, _ := s.Create("alice@example.com", "hunter2hunter2")
	a, err := s.GetByEmail("ALICE@EXAMPLE.COM")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if a == nil || a.ID != created.ID {
		t.Fatalf("get by email = %v, want account %s", a, created.ID)
	}
}

func TestTouchLogin(t *testing.T) {
	s := setupTestStore(t)

	created, _ := s.Create("alice@example.com", "hunter2hunter2")
	if created.LastLoginAt != nil {
		t.Fatal("new account should have no login time")
	}
	if err := s.TouchLogin(created.ID); err != nil {
		t.Fatalf("touch login: %v", err)
	}
	a, _ := s.GetByID(created.ID)
	if a.LastLoginAt == nil {
		t.Error("last_login_at should be set after TouchLogin")
	}
}

func TestGeneratePassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		pw, err := GeneratePassword()
		if err != nil {
			t.Fatalf("generate password: %v", err)
		}
		if len(pw) != 12 {
			t.Fatalf("password length = %d, want 12", len(pw))
		}
		for _, c := range pw {
			if !strings.ContainsRune(passwordAlphabet, c) {
				t.Fatalf("password %q contains %q outside the alphabet", pw, c)
			}
		}
		if seen[pw] {
			t.Fatalf("duplicate password generated: %q", pw)
		}
		seen[pw] = true
	}
}
