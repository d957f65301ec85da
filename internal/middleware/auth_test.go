package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/rowanvale/bridgewell/internal/database"
	"github.com/rowanvale/bridgewell/internal/handler"
	"github.com/rowanvale/bridgewell/internal/store"
)

func setupSessionTest(t *testing.T) (*store.SessionStore, string) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	accountID := uuid.NewString()
	if _, err := db.Exec(`INSERT INTO accounts (id, email, password_hash) VALUES (?, 'alice@example.com', 'x')`, accountID); err != nil {
		t.Fatalf("insert account: %v", err)
	}
	return store.NewSessionStore(db), accountID
}

func TestRequireSessionValidCookie(t *testing.T) {
	sessions, accountID := setupSessionTest(t)
	sess, err := sessions.Create(accountID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var seenAccountID string
	h := RequireSession(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAccountID = handler.AccountIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/profile", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if seenAccountID != accountID {
		t.Errorf("context account id = %q, want %q", seenAccountID, accountID)
	}
}

func TestRequireSessionMissingCookie(t *testing.T) {
	sessions, _ := setupSessionTest(t)

	h := RequireSession(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/api/profile", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json (API clients never get redirects)", ct)
	}
}

func TestSessionCookieNameMatchesHandler(t *testing.T) {
	// The handler package duplicates the constant to avoid an import cycle.
	if SessionCookieName != handler.SessionCookieName {
		t.Errorf("cookie name mismatch: middleware %q, handler %q", SessionCookieName, handler.SessionCookieName)
	}
}

func TestRequireSessionBogusToken(t *testing.T) {
	sessions, _ := setupSessionTest(t)

	h := RequireSession(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/api/profile", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "deadbeef"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
