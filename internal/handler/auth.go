package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rowanvale/bridgewell/internal/identity"
	"github.com/rowanvale/bridgewell/internal/store"
)

// SessionCookieName is duplicated from the middleware package to avoid an
// import cycle; the middleware asserts the two stay equal in its tests.
const SessionCookieName = "bw_session"

type AuthHandler struct {
	identity *identity.Store
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewAuthHandler(ids *identity.Store, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{identity: ids, sessions: ss, logger: logger}
}

// Login exchanges email/password credentials for a session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	account, err := h.identity.Authenticate(req.Email, req.Password)
	if err != nil {
		h.logger.Error("authenticate", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if account == nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	sess, err := h.sessions.Create(account.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.identity.TouchLogin(account.ID); err != nil {
		h.logger.Error("touch login", "error", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60, // 30 days
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, http.StatusOK, map[string]any{"account": account})
}

// Logout destroys the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookieName)
	if err == nil && cookie.Value != "" {
		sess, err := h.sessions.GetByToken(cookie.Value)
		if err == nil && sess != nil {
			h.sessions.Delete(sess.ID)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
