package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/rowanvale/bridgewell/internal/handler"
	"github.com/rowanvale/bridgewell/internal/store"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "bw_session"

// RequireSession validates the session cookie and puts the account id in the
// request context. API clients get a JSON 401, never a redirect.
func RequireSession(sessions *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessions.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			ctx := handler.WithAccountID(r.Context(), sess.AccountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
