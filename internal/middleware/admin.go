package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rowanvale/bridgewell/internal/handler"
)

// AdminClaims is the token payload for support-staff bearer tokens.
type AdminClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ParseAdminToken validates a signed admin token and returns its claims.
func ParseAdminToken(secret, tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// RequireAdmin authorizes requests carrying a bearer token whose email claim
// is on the injected allowlist. The allowlist is configuration, not a global.
func RequireAdmin(secret string, allowedEmails []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedEmails))
	for _, e := range allowedEmails {
		allowed[strings.ToLower(strings.TrimSpace(e))] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				unauthorized(w)
				return
			}

			claims, err := ParseAdminToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				unauthorized(w)
				return
			}

			email := strings.ToLower(claims.Email)
			if !allowed[email] {
				unauthorized(w)
				return
			}

			ctx := handler.WithAdminEmail(r.Context(), email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
