package server

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const ctxUserIDKey = contextKey("userID")

// requireAuth verifies the session token and puts the caller's local user id
// into the request context. Anything wrong with the header or the token is a
// plain 401; no detail leaks about which check failed.
func requireAuth(tokens *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if h == "" || !strings.HasPrefix(h, "Bearer ") {
				respondError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			claims, err := tokens.Verify(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				respondError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userIDFromCtx returns the authenticated user's local id, or 0 when the
// request did not pass through requireAuth.
func userIDFromCtx(r *http.Request) int64 {
	v := r.Context().Value(ctxUserIDKey)
	if id, ok := v.(int64); ok {
		return id
	}
	return 0
}
