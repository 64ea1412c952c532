package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

type userIDKey struct{}

// BearerAuthMiddleware rejects requests whose Authorization header does not
// carry token. An empty token rejects everything. The caller's X-User-ID
// header is stored in the request context for UserIDFromContext.
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			got, ok := strings.CutPrefix(header, "Bearer ")
			if token == "" || !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			ctx := r.Context()
			if userID := strings.TrimSpace(r.Header.Get("X-User-ID")); userID != "" {
				ctx = context.WithValue(ctx, userIDKey{}, userID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the caller id stored by BearerAuthMiddleware.
func UserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value(userIDKey{}).(string); ok {
		return userID
	}
	return ""
}
