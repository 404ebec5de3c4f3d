// Package identity carries the authenticated user id through request contexts.
// Authentication itself happens upstream; this package only trusts the header
// the authenticating proxy sets.
package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// Header is the request header holding the authenticated user id
const Header = "X-User-ID"

type contextKey string

const userIDContextKey contextKey = "userID"

// WithUserID returns a context carrying userID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext returns the user id stored by Middleware
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok && userID != ""
}

// Middleware rejects requests without a user id header with 401
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(Header))
		if userID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "missing " + Header + " header"})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}
