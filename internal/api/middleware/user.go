package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/unipilot/unipilot/internal/api"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// UserIDHeader carries the caller identity set by the upstream gateway.
const UserIDHeader = "X-User-Id"

// RequireUserID rejects requests without a user id and stores it in the
// request context.
func RequireUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			api.Error(w, http.StatusBadRequest, "X-User-Id header is required")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID returns the user id from context.
func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}
