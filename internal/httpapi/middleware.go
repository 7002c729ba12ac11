package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type contextKey struct{ name string }

var (
	staffIDKey   = contextKey{"staff_id"}
	requestIDKey = contextKey{"request_id"}
)

// StaffAuthMiddleware resolves the acting staff member from the
// X-Staff-ID header. Identity is an explicit parameter flowing into the
// handlers, never ambient global state; requests without it are
// rejected.
func StaffAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		staffID := r.Header.Get("X-Staff-ID")
		if staffID == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing X-Staff-ID header")
			return
		}

		ctx := context.WithValue(r.Context(), staffIDKey, staffID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func staffIDFromContext(ctx context.Context) string {
	if staffID, ok := ctx.Value(staffIDKey).(string); ok {
		return staffID
	}
	return ""
}
