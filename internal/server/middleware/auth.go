// Package middleware provides HTTP middleware for the command bridge.
package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// clientKey is the context key for the authenticated client name.
const clientKey ContextKey = "client"

// BearerAuth rejects requests whose Authorization header does not carry
// token as a bearer credential. An empty token disables the check.
func BearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Handle case-insensitive "Bearer" prefix
			parts := strings.Fields(r.Header.Get("Authorization"))
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				unauthorized(w)
				return
			}
			if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(token)) != 1 {
				unauthorized(w)
				return
			}

			client := r.Header.Get("X-Autofill-Client")
			if client == "" {
				client = "bearer"
			}
			ctx := context.WithValue(r.Context(), clientKey, client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="autofill"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// Client returns the client name attached by BearerAuth, or "" when the
// request was not authenticated.
func Client(r *http.Request) string {
	client, _ := r.Context().Value(clientKey).(string)
	return client
}
