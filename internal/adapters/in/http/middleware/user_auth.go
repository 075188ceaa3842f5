// internal/adapters/in/http/middleware/user_auth.go
package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"
)

// UserAuthMiddleware verifies a Firebase ID token and stores uid/email
// in context. Requests without a valid bearer token are rejected; use
// IdentityMiddleware for endpoints that also serve guests.
type UserAuthMiddleware struct {
	FirebaseAuth *FirebaseAuthClient
}

func (m *UserAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.FirebaseAuth == nil {
			http.Error(w, "user auth middleware not initialized", http.StatusServiceUnavailable)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "unauthorized: missing bearer token", http.StatusUnauthorized)
			return
		}

		idToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if idToken == "" {
			http.Error(w, "unauthorized: empty bearer token", http.StatusUnauthorized)
			return
		}

		token, err := m.FirebaseAuth.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			log.Printf("[user_auth] token verification failed: %v", err)
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		uid := strings.TrimSpace(token.UID)
		if uid == "" {
			http.Error(w, "invalid uid in token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUID, uid)

		if emailRaw, ok := token.Claims["email"]; ok {
			if e, ok2 := emailRaw.(string); ok2 && strings.TrimSpace(e) != "" {
				ctx = context.WithValue(ctx, ctxKeyEmail, strings.TrimSpace(e))
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
