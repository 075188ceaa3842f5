// internal/adapters/in/http/middleware/identity.go
package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// IdentityMiddleware resolves the caller to either a signed-in user or a
// guest session, in that order.
//
//   - With a valid "Authorization: Bearer <ID_TOKEN>" header the Firebase
//     uid/email go into context.
//   - Without one, the X-Guest-Session header is used; when it is absent
//     a fresh session id is minted. The id is always echoed back so the
//     client can persist it.
//
// A bearer token that is present but fails verification is a hard 401:
// silently downgrading a signed-in user to a guest would split their cart.
type IdentityMiddleware struct {
	FirebaseAuth *FirebaseAuthClient
}

func (m *IdentityMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")

		if strings.HasPrefix(authHeader, "Bearer ") {
			if m.FirebaseAuth == nil {
				http.Error(w, "identity middleware not initialized", http.StatusServiceUnavailable)
				return
			}

			idToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			token, err := m.FirebaseAuth.VerifyIDToken(r.Context(), idToken)
			if err != nil {
				log.Printf("[identity] token verification failed: %v", err)
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
			return
		}

		sessionID := strings.TrimSpace(r.Header.Get(GuestSessionHeader))
		if sessionID == "" {
			sessionID = uuid.NewString()
			log.Printf("[identity] minted guest session id=%s", sessionID)
		}

		w.Header().Set(GuestSessionHeader, sessionID)

		ctx := context.WithValue(r.Context(), ctxKeyGuestSession, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
