// internal/adapters/in/http/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"

	carttxdom "plaze/internal/domain/carttx"
)

// FirebaseAuthClient aliases the firebase auth client so DI and router
// code can take *middleware.FirebaseAuthClient.
type FirebaseAuthClient = fbauth.Client

// context keys use a private struct type to avoid collisions (SA1029).
type ctxKey struct{ name string }

var (
	ctxKeyUID          = ctxKey{name: "uid"}
	ctxKeyEmail        = ctxKey{name: "email"}
	ctxKeyGuestSession = ctxKey{name: "guestSession"}
)

// GuestSessionHeader carries the anonymous cart session id. The identity
// middleware echoes it back (minting one when absent) so browsers can
// persist it across requests.
const GuestSessionHeader = "X-Guest-Session"

// CurrentUserUID returns the Firebase UID of the signed-in user.
func CurrentUserUID(r *http.Request) (string, bool) {
	v := r.Context().Value(ctxKeyUID)
	u, ok := v.(string)
	if !ok || strings.TrimSpace(u) == "" {
		return "", false
	}
	return strings.TrimSpace(u), true
}

// CurrentUserUIDAndEmail returns uid/email (email can be empty).
func CurrentUserUIDAndEmail(r *http.Request) (uid string, email string, ok bool) {
	uid, ok = CurrentUserUID(r)
	if !ok {
		return "", "", false
	}

	if v := r.Context().Value(ctxKeyEmail); v != nil {
		if e, okEmail := v.(string); okEmail {
			email = strings.TrimSpace(e)
		}
	}

	return uid, email, true
}

// CurrentGuestSession returns the guest session id, if any.
func CurrentGuestSession(r *http.Request) (string, bool) {
	v := r.Context().Value(ctxKeyGuestSession)
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// CurrentOwner resolves the cart owner for the request. A signed-in user
// always wins over a guest session.
func CurrentOwner(r *http.Request) (carttxdom.Owner, bool) {
	if uid, ok := CurrentUserUID(r); ok {
		return carttxdom.UserOwner(uid), true
	}
	if sid, ok := CurrentGuestSession(r); ok {
		return carttxdom.GuestOwner(sid), true
	}
	return carttxdom.Owner{}, false
}
