// internal/platform/di/shared/auth_adapter.go
package shared

import (
	"context"
	"errors"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"
)

// FirebaseAddressResolver adapts Firebase Auth to mail.AddressResolver.
// The receipt mailer only knows user ids; the identity provider owns the
// uid -> email mapping.
type FirebaseAddressResolver struct {
	auth *firebaseauth.Client
}

func NewFirebaseAddressResolver(auth *firebaseauth.Client) *FirebaseAddressResolver {
	return &FirebaseAddressResolver{auth: auth}
}

func (r *FirebaseAddressResolver) EmailByUserID(ctx context.Context, userID string) (string, error) {
	if r == nil || r.auth == nil {
		return "", errors.New("shared.FirebaseAddressResolver: auth client is nil")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return "", errors.New("shared.FirebaseAddressResolver: userID is empty")
	}

	rec, err := r.auth.GetUser(ctx, uid)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(rec.Email), nil
}
