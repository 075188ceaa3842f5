// internal/adapters/in/http/middleware/identity_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	carttxdom "plaze/internal/domain/carttx"
)

func TestIdentityMiddleware_MintsGuestSession(t *testing.T) {
	mw := &IdentityMiddleware{}

	var owner carttxdom.Owner
	var ok bool
	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, ok = CurrentOwner(r)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mall/me/cart", nil))

	require.True(t, ok)
	assert.Empty(t, owner.UserID)
	assert.NotEmpty(t, owner.GuestSessionID)

	// minted id is echoed back so the client can persist it
	assert.Equal(t, owner.GuestSessionID, rec.Header().Get(GuestSessionHeader))
}

func TestIdentityMiddleware_ReusesPresentedSession(t *testing.T) {
	mw := &IdentityMiddleware{}

	var owner carttxdom.Owner
	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, _ = CurrentOwner(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/mall/me/cart", nil)
	req.Header.Set(GuestSessionHeader, "sess-abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, carttxdom.GuestOwner("sess-abc"), owner)
	assert.Equal(t, "sess-abc", rec.Header().Get(GuestSessionHeader))
}

func TestIdentityMiddleware_BearerWithoutVerifierIs503(t *testing.T) {
	mw := &IdentityMiddleware{} // no FirebaseAuth configured

	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/mall/me/cart", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCurrentOwner_NoIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/mall/me/cart", nil)
	_, ok := CurrentOwner(req)
	assert.False(t, ok)
}
