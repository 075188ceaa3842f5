// internal/platform/di/mall/register.go
package mall

import (
	"log"
	"net/http"

	mallhandler "plaze/internal/adapters/in/http/mall/handler"
	mallwebhook "plaze/internal/adapters/in/http/mall/webhook"
	"plaze/internal/adapters/in/http/middleware"
)

// handleSafe registers pattern with h.
// If h is nil, it logs and registers NotFoundHandler instead.
func handleSafe(mux *http.ServeMux, pattern string, h http.Handler, name string) {
	if h == nil {
		log.Printf("[mall.register] WARN: nil handler: %s pattern=%s (registering NotFoundHandler)", name, pattern)
		h = http.NotFoundHandler()
	}
	mux.Handle(pattern, h)
}

// Register mounts buyer-facing routes onto mux.
//
// Identity rules:
//   - cart + payment-intent endpoints accept signed-in users AND guests
//     (IdentityMiddleware mints a guest session when nothing is presented)
//   - subscription requires a signed-in user (email comes from the token)
//   - the provider webhook carries no end-user identity at all; its only
//     gate is signature verification inside the handler
func Register(mux *http.ServeMux, cont *Container) {
	if mux == nil || cont == nil {
		return
	}

	var fbAuth *middleware.FirebaseAuthClient
	if cont.Infra != nil {
		fbAuth = cont.Infra.FirebaseAuth
	}
	identityMW := &middleware.IdentityMiddleware{FirebaseAuth: fbAuth}
	userAuthMW := &middleware.UserAuthMiddleware{FirebaseAuth: fbAuth}

	cartH := identityMW.Handler(mallhandler.NewCartHandler(cont.CartQueryUC, cont.CartUC))
	handleSafe(mux, "/mall/me/cart", cartH, "Cart")
	handleSafe(mux, "/mall/me/cart/", cartH, "Cart")

	intentH := identityMW.Handler(mallhandler.NewCheckoutHandler(cont.CheckoutUC))
	handleSafe(mux, "/mall/me/checkout/payment-intent", intentH, "Checkout(payment-intent)")

	subH := userAuthMW.Handler(mallhandler.NewCheckoutHandler(cont.CheckoutUC))
	handleSafe(mux, "/mall/me/checkout/subscription", subH, "Checkout(subscription)")

	var verifier mallwebhook.EventVerifier
	if cont.Infra != nil && cont.Infra.Stripe != nil {
		verifier = cont.Infra.Stripe
	}
	webhookH := mallwebhook.NewStripeWebhookHandler(verifier, cont.WebhookUC)
	handleSafe(mux, StripeWebhookPath, webhookH, "Webhook(stripe)")

	healthH := mallhandler.NewWebhookHealthHandler(cont.WebhookUC)
	handleSafe(mux, "/mall/webhooks/health", healthH, "Webhook(health)")

	log.Printf("[mall.register] routes registered")
}
