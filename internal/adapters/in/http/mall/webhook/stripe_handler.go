// internal/adapters/in/http/mall/webhook/stripe_handler.go
package webhook

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v79"

	stripeadapter "plaze/internal/adapters/out/stripe"
	uc "plaze/internal/application/usecase"
	eventdom "plaze/internal/domain/webhookevent"
)

// EventVerifier checks the Stripe-Signature header and decodes the event.
type EventVerifier interface {
	ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

// StripeWebhookHandler receives provider events at POST /mall/webhooks/stripe.
//
// The raw body is verified against the webhook signing secret before any
// parsing of the payload is trusted. Verified events are stored and
// processed exactly once; redeliveries are acknowledged without effect.
type StripeWebhookHandler struct {
	verifier  EventVerifier
	webhookUC *uc.WebhookUsecase
}

func NewStripeWebhookHandler(verifier EventVerifier, webhookUC *uc.WebhookUsecase) http.Handler {
	return &StripeWebhookHandler{
		verifier:  verifier,
		webhookUC: webhookUC,
	}
}

func (h *StripeWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.verifier == nil || h.webhookUC == nil {
		writeJSONError(w, http.StatusInternalServerError, "webhook handler is not configured")
		return
	}

	const maxBody = 1 << 20 // 1MB, well above Stripe's payload sizes
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	_ = r.Body.Close()

	event, err := h.verifier.ConstructWebhookEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, stripeadapter.ErrInvalidSignature) {
			log.Printf("[mall/webhook/stripe] signature verification failed: %v", err)
			writeJSONError(w, http.StatusBadRequest, "invalid signature")
			return
		}
		log.Printf("[mall/webhook/stripe] event decode failed: %v", err)
		writeJSONError(w, http.StatusBadRequest, "invalid event")
		return
	}

	domEvent := toDomainEvent(event)

	if err := h.webhookUC.HandleEvent(r.Context(), domEvent); err != nil {
		// non-2xx makes the provider redeliver; the store retries in place
		log.Printf("[mall/webhook/stripe] handle failed eventId=%s type=%s err=%v",
			domEvent.ID, domEvent.Type, err)
		writeJSONError(w, http.StatusInternalServerError, "failed to process event")
		return
	}

	log.Printf("[mall/webhook/stripe] ok eventId=%s type=%s intentId=%s",
		domEvent.ID, domEvent.Type, domEvent.PaymentIntentID)
	w.WriteHeader(http.StatusNoContent)
}

// toDomainEvent maps the verified provider event into the store's shape.
// The payload object's id is only a payment intent id on payment_intent.*
// events; other types (charge.*, customer.*) carry their own object ids,
// which must not leak into the intent column. Those events are still
// recorded for audit.
func toDomainEvent(e stripe.Event) eventdom.Event {
	var raw json.RawMessage
	if e.Data != nil {
		raw = json.RawMessage(e.Data.Raw)
	}

	var intentID string
	if strings.HasPrefix(string(e.Type), "payment_intent.") {
		var obj struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(raw, &obj)
		intentID = obj.ID
	}

	return eventdom.Event{
		ID:              e.ID,
		Type:            string(e.Type),
		PaymentIntentID: intentID,
		Payload:         raw,
		ProviderCreated: time.Unix(e.Created, 0).UTC(),
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": msg,
	})
}
