// internal/adapters/in/http/mall/webhook/stripe_handler_test.go
package webhook

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stripeadapter "plaze/internal/adapters/out/stripe"
	uc "plaze/internal/application/usecase"
	eventdom "plaze/internal/domain/webhookevent"
)

type stubVerifier struct {
	event stripe.Event
	err   error
}

func (v stubVerifier) ConstructWebhookEvent(_ []byte, _ string) (stripe.Event, error) {
	return v.event, v.err
}

func TestStripeWebhookHandler_MethodNotAllowed(t *testing.T) {
	h := NewStripeWebhookHandler(stubVerifier{}, uc.NewWebhookUsecase(nil, nil, nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mall/webhooks/stripe", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStripeWebhookHandler_InvalidSignature(t *testing.T) {
	verifier := stubVerifier{err: stripeadapter.ErrInvalidSignature}
	h := NewStripeWebhookHandler(verifier, uc.NewWebhookUsecase(nil, nil, nil))

	req := httptest.NewRequest(http.MethodPost, "/mall/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=bogus")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid signature", body["error"])
}

func TestToDomainEvent(t *testing.T) {
	raw := json.RawMessage(`{"id":"pi_123","amount":2500,"status":"succeeded"}`)
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	e := toDomainEvent(stripe.Event{
		ID:      "evt_42",
		Type:    stripe.EventType(eventdom.TypePaymentSucceeded),
		Created: created.Unix(),
		Data:    &stripe.EventData{Raw: raw},
	})

	assert.Equal(t, "evt_42", e.ID)
	assert.Equal(t, eventdom.TypePaymentSucceeded, e.Type)
	assert.Equal(t, "pi_123", e.PaymentIntentID)
	assert.Equal(t, created, e.ProviderCreated)
	assert.JSONEq(t, string(raw), string(e.Payload))
	assert.NoError(t, e.Validate())
}

func TestToDomainEvent_NoPaymentIntent(t *testing.T) {
	e := toDomainEvent(stripe.Event{
		ID:      "evt_43",
		Type:    "customer.created",
		Created: time.Now().Unix(),
		Data:    &stripe.EventData{Raw: json.RawMessage(`{"object":"customer"}`)},
	})
	assert.Empty(t, e.PaymentIntentID)
	assert.False(t, e.IsRelevant())
}

func TestToDomainEvent_ForeignObjectIDStaysOutOfIntentColumn(t *testing.T) {
	// charge.* and customer.* payloads carry their own object ids; those
	// must not be recorded as a payment intent id.
	for _, tt := range []struct {
		eventType string
		raw       string
	}{
		{"charge.refunded", `{"id":"ch_777","object":"charge"}`},
		{"customer.created", `{"id":"cus_42","object":"customer"}`},
	} {
		e := toDomainEvent(stripe.Event{
			ID:      "evt_" + tt.eventType,
			Type:    stripe.EventType(tt.eventType),
			Created: time.Now().Unix(),
			Data:    &stripe.EventData{Raw: json.RawMessage(tt.raw)},
		})
		assert.Empty(t, e.PaymentIntentID, "type=%s", tt.eventType)
		assert.JSONEq(t, tt.raw, string(e.Payload), "type=%s", tt.eventType)
	}
}
