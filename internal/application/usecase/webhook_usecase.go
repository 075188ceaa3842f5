// internal/application/usecase/webhook_usecase.go
package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	carttxdom "plaze/internal/domain/carttx"
	eventdom "plaze/internal/domain/webhookevent"
)

var (
	ErrWebhookStoreMissing = errors.New("webhook: event store is not configured")
)

// ReceiptMailer is an outbound port for the post-payment receipt mail.
// Delivery is best-effort; a mail failure never fails ingestion.
type ReceiptMailer interface {
	SendPaymentReceipt(ctx context.Context, userID, transactionID string, amount int64) error
}

// WebhookUsecase ingests provider events durably and idempotently, derives
// coarse payment status, and reconciles the linked cart transaction.
//
// Ingestion is at-least-once on the provider side; the store's natural key
// (provider event id) makes processing at-most-once. A redelivered event
// that already processed is acknowledged and dropped; one whose previous
// processing failed is retried in place.
type WebhookUsecase struct {
	events eventdom.Repository
	carts  carttxdom.Repository
	mailer ReceiptMailer // optional
	clock  Clock
}

func NewWebhookUsecase(events eventdom.Repository, carts carttxdom.Repository, mailer ReceiptMailer) *WebhookUsecase {
	return &WebhookUsecase{events: events, carts: carts, mailer: mailer, clock: systemClock{}}
}

func NewWebhookUsecaseWithClock(events eventdom.Repository, carts carttxdom.Repository, mailer ReceiptMailer, clock Clock) *WebhookUsecase {
	if clock == nil {
		clock = systemClock{}
	}
	return &WebhookUsecase{events: events, carts: carts, mailer: mailer, clock: clock}
}

// HandleEvent stores the event exactly once and, for relevant event types,
// recomputes and applies the transaction status. The caller has already
// authenticated the payload (signature verification is the gateway
// client's job).
func (uc *WebhookUsecase) HandleEvent(ctx context.Context, e eventdom.Event) error {
	if uc == nil || uc.events == nil {
		return ErrWebhookStoreMissing
	}
	if err := e.Validate(); err != nil {
		return err
	}

	stored, inserted, err := uc.events.Insert(ctx, e)
	if err != nil {
		log.Printf("[webhook_uc] insert failed eventId=%s err=%v", e.ID, err)
		return err
	}
	if !inserted && stored.Processed {
		// provider retry of an event we already handled
		log.Printf("[webhook_uc] duplicate delivery eventId=%s (already processed)", e.ID)
		return nil
	}
	if !inserted {
		log.Printf("[webhook_uc] retrying previously failed eventId=%s", e.ID)
	}

	now := uc.clock.Now().UTC()

	if !stored.IsRelevant() || strings.TrimSpace(stored.PaymentIntentID) == "" {
		// stored for audit only
		if mErr := uc.events.MarkProcessed(ctx, stored.ID, now); mErr != nil {
			log.Printf("[webhook_uc] WARN: mark processed failed eventId=%s err=%v", stored.ID, mErr)
		}
		return nil
	}

	if err := uc.reconcile(ctx, stored.PaymentIntentID, now); err != nil {
		if mErr := uc.events.MarkFailed(ctx, stored.ID, err.Error(), now); mErr != nil {
			log.Printf("[webhook_uc] WARN: mark failed failed eventId=%s err=%v", stored.ID, mErr)
		}
		return err
	}

	if mErr := uc.events.MarkProcessed(ctx, stored.ID, now); mErr != nil {
		log.Printf("[webhook_uc] WARN: mark processed failed eventId=%s err=%v", stored.ID, mErr)
	}
	return nil
}

// DeriveStatus recomputes the coarse status for a payment intent from the
// stored events. No matching events yields the optimistic default,
// StatusPending.
func (uc *WebhookUsecase) DeriveStatus(ctx context.Context, paymentIntentID string) (eventdom.PaymentStatus, error) {
	if uc == nil || uc.events == nil {
		return "", ErrWebhookStoreMissing
	}
	pi := strings.TrimSpace(paymentIntentID)
	if pi == "" {
		return "", eventdom.ErrInvalidEvent
	}
	events, err := uc.events.ListByPaymentIntent(ctx, pi)
	if err != nil {
		return "", err
	}
	return eventdom.DeriveStatus(events), nil
}

// Health aggregates ingestion outcomes over a trailing window.
func (uc *WebhookUsecase) Health(ctx context.Context, window time.Duration) (eventdom.HealthStats, error) {
	if uc == nil || uc.events == nil {
		return eventdom.HealthStats{}, ErrWebhookStoreMissing
	}
	if window <= 0 {
		window = time.Hour
	}
	return uc.events.Health(ctx, window)
}

// Subscribe forwards the event store's push feed. Cancellation is
// "unsubscribe": cancel ctx or call the returned stop func.
func (uc *WebhookUsecase) Subscribe(ctx context.Context, filter eventdom.SubscribeFilter, fn func(eventdom.Notification)) (func(), error) {
	if uc == nil || uc.events == nil {
		return nil, ErrWebhookStoreMissing
	}
	return uc.events.Subscribe(ctx, filter, fn)
}

// reconcile recomputes the derived status for the payment intent and
// applies it to the linked transaction. requires_action and pending leave
// the transaction untouched (still payable); the terminal statuses map to
// paid/failed/canceled.
func (uc *WebhookUsecase) reconcile(ctx context.Context, paymentIntentID string, now time.Time) error {
	events, err := uc.events.ListByPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return err
	}
	derived := eventdom.DeriveStatus(events)

	var next carttxdom.Status
	switch derived {
	case eventdom.StatusSucceeded:
		next = carttxdom.StatusPaid
	case eventdom.StatusFailed:
		next = carttxdom.StatusFailed
	case eventdom.StatusCanceled:
		next = carttxdom.StatusCanceled
	default:
		// pending / requires_action: nothing to apply yet
		return nil
	}

	if uc.carts == nil {
		return nil
	}
	t, err := uc.carts.GetByPaymentIntentID(ctx, paymentIntentID)
	if err != nil {
		return err
	}
	if t == nil {
		// no transaction carries this intent (e.g. subscription invoices);
		// the event is still stored for audit
		log.Printf("[webhook_uc] no transaction for intentId=%s (derived=%s)", paymentIntentID, derived)
		return nil
	}
	if t.Status == next {
		return nil
	}

	if err := uc.carts.UpdateStatus(ctx, t.ID, next, now); err != nil {
		return err
	}
	log.Printf("[webhook_uc] transaction reconciled txId=%s intentId=%s %s -> %s", t.ID, paymentIntentID, t.Status, next)

	if next == carttxdom.StatusPaid && uc.mailer != nil && strings.TrimSpace(t.UserID) != "" {
		if mErr := uc.mailer.SendPaymentReceipt(ctx, t.UserID, t.ID, t.TotalAmount); mErr != nil {
			log.Printf("[webhook_uc] WARN: receipt mail failed txId=%s err=%v", t.ID, mErr)
		}
	}
	return nil
}
