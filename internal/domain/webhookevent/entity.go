// internal/domain/webhookevent/entity.go
package webhookevent

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidEvent = errors.New("webhookevent: invalid event")
)

// Provider event types the processor consumes. Other types are stored for
// the audit trail but never influence a derived status.
const (
	TypePaymentSucceeded      = "payment_intent.succeeded"
	TypePaymentFailed         = "payment_intent.payment_failed"
	TypePaymentRequiresAction = "payment_intent.requires_action"
	TypePaymentCanceled       = "payment_intent.canceled"
)

// PaymentStatus is the coarse status derived for a payment intent.
type PaymentStatus string

const (
	StatusPending        PaymentStatus = "pending"
	StatusRequiresAction PaymentStatus = "requires_action"
	StatusSucceeded      PaymentStatus = "succeeded"
	StatusFailed         PaymentStatus = "failed"
	StatusCanceled       PaymentStatus = "canceled"
)

// Event is the durable record of one inbound provider notification.
//   - ID is the provider event id (natural key; uniqueness at the store
//     level guarantees at-most-once processing despite provider retries)
//   - Payload retains the full original body for audit/replay
//   - ProviderCreated is the provider-assigned event timestamp; status
//     derivation orders by it, never by row insertion time
type Event struct {
	ID              string
	Type            string
	PaymentIntentID string
	Payload         json.RawMessage
	ProviderCreated time.Time

	Processed       bool
	ProcessingError *string

	CreatedAt   time.Time
	ProcessedAt *time.Time
}

func (e Event) Validate() error {
	if strings.TrimSpace(e.ID) == "" || strings.TrimSpace(e.Type) == "" {
		return ErrInvalidEvent
	}
	if e.ProviderCreated.IsZero() {
		return ErrInvalidEvent
	}
	return nil
}

// IsRelevant reports whether the event type participates in status
// derivation.
func (e Event) IsRelevant() bool {
	switch e.Type {
	case TypePaymentSucceeded, TypePaymentFailed, TypePaymentRequiresAction, TypePaymentCanceled:
		return true
	}
	return false
}

// StatusOf maps a relevant event type to the status it asserts.
func StatusOf(eventType string) (PaymentStatus, bool) {
	switch eventType {
	case TypePaymentSucceeded:
		return StatusSucceeded, true
	case TypePaymentFailed:
		return StatusFailed, true
	case TypePaymentRequiresAction:
		return StatusRequiresAction, true
	case TypePaymentCanceled:
		return StatusCanceled, true
	}
	return "", false
}

// isTerminal: once a payment has succeeded, failed or been canceled, a late
// "requires action" notification must not revert it.
func isTerminal(s PaymentStatus) bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusCanceled
}

// DeriveStatus replays events for one payment intent through the transition
// table and returns the resulting status. Input order does not matter: the
// events are sorted by ProviderCreated (id as tiebreaker) before replay, so
// out-of-order and redelivered events cannot regress a terminal status.
// No relevant events yields the optimistic default, StatusPending.
func DeriveStatus(events []Event) PaymentStatus {
	ordered := make([]Event, 0, len(events))
	for _, e := range events {
		if e.IsRelevant() {
			ordered = append(ordered, e)
		}
	}
	sortByProviderCreated(ordered)

	cur := StatusPending
	for _, e := range ordered {
		next, ok := StatusOf(e.Type)
		if !ok {
			continue
		}
		if isTerminal(cur) && next == StatusRequiresAction {
			continue
		}
		cur = next
	}
	return cur
}

func sortByProviderCreated(events []Event) {
	// insertion sort; event counts per intent are tiny
	for i := 1; i < len(events); i++ {
		for j := i; j > 0; j-- {
			a, b := events[j-1], events[j]
			if a.ProviderCreated.Before(b.ProviderCreated) {
				break
			}
			if a.ProviderCreated.Equal(b.ProviderCreated) && a.ID <= b.ID {
				break
			}
			events[j-1], events[j] = b, a
		}
	}
}
