// internal/domain/webhookevent/repository_port.go
package webhookevent

import (
	"context"
	"time"
)

// HealthStats aggregates ingestion outcomes over a trailing window.
type HealthStats struct {
	WindowStart time.Time `json:"windowStart"`
	Total       int       `json:"total"`
	Processed   int       `json:"processed"`
	Failed      int       `json:"failed"`
	Pending     int       `json:"pending"`

	// Rates over Total; 0 when Total is 0.
	ProcessedRate float64 `json:"processedRate"`
	FailedRate    float64 `json:"failedRate"`
}

// Notification describes one inserted/updated event row pushed to
// subscribers.
type Notification struct {
	EventID         string `json:"eventId"`
	Type            string `json:"type"`
	PaymentIntentID string `json:"paymentIntentId"`
	Processed       bool   `json:"processed"`
}

// SubscribeFilter narrows the push feed; zero value means "everything".
type SubscribeFilter struct {
	PaymentIntentID string
	Types           []string
}

// Repository is the durable, idempotent event store port.
//
// Storage recommendation (Postgres):
// - table: webhook_events, primary key id (provider event id)
// - duplicate inserts MUST be treated as success, not failure
//   (unique_violation is the idempotency mechanism)
// - rows are never deleted (audit trail)
type Repository interface {
	// Insert stores the event once. inserted=false means a row with that
	// provider event id already existed; the stored row is returned either
	// way.
	Insert(ctx context.Context, e Event) (stored Event, inserted bool, err error)

	// GetByID returns the stored event, or (nil, nil).
	GetByID(ctx context.Context, eventID string) (*Event, error)

	// ListByPaymentIntent returns all relevant events referencing the
	// payment intent, ordered by provider timestamp ascending.
	ListByPaymentIntent(ctx context.Context, paymentIntentID string) ([]Event, error)

	// MarkProcessed / MarkFailed update the row in place.
	MarkProcessed(ctx context.Context, eventID string, at time.Time) error
	MarkFailed(ctx context.Context, eventID string, reason string, at time.Time) error

	// Health aggregates processed/failed/pending counts over the trailing
	// window. Read-only.
	Health(ctx context.Context, window time.Duration) (HealthStats, error)

	// Subscribe delivers a Notification for every inserted/updated row
	// matching filter until ctx is done or the returned stop func is
	// called. Reconnection with backoff is the implementation's concern.
	Subscribe(ctx context.Context, filter SubscribeFilter, fn func(Notification)) (stop func(), err error)
}
