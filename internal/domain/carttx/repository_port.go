// internal/domain/carttx/repository_port.go
package carttx

import (
	"context"
	"time"
)

// Repository is a persistence port for cart transactions.
//
// Storage recommendation (Firestore):
// - collection: cart_transactions
// - docId: store-generated
// - fields: userId, guestSessionId, status, itemCount, totalAmount,
//   paymentIntentId, createdAt, updatedAt
// - subcollection: items, docId = productId__variantId (LineKey)
//
// Invariant: at most one pending transaction per owner. Readers defend
// against upstream violations by ordering createdAt desc and taking one
// (the newest wins; older pendings are stale, never merged).
type Repository interface {
	// GetLatestPending returns the newest pending transaction for owner.
	// Not-found policy: (nil, nil); the application layer treats nil as
	// "empty cart".
	GetLatestPending(ctx context.Context, owner Owner) (*Transaction, error)

	// GetByPaymentIntentID returns the transaction carrying the provider
	// payment-intent id, or (nil, nil).
	GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*Transaction, error)

	// ListItems returns all line items of a transaction.
	ListItems(ctx context.Context, transactionID string) ([]LineItem, error)

	// CreatePending persists a new empty pending transaction and returns it
	// with the store-generated id filled in.
	CreatePending(ctx context.Context, t *Transaction) (*Transaction, error)

	// AddLine commits a line upsert and the aggregate bump
	// (itemCount += qtyDelta, totalAmount += amountDelta) atomically.
	// If the line exists its quantity is incremented, otherwise the line is
	// created with the given price.
	AddLine(ctx context.Context, transactionID string, line LineItem, now time.Time) error

	// RemoveLine deletes a line and decrements the aggregates by the
	// removed quantity/amount in the same store transaction.
	// Removing an absent line is a no-op.
	RemoveLine(ctx context.Context, transactionID, productID, variantID string, now time.Time) error

	// SetPaymentIntentID links the transaction to a provider payment intent.
	SetPaymentIntentID(ctx context.Context, transactionID, paymentIntentID string, now time.Time) error

	// UpdateStatus transitions the transaction status (reconciliation only;
	// the cart flow never calls this).
	UpdateStatus(ctx context.Context, transactionID string, status Status, now time.Time) error
}
