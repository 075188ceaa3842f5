// internal/domain/carttx/entity.go
package carttx

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrInvalidOwner       = errors.New("carttx: invalid owner")
	ErrInvalidTransaction = errors.New("carttx: invalid transaction")
	ErrInvalidLineItem    = errors.New("carttx: invalid line item")
)

// Status of a cart transaction.
// Only "pending" transactions are mutable by the cart flow; the terminal
// states are reached exclusively through webhook-driven reconciliation.
type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

func IsValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusPaid, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// Owner identifies who the cart belongs to: a registered user or a guest
// session. Exactly one of the two is set.
type Owner struct {
	UserID         string
	GuestSessionID string
}

func UserOwner(userID string) Owner {
	return Owner{UserID: strings.TrimSpace(userID)}
}

func GuestOwner(sessionID string) Owner {
	return Owner{GuestSessionID: strings.TrimSpace(sessionID)}
}

// IsZero reports whether neither identity is present.
func (o Owner) IsZero() bool {
	return strings.TrimSpace(o.UserID) == "" && strings.TrimSpace(o.GuestSessionID) == ""
}

func (o Owner) Validate() error {
	uid := strings.TrimSpace(o.UserID)
	gid := strings.TrimSpace(o.GuestSessionID)
	if uid == "" && gid == "" {
		return ErrInvalidOwner
	}
	if uid != "" && gid != "" {
		return ErrInvalidOwner
	}
	return nil
}

// Transaction represents one buyer's in-progress (pending) order.
//   - docId = store-generated id
//   - ItemCount / TotalAmount are aggregates over the line items and are
//     committed together with any line-item change
//   - PaymentIntentID links the transaction to the payment provider; it is
//     the only coupling between the cart flow and the webhook flow
type Transaction struct {
	ID              string `firestore:"-"`
	UserID          string `firestore:"userId"`
	GuestSessionID  string `firestore:"guestSessionId"`
	Status          Status `firestore:"status"`
	ItemCount       int    `firestore:"itemCount"`
	TotalAmount     int64  `firestore:"totalAmount"` // minor currency units
	PaymentIntentID string `firestore:"paymentIntentId"`

	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// NewPending creates an empty pending transaction for owner.
func NewPending(owner Owner, now time.Time) (*Transaction, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	return &Transaction{
		UserID:         strings.TrimSpace(owner.UserID),
		GuestSessionID: strings.TrimSpace(owner.GuestSessionID),
		Status:         StatusPending,
		ItemCount:      0,
		TotalAmount:    0,
		CreatedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}, nil
}

func (t *Transaction) Owner() Owner {
	if t == nil {
		return Owner{}
	}
	if strings.TrimSpace(t.UserID) != "" {
		return UserOwner(t.UserID)
	}
	return GuestOwner(t.GuestSessionID)
}

func (t *Transaction) IsPending() bool {
	return t != nil && t.Status == StatusPending
}

func (t *Transaction) Validate() error {
	if t == nil {
		return ErrInvalidTransaction
	}
	if err := t.Owner().Validate(); err != nil {
		return err
	}
	if !IsValidStatus(t.Status) {
		return ErrInvalidTransaction
	}
	if t.ItemCount < 0 || t.TotalAmount < 0 {
		return ErrInvalidTransaction
	}
	if t.CreatedAt.IsZero() || t.UpdatedAt.IsZero() {
		return ErrInvalidTransaction
	}
	return nil
}

// LineItem is one product+variant selection within a transaction.
// Uniqueness is (TransactionID, ProductID, VariantID). Price is the unit
// price captured at first add; repeat adds never re-price the line.
type LineItem struct {
	TransactionID string `firestore:"-"`
	ProductID     string `firestore:"productId"`
	VariantID     string `firestore:"variantId"`
	Price         int64  `firestore:"price"` // minor currency units
	Quantity      int    `firestore:"quantity"`

	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// LineTotal is always derived; it is never stored independently of
// Price and Quantity.
func (li LineItem) LineTotal() int64 {
	return li.Price * int64(li.Quantity)
}

func (li LineItem) Validate() error {
	if strings.TrimSpace(li.ProductID) == "" || strings.TrimSpace(li.VariantID) == "" {
		return ErrInvalidLineItem
	}
	if li.Price < 0 || li.Quantity <= 0 {
		return ErrInvalidLineItem
	}
	return nil
}

// LineKey is the item doc id inside a transaction: productId__variantId.
func LineKey(productID, variantID string) string {
	return strings.TrimSpace(productID) + "__" + strings.TrimSpace(variantID)
}
