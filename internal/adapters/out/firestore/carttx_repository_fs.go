// internal/adapters/out/firestore/carttx_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	carttxdom "plaze/internal/domain/carttx"
)

// CartTxRepositoryFS implements carttx.Repository using Firestore.
//
// Collection design:
// - collection: cart_transactions
// - docId: store-generated
// - subcollection: items, docId = productId__variantId
//
// The line-item write and the aggregate bump run inside RunTransaction so a
// reader never observes totals inconsistent with the items.
type CartTxRepositoryFS struct {
	Client *firestore.Client
}

func NewCartTxRepositoryFS(client *firestore.Client) *CartTxRepositoryFS {
	return &CartTxRepositoryFS{Client: client}
}

func (r *CartTxRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("cart_transactions")
}

func (r *CartTxRepositoryFS) itemsCol(txID string) *firestore.CollectionRef {
	return r.col().Doc(txID).Collection("items")
}

// GetLatestPending returns (nil, nil) if no pending transaction exists
// (nil policy). If the at-most-one-pending invariant was violated upstream,
// ordering createdAt desc with limit 1 makes the newest win; older pendings
// are stale, never merged.
func (r *CartTxRepositoryFS) GetLatestPending(ctx context.Context, owner carttxdom.Owner) (*carttxdom.Transaction, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("carttx_repository_fs: firestore client is nil")
	}
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	q := r.col().Where("status", "==", string(carttxdom.StatusPending))
	if uid := strings.TrimSpace(owner.UserID); uid != "" {
		q = q.Where("userId", "==", uid)
	} else {
		q = q.Where("guestSessionId", "==", strings.TrimSpace(owner.GuestSessionID))
	}
	q = q.OrderBy("createdAt", firestore.Desc).Limit(1)

	it := q.Documents(ctx)
	defer it.Stop()

	snap, err := it.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return txFromSnapshot(snap)
}

// GetByPaymentIntentID returns (nil, nil) when no transaction carries the
// intent id.
func (r *CartTxRepositoryFS) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*carttxdom.Transaction, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("carttx_repository_fs: firestore client is nil")
	}
	pi := strings.TrimSpace(paymentIntentID)
	if pi == "" {
		return nil, errors.New("carttx_repository_fs: paymentIntentID is empty")
	}

	it := r.col().Where("paymentIntentId", "==", pi).Limit(1).Documents(ctx)
	defer it.Stop()

	snap, err := it.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return txFromSnapshot(snap)
}

func (r *CartTxRepositoryFS) ListItems(ctx context.Context, transactionID string) ([]carttxdom.LineItem, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("carttx_repository_fs: firestore client is nil")
	}
	txID := strings.TrimSpace(transactionID)
	if txID == "" {
		return nil, errors.New("carttx_repository_fs: transactionID is empty")
	}

	it := r.itemsCol(txID).OrderBy("createdAt", firestore.Asc).Documents(ctx)
	defer it.Stop()

	out := []carttxdom.LineItem{}
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var doc lineItemDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, err
		}
		li := doc.toDomain()
		li.TransactionID = txID
		out = append(out, li)
	}
	return out, nil
}

func (r *CartTxRepositoryFS) CreatePending(ctx context.Context, t *carttxdom.Transaction) (*carttxdom.Transaction, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("carttx_repository_fs: firestore client is nil")
	}
	if t == nil {
		return nil, errors.New("carttx_repository_fs: transaction is nil")
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	ref := r.col().NewDoc()
	if _, err := ref.Create(ctx, txDocFromDomain(t)); err != nil {
		return nil, err
	}

	out := *t
	out.ID = ref.ID
	return &out, nil
}

// AddLine upserts the (productId, variantId) line and bumps the parent
// aggregates in one Firestore transaction.
//
// Repeat adds increment quantity by 1 and keep the price captured at first
// add; the aggregate delta is that captured price, not the current catalog
// price.
func (r *CartTxRepositoryFS) AddLine(ctx context.Context, transactionID string, line carttxdom.LineItem, now time.Time) error {
	if r == nil || r.Client == nil {
		return errors.New("carttx_repository_fs: firestore client is nil")
	}
	txID := strings.TrimSpace(transactionID)
	if txID == "" {
		return errors.New("carttx_repository_fs: transactionID is empty")
	}
	if err := line.Validate(); err != nil {
		return err
	}

	txRef := r.col().Doc(txID)
	itemRef := r.itemsCol(txID).Doc(carttxdom.LineKey(line.ProductID, line.VariantID))
	now = now.UTC()

	return r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		txSnap, err := tx.Get(txRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.New("carttx_repository_fs: transaction doc not found")
			}
			return err
		}
		parent, err := txFromSnapshot(txSnap)
		if err != nil {
			return err
		}
		if parent.Status != carttxdom.StatusPending {
			return errors.New("carttx_repository_fs: transaction is not pending")
		}

		itemSnap, err := tx.Get(itemRef)
		exists := err == nil && itemSnap.Exists()
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}

		var amountDelta int64
		if exists {
			var doc lineItemDoc
			if err := itemSnap.DataTo(&doc); err != nil {
				return err
			}
			amountDelta = doc.Price // captured price, not re-priced
			if err := tx.Update(itemRef, []firestore.Update{
				{Path: "quantity", Value: firestore.Increment(1)},
				{Path: "updatedAt", Value: now},
			}); err != nil {
				return err
			}
		} else {
			amountDelta = line.Price
			doc := lineItemDoc{
				ProductID: line.ProductID,
				VariantID: line.VariantID,
				Price:     line.Price,
				Quantity:  1,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Create(itemRef, doc); err != nil {
				return err
			}
		}

		return tx.Update(txRef, []firestore.Update{
			{Path: "itemCount", Value: firestore.Increment(1)},
			{Path: "totalAmount", Value: firestore.Increment(amountDelta)},
			{Path: "updatedAt", Value: now},
		})
	})
}

// RemoveLine deletes the line and decrements the aggregates by the removed
// quantity/amount in the same transaction. A missing line is a no-op.
func (r *CartTxRepositoryFS) RemoveLine(ctx context.Context, transactionID, productID, variantID string, now time.Time) error {
	if r == nil || r.Client == nil {
		return errors.New("carttx_repository_fs: firestore client is nil")
	}
	txID := strings.TrimSpace(transactionID)
	pid := strings.TrimSpace(productID)
	vid := strings.TrimSpace(variantID)
	if txID == "" || pid == "" || vid == "" {
		return errors.New("carttx_repository_fs: invalid remove arguments")
	}

	txRef := r.col().Doc(txID)
	itemRef := r.itemsCol(txID).Doc(carttxdom.LineKey(pid, vid))
	now = now.UTC()

	return r.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		itemSnap, err := tx.Get(itemRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil
			}
			return err
		}
		if !itemSnap.Exists() {
			return nil
		}

		var doc lineItemDoc
		if err := itemSnap.DataTo(&doc); err != nil {
			return err
		}

		if err := tx.Delete(itemRef); err != nil {
			return err
		}
		return tx.Update(txRef, []firestore.Update{
			{Path: "itemCount", Value: firestore.Increment(int64(-doc.Quantity))},
			{Path: "totalAmount", Value: firestore.Increment(-doc.Price * int64(doc.Quantity))},
			{Path: "updatedAt", Value: now},
		})
	})
}

func (r *CartTxRepositoryFS) SetPaymentIntentID(ctx context.Context, transactionID, paymentIntentID string, now time.Time) error {
	if r == nil || r.Client == nil {
		return errors.New("carttx_repository_fs: firestore client is nil")
	}
	txID := strings.TrimSpace(transactionID)
	pi := strings.TrimSpace(paymentIntentID)
	if txID == "" || pi == "" {
		return errors.New("carttx_repository_fs: invalid payment intent link arguments")
	}

	_, err := r.col().Doc(txID).Update(ctx, []firestore.Update{
		{Path: "paymentIntentId", Value: pi},
		{Path: "updatedAt", Value: now.UTC()},
	})
	return err
}

func (r *CartTxRepositoryFS) UpdateStatus(ctx context.Context, transactionID string, st carttxdom.Status, now time.Time) error {
	if r == nil || r.Client == nil {
		return errors.New("carttx_repository_fs: firestore client is nil")
	}
	txID := strings.TrimSpace(transactionID)
	if txID == "" {
		return errors.New("carttx_repository_fs: transactionID is empty")
	}
	if !carttxdom.IsValidStatus(st) {
		return carttxdom.ErrInvalidTransaction
	}

	_, err := r.col().Doc(txID).Update(ctx, []firestore.Update{
		{Path: "status", Value: string(st)},
		{Path: "updatedAt", Value: now.UTC()},
	})
	return err
}

// -----------------------------------------
// Firestore DTO
// -----------------------------------------

type txDoc struct {
	UserID          string    `firestore:"userId"`
	GuestSessionID  string    `firestore:"guestSessionId"`
	Status          string    `firestore:"status"`
	ItemCount       int64     `firestore:"itemCount"`
	TotalAmount     int64     `firestore:"totalAmount"`
	PaymentIntentID string    `firestore:"paymentIntentId"`
	CreatedAt       time.Time `firestore:"createdAt"`
	UpdatedAt       time.Time `firestore:"updatedAt"`
}

type lineItemDoc struct {
	ProductID string    `firestore:"productId"`
	VariantID string    `firestore:"variantId"`
	Price     int64     `firestore:"price"`
	Quantity  int       `firestore:"quantity"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func txDocFromDomain(t *carttxdom.Transaction) txDoc {
	return txDoc{
		UserID:          strings.TrimSpace(t.UserID),
		GuestSessionID:  strings.TrimSpace(t.GuestSessionID),
		Status:          string(t.Status),
		ItemCount:       int64(t.ItemCount),
		TotalAmount:     t.TotalAmount,
		PaymentIntentID: strings.TrimSpace(t.PaymentIntentID),
		CreatedAt:       t.CreatedAt.UTC(),
		UpdatedAt:       t.UpdatedAt.UTC(),
	}
}

func txFromSnapshot(snap *firestore.DocumentSnapshot) (*carttxdom.Transaction, error) {
	if snap == nil || !snap.Exists() {
		return nil, errors.New("carttx_repository_fs: snapshot is nil")
	}
	var doc txDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}
	// docId is the source of truth
	return &carttxdom.Transaction{
		ID:              snap.Ref.ID,
		UserID:          doc.UserID,
		GuestSessionID:  doc.GuestSessionID,
		Status:          carttxdom.Status(doc.Status),
		ItemCount:       int(doc.ItemCount),
		TotalAmount:     doc.TotalAmount,
		PaymentIntentID: doc.PaymentIntentID,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}, nil
}

func (d lineItemDoc) toDomain() carttxdom.LineItem {
	return carttxdom.LineItem{
		ProductID: d.ProductID,
		VariantID: d.VariantID,
		Price:     d.Price,
		Quantity:  d.Quantity,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
