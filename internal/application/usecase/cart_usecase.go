// internal/application/usecase/cart_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	carttxdom "plaze/internal/domain/carttx"
	productdom "plaze/internal/domain/product"
)

var (
	ErrCartInvalidArgument     = errors.New("cart: invalid argument")
	ErrVariantNotFound         = errors.New("cart: variant not found")
	ErrTransactionCreateFailed = errors.New("cart: transaction create failed")
	ErrCartWriteFailed         = errors.New("cart: write failed")
)

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// CartUsecase applies "add this product variant to my cart" intents.
// The line-item write and the aggregate bump commit in one store
// transaction, so itemCount/totalAmount stay consistent with the line items
// after every completed call.
type CartUsecase struct {
	carts    carttxdom.Repository
	products productdom.Repository
	clock    Clock
}

func NewCartUsecase(carts carttxdom.Repository, products productdom.Repository) *CartUsecase {
	return &CartUsecase{
		carts:    carts,
		products: products,
		clock:    systemClock{},
	}
}

// NewCartUsecaseWithClock is useful for tests.
func NewCartUsecaseWithClock(carts carttxdom.Repository, products productdom.Repository, clock Clock) *CartUsecase {
	if clock == nil {
		clock = systemClock{}
	}
	return &CartUsecase{carts: carts, products: products, clock: clock}
}

// AddItem adds one unit of (productID, variantID) to the owner's cart and
// returns the updated snapshot without re-querying the store.
//
// snapshot is the caller's current view; nil is treated as "empty cart".
// If it carries no transaction id a pending transaction is created first.
// A repeat add of the same product+variant increments quantity by 1 at the
// price captured on first add.
func (uc *CartUsecase) AddItem(
	ctx context.Context,
	snapshot *carttxdom.Snapshot,
	productID, variantID string,
	owner carttxdom.Owner,
) (*carttxdom.Snapshot, error) {
	if uc == nil || uc.carts == nil || uc.products == nil {
		return nil, errors.New("cart: usecase is not configured")
	}

	pid := strings.TrimSpace(productID)
	vid := strings.TrimSpace(variantID)
	if pid == "" || vid == "" {
		return nil, ErrCartInvalidArgument
	}
	if err := owner.Validate(); err != nil {
		return nil, ErrNoIdentity
	}

	// 1) resolve variant (price capture source)
	p, err := uc.products.GetByID(ctx, pid)
	if err != nil {
		log.Printf("[cart_uc] product lookup failed productId=%s err=%v", pid, err)
		return nil, fmt.Errorf("%w: resolve variant: %v", ErrCartWriteFailed, err)
	}
	variant := p.FindVariant(vid)
	if variant == nil {
		return nil, ErrVariantNotFound
	}

	now := uc.clock.Now().UTC()

	if snapshot == nil {
		snapshot = carttxdom.EmptySnapshot()
	}

	// 2) lazy transaction create on first add
	txID := strings.TrimSpace(snapshot.TransactionID)
	if txID == "" {
		t, nErr := carttxdom.NewPending(owner, now)
		if nErr != nil {
			return nil, nErr
		}
		created, cErr := uc.carts.CreatePending(ctx, t)
		if cErr != nil {
			log.Printf("[cart_uc] create pending transaction failed err=%v", cErr)
			return nil, ErrTransactionCreateFailed
		}
		txID = created.ID
		snapshot = &carttxdom.Snapshot{
			TransactionID: txID,
			Status:        carttxdom.StatusPending,
			Items:         []carttxdom.SnapshotItem{},
		}
	}

	// 3+4) line upsert + aggregate bump, one store transaction
	line := carttxdom.LineItem{
		TransactionID: txID,
		ProductID:     pid,
		VariantID:     vid,
		Price:         variant.Price,
		Quantity:      1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.carts.AddLine(ctx, txID, line, now); err != nil {
		log.Printf("[cart_uc] add line failed txId=%s productId=%s variantId=%s err=%v", txID, pid, vid, err)
		return nil, fmt.Errorf("%w: add line: %v", ErrCartWriteFailed, err)
	}

	// 5) update in-memory snapshot (no refetch)
	out := *snapshot
	out.Items = append([]carttxdom.SnapshotItem(nil), snapshot.Items...)

	if idx := out.FindItem(pid, vid); idx >= 0 {
		it := out.Items[idx]
		it.Quantity++
		it.LineTotal = it.Price * int64(it.Quantity)
		out.Items[idx] = it
		out.TotalAmount += it.Price
	} else {
		out.Items = append(out.Items, carttxdom.SnapshotItem{
			ProductID:   pid,
			VariantID:   vid,
			ProductName: p.Name,
			VariantName: variant.Name,
			Price:       variant.Price,
			Quantity:    1,
			LineTotal:   variant.Price,
		})
		out.TotalAmount += variant.Price
	}
	out.ItemCount++
	return &out, nil
}

// RemoveItem deletes the matching line item; the aggregate decrement
// commits in the same store transaction. Callers refetch via FetchCart to
// observe authoritative totals.
func (uc *CartUsecase) RemoveItem(ctx context.Context, owner carttxdom.Owner, productID, variantID string) error {
	if uc == nil || uc.carts == nil {
		return errors.New("cart: usecase is not configured")
	}

	pid := strings.TrimSpace(productID)
	vid := strings.TrimSpace(variantID)
	if pid == "" || vid == "" {
		return ErrCartInvalidArgument
	}
	if err := owner.Validate(); err != nil {
		return ErrNoIdentity
	}

	t, err := uc.carts.GetLatestPending(ctx, owner)
	if err != nil {
		return fmt.Errorf("%w: lookup pending: %v", ErrCartWriteFailed, err)
	}
	if t == nil {
		// nothing to remove
		return nil
	}

	now := uc.clock.Now().UTC()
	if err := uc.carts.RemoveLine(ctx, t.ID, pid, vid, now); err != nil {
		log.Printf("[cart_uc] remove line failed txId=%s productId=%s variantId=%s err=%v", t.ID, pid, vid, err)
		return fmt.Errorf("%w: remove line: %v", ErrCartWriteFailed, err)
	}
	return nil
}
