// internal/application/usecase/cart_query_usecase.go
package usecase

import (
	"context"
	"errors"
	"log"

	carttxdom "plaze/internal/domain/carttx"
	productdom "plaze/internal/domain/product"
)

var (
	ErrNoIdentity = errors.New("cart_query: no identity")
)

// CartQueryUsecase produces a read-optimized, display-ready snapshot of the
// current pending cart for an owner.
type CartQueryUsecase struct {
	carts    carttxdom.Repository
	products productdom.Repository
}

func NewCartQueryUsecase(carts carttxdom.Repository, products productdom.Repository) *CartQueryUsecase {
	return &CartQueryUsecase{carts: carts, products: products}
}

// FetchCart returns the newest pending transaction for owner with its line
// items enriched with display names. No pending transaction is not an
// error: the empty snapshot comes back. An owner with neither a user id nor
// a guest session id fails with ErrNoIdentity.
func (uc *CartQueryUsecase) FetchCart(ctx context.Context, owner carttxdom.Owner) (*carttxdom.Snapshot, error) {
	if uc == nil || uc.carts == nil {
		return nil, errors.New("cart_query: repository is not configured")
	}
	if owner.IsZero() {
		return nil, ErrNoIdentity
	}
	if err := owner.Validate(); err != nil {
		return nil, ErrNoIdentity
	}

	t, err := uc.carts.GetLatestPending(ctx, owner)
	if err != nil {
		log.Printf("[cart_query] get latest pending failed err=%v", err)
		return nil, err
	}
	if t == nil {
		return carttxdom.EmptySnapshot(), nil
	}

	items, err := uc.carts.ListItems(ctx, t.ID)
	if err != nil {
		log.Printf("[cart_query] list items failed txId=%s err=%v", t.ID, err)
		return nil, err
	}

	names := uc.resolveNames(ctx, items)

	snap := &carttxdom.Snapshot{
		TransactionID: t.ID,
		Status:        t.Status,
		ItemCount:     t.ItemCount,
		TotalAmount:   t.TotalAmount,
		Items:         make([]carttxdom.SnapshotItem, 0, len(items)),
	}
	for _, li := range items {
		productName := carttxdom.UnknownProductName
		variantName := carttxdom.UnknownVariantName
		if p, ok := names[li.ProductID]; ok && p != nil {
			productName = p.Name
			if v := p.FindVariant(li.VariantID); v != nil {
				variantName = v.Name
			}
		}
		snap.Items = append(snap.Items, carttxdom.SnapshotItem{
			ProductID:   li.ProductID,
			VariantID:   li.VariantID,
			ProductName: productName,
			VariantName: variantName,
			Price:       li.Price,
			Quantity:    li.Quantity,
			LineTotal:   li.LineTotal(),
		})
	}
	return snap, nil
}

// resolveNames does one batched catalog lookup for the product ids in items.
// A failed or partial lookup degrades to display placeholders; it never
// fails the fetch (dangling references are tolerated).
func (uc *CartQueryUsecase) resolveNames(ctx context.Context, items []carttxdom.LineItem) map[string]*productdom.Product {
	if uc.products == nil || len(items) == 0 {
		return map[string]*productdom.Product{}
	}

	seen := map[string]struct{}{}
	ids := make([]string, 0, len(items))
	for _, li := range items {
		if _, ok := seen[li.ProductID]; ok {
			continue
		}
		seen[li.ProductID] = struct{}{}
		ids = append(ids, li.ProductID)
	}

	names, err := uc.products.GetByIDs(ctx, ids)
	if err != nil {
		log.Printf("[cart_query] WARN: product name lookup failed (falling back to placeholders) err=%v", err)
		return map[string]*productdom.Product{}
	}
	return names
}
