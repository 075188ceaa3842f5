// internal/adapters/out/firestore/product_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	productdom "plaze/internal/domain/product"
)

// ProductRepositoryFS implements product.Repository using Firestore.
//
// Collection design:
// - collection: products
// - docId: productId
// - fields: name, variants([]{id, name, price})
type ProductRepositoryFS struct {
	Client *firestore.Client
}

func NewProductRepositoryFS(client *firestore.Client) *ProductRepositoryFS {
	return &ProductRepositoryFS{Client: client}
}

func (r *ProductRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection("products")
}

// GetByID returns (nil, nil) if not found (nil policy).
func (r *ProductRepositoryFS) GetByID(ctx context.Context, productID string) (*productdom.Product, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("product_repository_fs: firestore client is nil")
	}
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return nil, errors.New("product_repository_fs: productID is empty")
	}

	snap, err := r.col().Doc(pid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}
	return productFromSnapshot(snap)
}

// GetByIDs resolves many products in one batched GetAll round trip.
// Absent ids are simply missing from the returned map.
func (r *ProductRepositoryFS) GetByIDs(ctx context.Context, productIDs []string) (map[string]*productdom.Product, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("product_repository_fs: firestore client is nil")
	}

	out := map[string]*productdom.Product{}
	refs := make([]*firestore.DocumentRef, 0, len(productIDs))
	for _, id := range productIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		refs = append(refs, r.col().Doc(id))
	}
	if len(refs) == 0 {
		return out, nil
	}

	snaps, err := r.Client.GetAll(ctx, refs)
	if err != nil {
		return nil, err
	}
	for _, snap := range snaps {
		if snap == nil || !snap.Exists() {
			continue
		}
		p, pErr := productFromSnapshot(snap)
		if pErr != nil {
			// one malformed doc must not break the whole batch
			continue
		}
		out[p.ID] = p
	}
	return out, nil
}

type productDoc struct {
	Name     string       `firestore:"name"`
	Variants []variantDoc `firestore:"variants"`
}

type variantDoc struct {
	ID    string `firestore:"id"`
	Name  string `firestore:"name"`
	Price int64  `firestore:"price"`
}

func productFromSnapshot(snap *firestore.DocumentSnapshot) (*productdom.Product, error) {
	var doc productDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, err
	}

	p := &productdom.Product{
		ID:       snap.Ref.ID,
		Name:     strings.TrimSpace(doc.Name),
		Variants: make([]productdom.Variant, 0, len(doc.Variants)),
	}
	for _, v := range doc.Variants {
		p.Variants = append(p.Variants, productdom.Variant{
			ID:    strings.TrimSpace(v.ID),
			Name:  strings.TrimSpace(v.Name),
			Price: v.Price,
		})
	}
	return p, nil
}
