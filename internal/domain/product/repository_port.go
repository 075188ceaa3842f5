// internal/domain/product/repository_port.go
package product

import "context"

// Repository is a read-only catalog port.
//
// Storage recommendation (Firestore):
// - collection: products
// - docId: productId
// - fields: name, variants([]{id, name, price})
type Repository interface {
	// GetByID returns the product, or (nil, nil) when absent.
	GetByID(ctx context.Context, productID string) (*Product, error)

	// GetByIDs performs one batched lookup ("value in set") and returns the
	// products found, keyed by id. Absent ids are simply missing from the
	// map; callers fall back to display placeholders.
	GetByIDs(ctx context.Context, productIDs []string) (map[string]*Product, error)
}
