// internal/domain/product/entity.go
package product

import (
	"errors"
	"strings"
)

var ErrInvalidProduct = errors.New("product: invalid")

// Variant is one purchasable option of a product. Price is in minor
// currency units.
type Variant struct {
	ID    string `firestore:"id" json:"id"`
	Name  string `firestore:"name" json:"name"`
	Price int64  `firestore:"price" json:"price"`
}

// Product is the minimal catalog view the transaction core needs: a display
// name and the variants with their current prices. The full catalog document
// carries much more; none of it is read here.
type Product struct {
	ID       string    `firestore:"-" json:"id"`
	Name     string    `firestore:"name" json:"name"`
	Variants []Variant `firestore:"variants" json:"variants"`
}

func (p *Product) Validate() error {
	if p == nil || strings.TrimSpace(p.Name) == "" {
		return ErrInvalidProduct
	}
	return nil
}

// FindVariant returns the variant with id, or nil.
func (p *Product) FindVariant(variantID string) *Variant {
	if p == nil {
		return nil
	}
	vid := strings.TrimSpace(variantID)
	for i := range p.Variants {
		if p.Variants[i].ID == vid {
			return &p.Variants[i]
		}
	}
	return nil
}
