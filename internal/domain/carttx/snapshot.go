// internal/domain/carttx/snapshot.go
package carttx

// Display fallbacks for line items whose product or variant was deleted
// after being added to the cart. Dangling references are tolerated, not
// treated as fatal.
const (
	UnknownProductName = "Unknown Product"
	UnknownVariantName = "Unknown Variant"
)

// SnapshotItem is a display-ready line item.
type SnapshotItem struct {
	ProductID   string `json:"productId"`
	VariantID   string `json:"variantId"`
	ProductName string `json:"productName"`
	VariantName string `json:"variantName"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	LineTotal   int64  `json:"lineTotal"`
}

// Snapshot is a read-optimized view of the current pending cart.
// A buyer with no pending transaction gets the zero snapshot
// (TransactionID empty, no items), never an error.
type Snapshot struct {
	TransactionID string         `json:"transactionId"`
	Status        Status         `json:"status"`
	ItemCount     int            `json:"itemCount"`
	TotalAmount   int64          `json:"totalAmount"`
	Items         []SnapshotItem `json:"items"`
}

// EmptySnapshot returns the canonical "no pending cart" view.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Status: StatusPending,
		Items:  []SnapshotItem{},
	}
}

func (s *Snapshot) IsEmpty() bool {
	return s == nil || s.TransactionID == ""
}

// FindItem returns the index of (productID, variantID) in Items, or -1.
func (s *Snapshot) FindItem(productID, variantID string) int {
	if s == nil {
		return -1
	}
	for i := range s.Items {
		if s.Items[i].ProductID == productID && s.Items[i].VariantID == variantID {
			return i
		}
	}
	return -1
}
