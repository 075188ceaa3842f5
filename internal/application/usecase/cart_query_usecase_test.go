// internal/application/usecase/cart_query_usecase_test.go
package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	carttxdom "plaze/internal/domain/carttx"
)

func TestFetchCart_NoIdentity(t *testing.T) {
	uc := NewCartQueryUsecase(newFakeCartRepo(), testCatalog())

	_, err := uc.FetchCart(context.Background(), carttxdom.Owner{})
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestFetchCart_EmptyCartIsNotAnError(t *testing.T) {
	uc := NewCartQueryUsecase(newFakeCartRepo(), testCatalog())

	snap, err := uc.FetchCart(context.Background(), carttxdom.UserOwner("user-1"))
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
	assert.Equal(t, carttxdom.StatusPending, snap.Status)
	assert.Empty(t, snap.Items)
	assert.Zero(t, snap.TotalAmount)
}

func TestFetchCart_EnrichesDisplayNames(t *testing.T) {
	carts := newFakeCartRepo()
	catalog := testCatalog()
	cartUC := NewCartUsecaseWithClock(carts, catalog, fixedClock{testNow})
	owner := carttxdom.GuestOwner("sess-1")
	ctx := context.Background()

	snap, err := cartUC.AddItem(ctx, nil, "p1", "v2", owner)
	require.NoError(t, err)
	_, err = cartUC.AddItem(ctx, snap, "p2", "v1", owner)
	require.NoError(t, err)

	queryUC := NewCartQueryUsecase(carts, catalog)
	got, err := queryUC.FetchCart(ctx, owner)
	require.NoError(t, err)

	require.Len(t, got.Items, 2)
	byKey := map[string]carttxdom.SnapshotItem{}
	for _, it := range got.Items {
		byKey[carttxdom.LineKey(it.ProductID, it.VariantID)] = it
	}
	assert.Equal(t, "Canvas Tote", byKey["p1__v2"].ProductName)
	assert.Equal(t, "Black", byKey["p1__v2"].VariantName)
	assert.Equal(t, "Enamel Mug", byKey["p2__v1"].ProductName)
	assert.Equal(t, int64(2700+1200), got.TotalAmount)
	assert.Equal(t, 2, got.ItemCount)
}

func TestFetchCart_NewestPendingWins(t *testing.T) {
	carts := newFakeCartRepo()
	catalog := testCatalog()
	owner := carttxdom.UserOwner("user-1")
	ctx := context.Background()

	// an abandoned pending from an hour ago, holding one mug
	staleUC := NewCartUsecaseWithClock(carts, catalog, fixedClock{testNow.Add(-time.Hour)})
	staleSnap, err := staleUC.AddItem(ctx, nil, "p2", "v1", owner)
	require.NoError(t, err)

	// a fresh pending for the same owner; get a second transaction by
	// creating it directly rather than through AddItem (which would reuse
	// the existing pending)
	fresh, err := carttxdom.NewPending(owner, testNow)
	require.NoError(t, err)
	fresh, err = carts.CreatePending(ctx, fresh)
	require.NoError(t, err)
	freshUC := NewCartUsecaseWithClock(carts, catalog, fixedClock{testNow})
	require.NoError(t, carts.AddLine(ctx, fresh.ID, carttxdom.LineItem{
		ProductID: "p1", VariantID: "v1", Price: 2500, Quantity: 1,
		CreatedAt: testNow, UpdatedAt: testNow,
	}, testNow))

	queryUC := NewCartQueryUsecase(carts, catalog)
	got, err := queryUC.FetchCart(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, got.TransactionID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "p1", got.Items[0].ProductID)

	// removal goes to the newest pending too; the stale one is never
	// merged, mutated, or deleted
	require.NoError(t, freshUC.RemoveItem(ctx, owner, "p1", "v1"))
	stale := carts.txs[staleSnap.TransactionID]
	require.NotNil(t, stale)
	assert.Equal(t, carttxdom.StatusPending, stale.Status)
	assert.Equal(t, 1, stale.ItemCount)
	assert.Equal(t, int64(1200), stale.TotalAmount)
	assert.Len(t, carts.items[staleSnap.TransactionID], 1)

	got, err = queryUC.FetchCart(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, got.TransactionID)
	assert.Empty(t, got.Items)
	assert.Zero(t, got.TotalAmount)
}

func TestFetchCart_DanglingProductGetsPlaceholders(t *testing.T) {
	carts := newFakeCartRepo()
	catalog := testCatalog()
	cartUC := NewCartUsecaseWithClock(carts, catalog, fixedClock{testNow})
	owner := carttxdom.UserOwner("user-1")
	ctx := context.Background()

	_, err := cartUC.AddItem(ctx, nil, "p2", "v1", owner)
	require.NoError(t, err)

	// product removed from the catalog after the add
	delete(catalog.products, "p2")

	queryUC := NewCartQueryUsecase(carts, catalog)
	got, err := queryUC.FetchCart(ctx, owner)
	require.NoError(t, err)

	require.Len(t, got.Items, 1)
	assert.Equal(t, carttxdom.UnknownProductName, got.Items[0].ProductName)
	assert.Equal(t, carttxdom.UnknownVariantName, got.Items[0].VariantName)
	// captured price survives the catalog deletion
	assert.Equal(t, int64(1200), got.Items[0].Price)
}

func TestFetchCart_CatalogLookupFailureDegradesToPlaceholders(t *testing.T) {
	carts := newFakeCartRepo()
	catalog := testCatalog()
	cartUC := NewCartUsecaseWithClock(carts, catalog, fixedClock{testNow})
	owner := carttxdom.UserOwner("user-1")
	ctx := context.Background()

	_, err := cartUC.AddItem(ctx, nil, "p1", "v1", owner)
	require.NoError(t, err)

	catalog.getErr = errors.New("catalog unavailable")

	queryUC := NewCartQueryUsecase(carts, catalog)
	got, err := queryUC.FetchCart(ctx, owner)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, carttxdom.UnknownProductName, got.Items[0].ProductName)
}
