// internal/application/usecase/cart_usecase_test.go
package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	carttxdom "plaze/internal/domain/carttx"
	productdom "plaze/internal/domain/product"
)

func testCatalog() *fakeProductRepo {
	return newFakeProductRepo(
		&productdom.Product{
			ID:   "p1",
			Name: "Canvas Tote",
			Variants: []productdom.Variant{
				{ID: "v1", Name: "Natural", Price: 2500},
				{ID: "v2", Name: "Black", Price: 2700},
			},
		},
		&productdom.Product{
			ID:   "p2",
			Name: "Enamel Mug",
			Variants: []productdom.Variant{
				{ID: "v1", Name: "White", Price: 1200},
			},
		},
	)
}

func TestAddItem_FirstAddCreatesPendingTransaction(t *testing.T) {
	carts := newFakeCartRepo()
	uc := NewCartUsecaseWithClock(carts, testCatalog(), fixedClock{testNow})
	owner := carttxdom.UserOwner("user-1")

	snap, err := uc.AddItem(context.Background(), nil, "p1", "v1", owner)
	require.NoError(t, err)
	require.NotEmpty(t, snap.TransactionID)

	assert.Equal(t, 1, snap.ItemCount)
	assert.Equal(t, int64(2500), snap.TotalAmount)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "Canvas Tote", snap.Items[0].ProductName)
	assert.Equal(t, "Natural", snap.Items[0].VariantName)

	// the store agrees with the returned view
	stored, err := carts.GetLatestPending(context.Background(), owner)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, snap.TransactionID, stored.ID)
	assert.Equal(t, 1, stored.ItemCount)
	assert.Equal(t, int64(2500), stored.TotalAmount)
}

func TestAddItem_QuantityEqualsNumberOfAdds(t *testing.T) {
	carts := newFakeCartRepo()
	uc := NewCartUsecaseWithClock(carts, testCatalog(), fixedClock{testNow})
	owner := carttxdom.GuestOwner("sess-1")
	ctx := context.Background()

	snap, err := uc.AddItem(ctx, nil, "p1", "v1", owner)
	require.NoError(t, err)
	snap, err = uc.AddItem(ctx, snap, "p1", "v1", owner)
	require.NoError(t, err)
	snap, err = uc.AddItem(ctx, snap, "p1", "v2", owner)
	require.NoError(t, err)

	require.Len(t, snap.Items, 2)
	idx := snap.FindItem("p1", "v1")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, 2, snap.Items[idx].Quantity)
	assert.Equal(t, int64(5000), snap.Items[idx].LineTotal)

	assert.Equal(t, 3, snap.ItemCount)
	assert.Equal(t, int64(2500*2+2700), snap.TotalAmount)

	// all three adds landed on one transaction
	stored, err := carts.GetLatestPending(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, snap.TransactionID, stored.ID)
	assert.Equal(t, 3, stored.ItemCount)
	assert.Equal(t, snap.TotalAmount, stored.TotalAmount)
}

func TestAddItem_VariantNotFoundLeavesCartUnmodified(t *testing.T) {
	carts := newFakeCartRepo()
	uc := NewCartUsecaseWithClock(carts, testCatalog(), fixedClock{testNow})
	owner := carttxdom.UserOwner("user-1")

	_, err := uc.AddItem(context.Background(), nil, "p1", "v999", owner)
	assert.ErrorIs(t, err, ErrVariantNotFound)

	// resolution happens before the lazy create; no transaction appears
	assert.Empty(t, carts.txs)

	_, err = uc.AddItem(context.Background(), nil, "p999", "v1", owner)
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestAddItem_ValidatesInput(t *testing.T) {
	uc := NewCartUsecaseWithClock(newFakeCartRepo(), testCatalog(), fixedClock{testNow})

	_, err := uc.AddItem(context.Background(), nil, "", "v1", carttxdom.UserOwner("u"))
	assert.ErrorIs(t, err, ErrCartInvalidArgument)

	_, err = uc.AddItem(context.Background(), nil, "p1", "v1", carttxdom.Owner{})
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestAddItem_CreatePendingFailure(t *testing.T) {
	carts := newFakeCartRepo()
	carts.createErr = errors.New("boom")
	uc := NewCartUsecaseWithClock(carts, testCatalog(), fixedClock{testNow})

	_, err := uc.AddItem(context.Background(), nil, "p1", "v1", carttxdom.UserOwner("u"))
	assert.ErrorIs(t, err, ErrTransactionCreateFailed)
}

func TestAddItem_AddLineFailure(t *testing.T) {
	carts := newFakeCartRepo()
	carts.addLineErr = errors.New("contention")
	uc := NewCartUsecaseWithClock(carts, testCatalog(), fixedClock{testNow})

	_, err := uc.AddItem(context.Background(), nil, "p1", "v1", carttxdom.UserOwner("u"))
	assert.ErrorIs(t, err, ErrCartWriteFailed)
}

func TestRemoveItem_NoPendingIsNoop(t *testing.T) {
	carts := newFakeCartRepo()
	uc := NewCartUsecaseWithClock(carts, testCatalog(), fixedClock{testNow})

	err := uc.RemoveItem(context.Background(), carttxdom.UserOwner("user-1"), "p1", "v1")
	assert.NoError(t, err)
}

func TestRemoveItem_DecrementsAggregates(t *testing.T) {
	carts := newFakeCartRepo()
	uc := NewCartUsecaseWithClock(carts, testCatalog(), fixedClock{testNow})
	owner := carttxdom.UserOwner("user-1")
	ctx := context.Background()

	snap, err := uc.AddItem(ctx, nil, "p1", "v1", owner)
	require.NoError(t, err)
	snap, err = uc.AddItem(ctx, snap, "p1", "v1", owner)
	require.NoError(t, err)
	_, err = uc.AddItem(ctx, snap, "p2", "v1", owner)
	require.NoError(t, err)

	// removing the doubled line drops both units and their amount
	require.NoError(t, uc.RemoveItem(ctx, owner, "p1", "v1"))

	stored, err := carts.GetLatestPending(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ItemCount)
	assert.Equal(t, int64(1200), stored.TotalAmount)

	// removing an absent line stays a no-op
	require.NoError(t, uc.RemoveItem(ctx, owner, "p1", "v1"))
	stored, _ = carts.GetLatestPending(ctx, owner)
	assert.Equal(t, 1, stored.ItemCount)
}
