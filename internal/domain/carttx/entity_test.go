// internal/domain/carttx/entity_test.go
package carttx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerValidate(t *testing.T) {
	assert.NoError(t, UserOwner("user-1").Validate())
	assert.NoError(t, GuestOwner("sess-1").Validate())

	assert.ErrorIs(t, Owner{}.Validate(), ErrInvalidOwner)
	assert.ErrorIs(t, Owner{UserID: "  "}.Validate(), ErrInvalidOwner)

	both := Owner{UserID: "user-1", GuestSessionID: "sess-1"}
	assert.ErrorIs(t, both.Validate(), ErrInvalidOwner)
}

func TestOwnerIsZero(t *testing.T) {
	assert.True(t, Owner{}.IsZero())
	assert.True(t, Owner{UserID: " "}.IsZero())
	assert.False(t, UserOwner("u").IsZero())
	assert.False(t, GuestOwner("g").IsZero())
}

func TestNewPending(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tx, err := NewPending(UserOwner("user-1"), now)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, tx.Status)
	assert.Equal(t, "user-1", tx.UserID)
	assert.Empty(t, tx.GuestSessionID)
	assert.Zero(t, tx.ItemCount)
	assert.Zero(t, tx.TotalAmount)
	assert.Equal(t, now, tx.CreatedAt)
	assert.True(t, tx.IsPending())

	_, err = NewPending(Owner{}, now)
	assert.ErrorIs(t, err, ErrInvalidOwner)
}

func TestTransactionOwner(t *testing.T) {
	user := &Transaction{UserID: "user-1"}
	assert.Equal(t, UserOwner("user-1"), user.Owner())

	guest := &Transaction{GuestSessionID: "sess-1"}
	assert.Equal(t, GuestOwner("sess-1"), guest.Owner())
}

func TestLineItemLineTotal(t *testing.T) {
	li := LineItem{Price: 2500, Quantity: 3}
	assert.Equal(t, int64(7500), li.LineTotal())
}

func TestLineItemValidate(t *testing.T) {
	ok := LineItem{ProductID: "p1", VariantID: "v1", Price: 100, Quantity: 1}
	assert.NoError(t, ok.Validate())

	assert.ErrorIs(t, LineItem{VariantID: "v1", Price: 100, Quantity: 1}.Validate(), ErrInvalidLineItem)
	assert.ErrorIs(t, LineItem{ProductID: "p1", VariantID: "v1", Price: 100, Quantity: 0}.Validate(), ErrInvalidLineItem)
	assert.ErrorIs(t, LineItem{ProductID: "p1", VariantID: "v1", Price: -1, Quantity: 1}.Validate(), ErrInvalidLineItem)
}

func TestLineKey(t *testing.T) {
	assert.Equal(t, "p1__v1", LineKey("p1", "v1"))
	assert.Equal(t, "p1__v1", LineKey(" p1 ", " v1 "))
}

func TestEmptySnapshot(t *testing.T) {
	snap := EmptySnapshot()
	assert.True(t, snap.IsEmpty())
	assert.Equal(t, StatusPending, snap.Status)
	assert.NotNil(t, snap.Items)
	assert.Len(t, snap.Items, 0)
}

func TestSnapshotFindItem(t *testing.T) {
	snap := &Snapshot{Items: []SnapshotItem{
		{ProductID: "p1", VariantID: "v1"},
		{ProductID: "p1", VariantID: "v2"},
	}}
	assert.Equal(t, 1, snap.FindItem("p1", "v2"))
	assert.Equal(t, -1, snap.FindItem("p2", "v1"))
}
