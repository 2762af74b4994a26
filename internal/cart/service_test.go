package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/db/sqliteschema"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type cartFixture struct {
	conn    *gorm.DB
	svc     Service
	shopper uuid.UUID
	other   uuid.UUID
	boots   *models.Product
	socks   *models.Product
}

func setupCart(t *testing.T) cartFixture {
	t.Helper()
	ctx := context.Background()
	conn, err := sqliteschema.OpenMemory(ctx, "cart")
	require.NoError(t, err)

	shopper, err := sqliteschema.SeedUser(ctx, conn, "shopper@example.com")
	require.NoError(t, err)
	other, err := sqliteschema.SeedUser(ctx, conn, "other@example.com")
	require.NoError(t, err)

	boots, err := sqliteschema.SeedProduct(ctx, conn, sqliteschema.ProductSeed{
		Brand: "Acme", Category: "Boots", Name: "Trail Boot", Price: "10.00", ImageURL: "/boot.jpg",
		Sizes: map[string]int{"9": 5, "10": 5},
	})
	require.NoError(t, err)
	socks, err := sqliteschema.SeedProduct(ctx, conn, sqliteschema.ProductSeed{
		Brand: "Acme", Category: "Socks", Name: "Wool Sock", Price: "5.00",
		Sizes: map[string]int{"M": 20},
	})
	require.NoError(t, err)

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return cartFixture{conn: conn, svc: svc, shopper: shopper.ID, other: other.ID, boots: boots, socks: socks}
}

func (f cartFixture) itemCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(&models.CartItem{}).Count(&n).Error)
	return n
}

func TestGetCreatesEmptyCartOnce(t *testing.T) {
	f := setupCart(t)
	ctx := context.Background()

	first, err := f.svc.Get(ctx, f.shopper)
	require.NoError(t, err)
	assert.Empty(t, first.Items)
	assert.True(t, first.Total.IsZero())

	second, err := f.svc.Get(ctx, f.shopper)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var carts int64
	require.NoError(t, f.conn.Model(&models.Cart{}).Count(&carts).Error)
	assert.Equal(t, int64(1), carts)
}

func TestAddSameLineTwiceSumsQuantity(t *testing.T) {
	f := setupCart(t)
	ctx := context.Background()

	first, err := f.svc.AddItem(ctx, f.shopper, AddItemRequest{ProductID: f.boots.ID, Size: "9", Quantity: 1})
	require.NoError(t, err)
	second, err := f.svc.AddItem(ctx, f.shopper, AddItemRequest{ProductID: f.boots.ID, Size: "9", Quantity: 2})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, second.Quantity)
	assert.Equal(t, "Trail Boot", second.ProductName)
	assert.Equal(t, "Acme", second.BrandName)
	assert.Equal(t, int64(1), f.itemCount(t))

	_, err = f.svc.AddItem(ctx, f.shopper, AddItemRequest{ProductID: f.boots.ID, Size: "10", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.itemCount(t))
}

func TestCartTotalUsesCurrentPrices(t *testing.T) {
	f := setupCart(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, f.shopper, AddItemRequest{ProductID: f.boots.ID, Size: "9", Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, f.shopper, AddItemRequest{ProductID: f.socks.ID, Size: "M", Quantity: 1})
	require.NoError(t, err)

	cart, err := f.svc.Get(ctx, f.shopper)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, "25", cart.Total.String())

	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", f.socks.ID).Update("price", "7.50").Error)
	cart, err = f.svc.Get(ctx, f.shopper)
	require.NoError(t, err)
	assert.Equal(t, "27.5", cart.Total.String())
}

func TestAddItemRejectsUnknownSize(t *testing.T) {
	f := setupCart(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, f.shopper, AddItemRequest{ProductID: f.boots.ID, Size: "14", Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.AddItem(ctx, f.shopper, AddItemRequest{ProductID: uuid.New(), Size: "9", Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.AddItem(ctx, f.shopper, AddItemRequest{ProductID: f.boots.ID, Size: "9", Quantity: 0})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, int64(0), f.itemCount(t))
}

func TestUpdateItemNonPositiveRemovesLine(t *testing.T) {
	f := setupCart(t)
	ctx := context.Background()

	boot, err := f.svc.AddItem(ctx, f.shopper, AddItemRequest{ProductID: f.boots.ID, Size: "9", Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, f.shopper, AddItemRequest{ProductID: f.socks.ID, Size: "M", Quantity: 1})
	require.NoError(t, err)

	updated, err := f.svc.UpdateItem(ctx, f.shopper, boot.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)
	assert.Equal(t, int64(2), f.itemCount(t))

	removed, err := f.svc.UpdateItem(ctx, f.shopper, boot.ID, 0)
	require.NoError(t, err)
	assert.Nil(t, removed)
	assert.Equal(t, int64(1), f.itemCount(t))
}

func TestOtherUsersItemsAreNotFound(t *testing.T) {
	f := setupCart(t)
	ctx := context.Background()

	boot, err := f.svc.AddItem(ctx, f.shopper, AddItemRequest{ProductID: f.boots.ID, Size: "9", Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, f.other)
	require.NoError(t, err)

	_, err = f.svc.UpdateItem(ctx, f.other, boot.ID, 5)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.UpdateItem(ctx, f.other, boot.ID, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	err = f.svc.RemoveItem(ctx, f.other, boot.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	cart, err := f.svc.Get(ctx, f.shopper)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestRemoveAndClear(t *testing.T) {
	f := setupCart(t)
	ctx := context.Background()

	boot, err := f.svc.AddItem(ctx, f.shopper, AddItemRequest{ProductID: f.boots.ID, Size: "9", Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, f.shopper, AddItemRequest{ProductID: f.socks.ID, Size: "M", Quantity: 3})
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveItem(ctx, f.shopper, boot.ID))
	assert.True(t, pkgerrors.IsCode(f.svc.RemoveItem(ctx, f.shopper, boot.ID), pkgerrors.CodeNotFound))

	require.NoError(t, f.svc.Clear(ctx, f.shopper))
	assert.Equal(t, int64(0), f.itemCount(t))
	require.NoError(t, f.svc.Clear(ctx, f.other))
}

func TestLockByUserInsideTransaction(t *testing.T) {
	f := setupCart(t)
	ctx := context.Background()
	created, err := f.svc.Get(ctx, f.shopper)
	require.NoError(t, err)

	err = f.conn.Transaction(func(tx *gorm.DB) error {
		locked, err := NewRepository(tx).LockByUser(ctx, f.shopper)
		require.NoError(t, err)
		assert.Equal(t, created.ID, locked.ID)

		_, err = NewRepository(tx).LockByUser(ctx, f.other)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		return nil
	})
	require.NoError(t, err)
}
