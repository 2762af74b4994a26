package orders

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/db/sqliteschema"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

type orderFixture struct {
	conn      *gorm.DB
	svc       Service
	carts     cart.Service
	addresses address.Service
	shopper   uuid.UUID
	other     uuid.UUID
	addressID uuid.UUID
	boots     *models.Product
	socks     *models.Product
}

func setupOrders(t *testing.T) orderFixture {
	t.Helper()
	ctx := context.Background()
	conn, err := sqliteschema.OpenMemory(ctx, "orders")
	require.NoError(t, err)
	client := db.NewFromConn(conn)

	shopper, err := sqliteschema.SeedUser(ctx, conn, "shopper@example.com")
	require.NoError(t, err)
	other, err := sqliteschema.SeedUser(ctx, conn, "other@example.com")
	require.NoError(t, err)

	boots, err := sqliteschema.SeedProduct(ctx, conn, sqliteschema.ProductSeed{
		Brand: "Acme", Category: "Boots", Name: "Trail Boot", Price: "10.00", ImageURL: "/boot.jpg",
		Sizes: map[string]int{"9": 5},
	})
	require.NoError(t, err)
	socks, err := sqliteschema.SeedProduct(ctx, conn, sqliteschema.ProductSeed{
		Brand: "Acme", Category: "Socks", Name: "Wool Sock", Price: "5.00", ImageURL: "/sock.jpg",
		Sizes: map[string]int{"M": 2},
	})
	require.NoError(t, err)

	addresses, err := address.NewService(client, address.NewRepository(conn))
	require.NoError(t, err)
	addr, err := addresses.Create(ctx, shopper.ID, address.AddressInput{
		AddressLine1: "1 Main St", City: "Portland", State: "OR", PostalCode: "97201", Country: "US", IsDefault: true,
	})
	require.NoError(t, err)

	carts, err := cart.NewService(cart.NewRepository(conn))
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		DB:      client,
		Repo:    NewRepository(conn),
		Outbox:  outbox.NewService(outbox.NewRepository(conn), nil),
		Metrics: metrics.NewOrderMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)

	return orderFixture{
		conn: conn, svc: svc, carts: carts, addresses: addresses,
		shopper: shopper.ID, other: other.ID, addressID: addr.ID,
		boots: boots, socks: socks,
	}
}

func (f orderFixture) add(t *testing.T, product *models.Product, size string, qty int) {
	t.Helper()
	_, err := f.carts.AddItem(context.Background(), f.shopper, cart.AddItemRequest{ProductID: product.ID, Size: size, Quantity: qty})
	require.NoError(t, err)
}

func (f orderFixture) stock(t *testing.T, product *models.Product, size string) int {
	t.Helper()
	var row models.ProductSize
	require.NoError(t, f.conn.Where("product_id = ? AND size = ?", product.ID, size).First(&row).Error)
	return row.Stock
}

func (f orderFixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(model).Count(&n).Error)
	return n
}

func sumItems(items []OrderItemDTO) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func TestPlaceOrderCopiesCartAndReservesStock(t *testing.T) {
	f := setupOrders(t)
	ctx := context.Background()
	f.add(t, f.boots, "9", 2)
	f.add(t, f.socks, "M", 1)

	order, err := f.svc.Place(ctx, f.shopper, PlaceOrderRequest{AddressID: f.addressID})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.True(t, decimal.NewFromInt(25).Equal(order.TotalAmount), "total %s", order.TotalAmount)
	require.Len(t, order.Items, 2)
	assert.True(t, sumItems(order.Items).Equal(order.TotalAmount))

	byProduct := map[uuid.UUID]OrderItemDTO{}
	for _, item := range order.Items {
		byProduct[item.ProductID] = item
	}
	assert.Equal(t, 2, byProduct[f.boots.ID].Quantity)
	assert.True(t, decimal.NewFromInt(10).Equal(byProduct[f.boots.ID].Price))
	assert.Equal(t, "Trail Boot", byProduct[f.boots.ID].ProductName)
	assert.Equal(t, 1, byProduct[f.socks.ID].Quantity)
	assert.True(t, decimal.NewFromInt(5).Equal(byProduct[f.socks.ID].Price))

	require.NotNil(t, order.Address)
	assert.Equal(t, "1 Main St", order.Address.AddressLine1)

	assert.Equal(t, 3, f.stock(t, f.boots, "9"))
	assert.Equal(t, 1, f.stock(t, f.socks, "M"))

	current, err := f.carts.Get(ctx, f.shopper)
	require.NoError(t, err)
	assert.Empty(t, current.Items)

	var events []models.OutboxEvent
	require.NoError(t, f.conn.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventOrderPlaced, events[0].EventType)
	assert.Equal(t, order.ID, events[0].AggregateID)

	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(events[0].Payload, &envelope))
	var placed payloads.OrderPlacedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &placed))
	assert.Equal(t, f.addressID, placed.AddressID)
	assert.Len(t, placed.Items, 2)
}

func TestPlaceOrderRollsBackOnInsufficientStock(t *testing.T) {
	f := setupOrders(t)
	ctx := context.Background()
	f.add(t, f.boots, "9", 1)
	f.add(t, f.socks, "M", 3)

	_, err := f.svc.Place(ctx, f.shopper, PlaceOrderRequest{AddressID: f.addressID})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Equal(t, insufficientStockMessage, typed.Message())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, f.socks.ID, details["productId"])
	assert.Equal(t, "M", details["size"])

	assert.Equal(t, int64(0), f.count(t, &models.Order{}))
	assert.Equal(t, int64(0), f.count(t, &models.OrderItem{}))
	assert.Equal(t, int64(0), f.count(t, &models.OutboxEvent{}))
	assert.Equal(t, 5, f.stock(t, f.boots, "9"))
	assert.Equal(t, 2, f.stock(t, f.socks, "M"))

	current, err := f.carts.Get(ctx, f.shopper)
	require.NoError(t, err)
	assert.Len(t, current.Items, 2)
}

func TestPlaceOrderRequiresItemsAndOwnedAddress(t *testing.T) {
	f := setupOrders(t)
	ctx := context.Background()

	_, err := f.svc.Place(ctx, f.shopper, PlaceOrderRequest{AddressID: f.addressID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.carts.Get(ctx, f.shopper)
	require.NoError(t, err)
	_, err = f.svc.Place(ctx, f.shopper, PlaceOrderRequest{AddressID: f.addressID})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, emptyCartMessage, typed.Message())

	f.add(t, f.boots, "9", 1)
	_, err = f.svc.Place(ctx, f.other, PlaceOrderRequest{AddressID: f.addressID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Place(ctx, f.shopper, PlaceOrderRequest{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	assert.Equal(t, int64(0), f.count(t, &models.Order{}))
}

// unreadableOrders writes through the real repository but fails every read.
type unreadableOrders struct {
	Repository
}

func (u unreadableOrders) WithTx(tx *gorm.DB) Repository { return u.Repository.WithTx(tx) }

func (unreadableOrders) FindOrder(context.Context, uuid.UUID, uuid.UUID) (*orderRow, error) {
	return nil, errors.New("replica unavailable")
}

func (unreadableOrders) ListItems(context.Context, []uuid.UUID) ([]itemRow, error) {
	return nil, errors.New("replica unavailable")
}

func TestPlaceOrderReturnsCommittedOrderWithoutRereading(t *testing.T) {
	f := setupOrders(t)
	ctx := context.Background()
	f.add(t, f.boots, "9", 2)

	svc, err := NewService(ServiceParams{
		DB:      db.NewFromConn(f.conn),
		Repo:    unreadableOrders{Repository: NewRepository(f.conn)},
		Outbox:  outbox.NewService(outbox.NewRepository(f.conn), nil),
		Metrics: metrics.NewOrderMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)

	order, err := svc.Place(ctx, f.shopper, PlaceOrderRequest{AddressID: f.addressID})
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.NotEqual(t, uuid.Nil, order.Items[0].ID)
	assert.Equal(t, "Trail Boot", order.Items[0].ProductName)
	assert.Equal(t, "/boot.jpg", order.Items[0].ImageURL)
	require.NotNil(t, order.Address)
	assert.Equal(t, "Portland", order.Address.City)
	assert.Equal(t, int64(1), f.count(t, &models.Order{}))

	stored, err := f.svc.Get(ctx, f.shopper, order.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.Items[0].ID, order.Items[0].ID)
	assert.True(t, stored.TotalAmount.Equal(order.TotalAmount))
}

func TestPlaceOrderSecondCheckoutFindsEmptyCart(t *testing.T) {
	f := setupOrders(t)
	ctx := context.Background()
	f.add(t, f.boots, "9", 1)

	_, err := f.svc.Place(ctx, f.shopper, PlaceOrderRequest{AddressID: f.addressID})
	require.NoError(t, err)

	_, err = f.svc.Place(ctx, f.shopper, PlaceOrderRequest{AddressID: f.addressID})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, emptyCartMessage, typed.Message())
	assert.Equal(t, int64(1), f.count(t, &models.Order{}))
	assert.Equal(t, 4, f.stock(t, f.boots, "9"))
}

func TestGetOrderScopedToOwner(t *testing.T) {
	f := setupOrders(t)
	ctx := context.Background()
	f.add(t, f.boots, "9", 1)

	order, err := f.svc.Place(ctx, f.shopper, PlaceOrderRequest{AddressID: f.addressID})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.other, order.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	others, err := f.svc.List(ctx, f.other)
	require.NoError(t, err)
	assert.Empty(t, others)

	got, err := f.svc.Get(ctx, f.shopper, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestStoredPricesSurviveCatalogChanges(t *testing.T) {
	f := setupOrders(t)
	ctx := context.Background()
	f.add(t, f.boots, "9", 2)

	order, err := f.svc.Place(ctx, f.shopper, PlaceOrderRequest{AddressID: f.addressID})
	require.NoError(t, err)

	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", f.boots.ID).Update("price", "99.00").Error)

	got, err := f.svc.Get(ctx, f.shopper, order.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20).Equal(got.TotalAmount))
	require.Len(t, got.Items, 1)
	assert.True(t, decimal.NewFromInt(10).Equal(got.Items[0].Price))
}

func TestListNewestFirstAndDeletedAddress(t *testing.T) {
	f := setupOrders(t)
	ctx := context.Background()

	f.add(t, f.boots, "9", 1)
	first, err := f.svc.Place(ctx, f.shopper, PlaceOrderRequest{AddressID: f.addressID})
	require.NoError(t, err)
	f.add(t, f.socks, "M", 1)
	second, err := f.svc.Place(ctx, f.shopper, PlaceOrderRequest{AddressID: f.addressID})
	require.NoError(t, err)

	list, err := f.svc.List(ctx, f.shopper)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	require.Len(t, list[0].Items, 1)
	assert.Equal(t, f.socks.ID, list[0].Items[0].ProductID)

	require.NoError(t, f.addresses.Delete(ctx, f.shopper, f.addressID))

	got, err := f.svc.Get(ctx, f.shopper, first.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Address)
	assert.Len(t, got.Items, 1)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}
