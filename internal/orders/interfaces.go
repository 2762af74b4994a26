package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
)

// Repository defines persistence operations for the order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	// ReserveStock decrements stock only when enough remains and reports
	// whether the row was updated.
	ReserveStock(ctx context.Context, productID uuid.UUID, size string, quantity int) (bool, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]orderRow, error)
	FindOrder(ctx context.Context, userID, orderID uuid.UUID) (*orderRow, error)
	ListItems(ctx context.Context, orderIDs []uuid.UUID) ([]itemRow, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}
