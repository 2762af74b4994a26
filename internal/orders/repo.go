package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

const orderSelect = `o.id AS id, o.status AS status, o.total_amount AS total_amount,
	o.created_at AS created_at, o.address_id AS address_id,
	a.address_line1 AS address_line1, a.address_line2 AS address_line2,
	a.city AS city, a.state AS state, a.postal_code AS postal_code, a.country AS country`

const itemSelect = `oi.id AS id, oi.order_id AS order_id, oi.product_id AS product_id,
	p.name AS product_name, oi.size AS size, oi.quantity AS quantity,
	oi.price AS price, p.image_url AS image_url`

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) ReserveStock(ctx context.Context, productID uuid.UUID, size string, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ProductSize{}).
		Where("product_id = ? AND size = ? AND stock >= ?", productID, size, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListOrders(ctx context.Context, userID uuid.UUID) ([]orderRow, error) {
	var rows []orderRow
	err := r.orderQuery(ctx).
		Where("o.user_id = ?", userID).
		Order("o.created_at DESC").
		Order("o.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindOrder(ctx context.Context, userID, orderID uuid.UUID) (*orderRow, error) {
	var rows []orderRow
	err := r.orderQuery(ctx).
		Where("o.id = ? AND o.user_id = ?", orderID, userID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *repository) ListItems(ctx context.Context, orderIDs []uuid.UUID) ([]itemRow, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var rows []itemRow
	err := r.db.WithContext(ctx).
		Table("order_items AS oi").
		Select(itemSelect).
		Joins("JOIN products p ON p.id = oi.product_id").
		Where("oi.order_id IN ?", orderIDs).
		Order("oi.created_at ASC").
		Order("oi.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) orderQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("orders AS o").
		Select(orderSelect).
		Joins("LEFT JOIN addresses a ON a.id = o.address_id")
}
