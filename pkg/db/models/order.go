package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Order is the immutable record of a placed cart. AddressID becomes nil when
// the shopper later deletes the address.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	AddressID   *uuid.UUID        `gorm:"column:address_id;type:uuid"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null"`
	TotalAmount decimal.Decimal   `gorm:"column:total_amount;type:numeric(10,2);not null"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// OrderItem copies the unit price at purchase time.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Size      string          `gorm:"column:size;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
