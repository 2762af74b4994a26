package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry. The storefront never writes products.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	BrandID     uuid.UUID       `gorm:"column:brand_id;type:uuid;not null"`
	CategoryID  uuid.UUID       `gorm:"column:category_id;type:uuid;not null"`
	Name        string          `gorm:"column:name;not null"`
	Description string          `gorm:"column:description;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	ImageURL    string          `gorm:"column:image_url;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// ProductSize tracks sellable stock for one size of a product.
type ProductSize struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Size      string    `gorm:"column:size;not null"`
	Stock     int       `gorm:"column:stock;not null"`
}

func (s *ProductSize) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}
