package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// ListFilters are the browse knobs accepted by GET /products.
type ListFilters struct {
	BrandID    *uuid.UUID
	CategoryID *uuid.UUID
	Search     string
	Pagination pagination.Params
}

// ProductDTO is a product joined with its brand and category names.
type ProductDTO struct {
	ID           uuid.UUID       `json:"id" gorm:"column:id"`
	Name         string          `json:"name" gorm:"column:name"`
	Description  string          `json:"description" gorm:"column:description"`
	BrandID      uuid.UUID       `json:"brandId" gorm:"column:brand_id"`
	BrandName    string          `json:"brandName" gorm:"column:brand_name"`
	CategoryID   uuid.UUID       `json:"categoryId" gorm:"column:category_id"`
	CategoryName string          `json:"categoryName" gorm:"column:category_name"`
	Price        decimal.Decimal `json:"price" gorm:"column:price"`
	ImageURL     string          `json:"imageUrl" gorm:"column:image_url"`
}

// SizeDTO is the stock available for one size.
type SizeDTO struct {
	Size  string `json:"size" gorm:"column:size"`
	Stock int    `json:"stock" gorm:"column:stock"`
}

// ProductDetailDTO adds the size breakdown to a product.
type ProductDetailDTO struct {
	ProductDTO
	Sizes []SizeDTO `json:"sizes"`
}

// ProductList is one page of browse results.
type ProductList struct {
	Products []ProductDTO `json:"products"`
	Total    int64        `json:"total"`
	Limit    int          `json:"limit"`
	Offset   int          `json:"offset"`
}

type BrandDTO struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	LogoURL *string   `json:"logoUrl"`
}

type CategoryDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
