package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const productSelect = `p.id AS id, p.name AS name, p.description AS description,
	p.brand_id AS brand_id, b.name AS brand_name,
	p.category_id AS category_id, c.name AS category_name,
	p.price AS price, p.image_url AS image_url`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Repository runs read-only catalog queries.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the catalog repository to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListProducts returns one page of filtered products and the unpaged total.
func (r *Repository) ListProducts(ctx context.Context, filters ListFilters, page pagination.Page) ([]ProductDTO, int64, error) {
	var total int64
	if err := r.filtered(ctx, filters).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []ProductDTO
	err := r.filtered(ctx, filters).
		Select(productSelect).
		Order("p.name ASC").
		Order("p.id ASC").
		Limit(page.Limit).
		Offset(page.Offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// RandomProducts returns up to limit products in random order.
func (r *Repository) RandomProducts(ctx context.Context, limit int) ([]ProductDTO, error) {
	var rows []ProductDTO
	err := r.base(ctx).
		Select(productSelect).
		Order("RANDOM()").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindProduct loads a single joined product.
func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	var rows []ProductDTO
	if err := r.base(ctx).Select(productSelect).Where("p.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

// ListSizes returns the sizes of a product ordered by size.
func (r *Repository) ListSizes(ctx context.Context, productID uuid.UUID) ([]SizeDTO, error) {
	var rows []SizeDTO
	err := r.db.WithContext(ctx).
		Model(&models.ProductSize{}).
		Select("size, stock").
		Where("product_id = ?", productID).
		Order("size ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) ListBrands(ctx context.Context) ([]models.Brand, error) {
	var rows []models.Brand
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) base(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("products AS p").
		Joins("JOIN brands b ON b.id = p.brand_id").
		Joins("JOIN categories c ON c.id = p.category_id")
}

func (r *Repository) filtered(ctx context.Context, filters ListFilters) *gorm.DB {
	q := r.base(ctx)
	if filters.BrandID != nil {
		q = q.Where("p.brand_id = ?", *filters.BrandID)
	}
	if filters.CategoryID != nil {
		q = q.Where("p.category_id = ?", *filters.CategoryID)
	}
	if term := strings.TrimSpace(filters.Search); term != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		q = q.Where(`(LOWER(p.name) LIKE ? ESCAPE '\' OR LOWER(p.description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return q
}
