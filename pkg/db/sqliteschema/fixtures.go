package sqliteschema

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ProductSeed describes one catalog product for local databases and tests.
type ProductSeed struct {
	Brand       string
	Category    string
	Name        string
	Description string
	Price       string
	ImageURL    string
	Sizes       map[string]int
}

// SeedUser inserts a shopper with a placeholder password hash.
func SeedUser(ctx context.Context, conn *gorm.DB, email string) (*models.User, error) {
	user := &models.User{Email: email, PasswordHash: "seeded"}
	if err := conn.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("seed user %s: %w", email, err)
	}
	return user, nil
}

// SeedProduct inserts a product with its sizes, creating the brand and
// category by name when they do not exist yet.
func SeedProduct(ctx context.Context, conn *gorm.DB, seed ProductSeed) (*models.Product, error) {
	price, err := decimal.NewFromString(seed.Price)
	if err != nil {
		return nil, fmt.Errorf("seed product %s price: %w", seed.Name, err)
	}

	brand := models.Brand{Name: seed.Brand}
	if err := conn.WithContext(ctx).Where("name = ?", seed.Brand).FirstOrCreate(&brand).Error; err != nil {
		return nil, fmt.Errorf("seed brand %s: %w", seed.Brand, err)
	}
	category := models.Category{Name: seed.Category}
	if err := conn.WithContext(ctx).Where("name = ?", seed.Category).FirstOrCreate(&category).Error; err != nil {
		return nil, fmt.Errorf("seed category %s: %w", seed.Category, err)
	}

	product := &models.Product{
		BrandID:     brand.ID,
		CategoryID:  category.ID,
		Name:        seed.Name,
		Description: seed.Description,
		Price:       price,
		ImageURL:    seed.ImageURL,
	}
	if err := conn.WithContext(ctx).Create(product).Error; err != nil {
		return nil, fmt.Errorf("seed product %s: %w", seed.Name, err)
	}

	sizes := make([]string, 0, len(seed.Sizes))
	for size := range seed.Sizes {
		sizes = append(sizes, size)
	}
	sort.Strings(sizes)
	for _, size := range sizes {
		row := &models.ProductSize{ProductID: product.ID, Size: size, Stock: seed.Sizes[size]}
		if err := conn.WithContext(ctx).Create(row).Error; err != nil {
			return nil, fmt.Errorf("seed size %s/%s: %w", seed.Name, size, err)
		}
	}
	return product, nil
}

// DemoCatalog is the small catalog loaded into fresh sqlite databases.
var DemoCatalog = []ProductSeed{
	{Brand: "Nike", Category: "Running", Name: "Air Zoom Pegasus", Description: "Daily trainer with a responsive foam midsole.", Price: "129.99", ImageURL: "/images/pegasus.jpg", Sizes: map[string]int{"8": 10, "9": 12, "10": 8}},
	{Brand: "Adidas", Category: "Running", Name: "Ultraboost Light", Description: "Lightweight cushioning for long runs.", Price: "189.99", ImageURL: "/images/ultraboost.jpg", Sizes: map[string]int{"8": 5, "9": 7, "11": 3}},
	{Brand: "New Balance", Category: "Lifestyle", Name: "550", Description: "Retro basketball silhouette in leather.", Price: "109.99", ImageURL: "/images/nb550.jpg", Sizes: map[string]int{"9": 6, "10": 6}},
	{Brand: "Converse", Category: "Lifestyle", Name: "Chuck 70 High", Description: "Canvas high top with vintage details.", Price: "85.00", ImageURL: "/images/chuck70.jpg", Sizes: map[string]int{"7": 4, "8": 9, "9": 9}},
}

// SeedDemoCatalog loads DemoCatalog when the products table is empty.
func SeedDemoCatalog(ctx context.Context, conn *gorm.DB) error {
	var n int64
	if err := conn.WithContext(ctx).Model(&models.Product{}).Count(&n).Error; err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, seed := range DemoCatalog {
		if _, err := SeedProduct(ctx, conn, seed); err != nil {
			return err
		}
	}
	return nil
}
