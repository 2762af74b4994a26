package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

const lineSelect = `ci.id AS id, ci.product_id AS product_id, p.name AS product_name,
	b.name AS brand_name, ci.size AS size, ci.quantity AS quantity,
	p.price AS price, p.image_url AS image_url`

// Repository exposes persistence operations for carts and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// EnsureCart returns the user's cart, creating it when missing. The unique
// user_id index makes concurrent first calls converge on one row.
func (r *Repository) EnsureCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	candidate := &models.Cart{UserID: userID}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(candidate).Error; err != nil {
		return nil, err
	}
	return r.FindByUser(ctx, userID)
}

// FindByUser loads the user's cart.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var row models.Cart
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// LockByUser loads the user's cart holding a row lock until the surrounding
// transaction ends. SQLite has no row locks and serialises writers instead.
func (r *Repository) LockByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	q := r.db.WithContext(ctx)
	if q.Dialector != nil && q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row models.Cart
	if err := q.Where("user_id = ?", userID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// SizeExists reports whether the product is sold in the given size.
func (r *Repository) SizeExists(ctx context.Context, productID uuid.UUID, size string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductSize{}).
		Where("product_id = ? AND size = ?", productID, size).
		Count(&n).Error
	return n > 0, err
}

// UpsertItem inserts a line or adds quantity to the existing
// (cart, product, size) line.
func (r *Repository) UpsertItem(ctx context.Context, cartID, productID uuid.UUID, size string, quantity int) (*models.CartItem, error) {
	item := &models.CartItem{CartID: cartID, ProductID: productID, Size: size, Quantity: quantity}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}, {Name: "size"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(item).Error
	if err != nil {
		return nil, err
	}

	var stored models.CartItem
	if err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ? AND size = ?", cartID, productID, size).
		First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// Lines returns the cart rows joined with product and brand data.
func (r *Repository) Lines(ctx context.Context, cartID uuid.UUID) ([]Line, error) {
	var lines []Line
	err := r.lineQuery(ctx).
		Where("ci.cart_id = ?", cartID).
		Order("ci.created_at ASC").
		Order("ci.id ASC").
		Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// Line loads one joined cart row.
func (r *Repository) Line(ctx context.Context, itemID uuid.UUID) (*Line, error) {
	var lines []Line
	if err := r.lineQuery(ctx).Where("ci.id = ?", itemID).Limit(1).Scan(&lines).Error; err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &lines[0], nil
}

// UpdateQuantityForUser sets the quantity of an item only when its cart
// belongs to userID.
func (r *Repository) UpdateQuantityForUser(ctx context.Context, userID, itemID uuid.UUID, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ? AND cart_id IN (?)", itemID, r.ownedCarts(userID)).
		Updates(map[string]any{"quantity": quantity, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteItemForUser removes an item only when its cart belongs to userID.
func (r *Repository) DeleteItemForUser(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND cart_id IN (?)", itemID, r.ownedCarts(userID)).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ClearItems removes every item in the cart.
func (r *Repository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

func (r *Repository) ownedCarts(userID uuid.UUID) *gorm.DB {
	return r.db.Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)
}

func (r *Repository) lineQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("cart_items AS ci").
		Select(lineSelect).
		Joins("JOIN products p ON p.id = ci.product_id").
		Joins("JOIN brands b ON b.id = p.brand_id")
}
