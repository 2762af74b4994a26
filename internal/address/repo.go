package address

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists shipping addresses. Every lookup is scoped by owner.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided DB handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListByUser returns the default address first, then the rest oldest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC").
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindForUser loads one address owned by userID.
func (r *Repository) FindForUser(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	var row models.Address
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts a new address.
func (r *Repository) Create(ctx context.Context, row *models.Address) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// Update replaces the writable columns of an owned address and reports
// whether a row matched.
func (r *Repository) Update(ctx context.Context, userID, id uuid.UUID, fields map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ClearDefault unsets the default flag on every address of the user except keepID.
func (r *Repository) ClearDefault(ctx context.Context, userID uuid.UUID, keepID *uuid.UUID) error {
	q := r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true)
	if keepID != nil {
		q = q.Where("id <> ?", *keepID)
	}
	return q.UpdateColumn("is_default", false).Error
}

// MarkDefault flags an owned address as the default.
func (r *Repository) MarkDefault(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("id = ? AND user_id = ?", id, userID).
		UpdateColumn("is_default", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete removes an owned address and reports whether a row matched.
func (r *Repository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Address{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
