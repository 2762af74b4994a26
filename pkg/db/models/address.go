package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Address is a shipping address owned by a user. At most one per user is
// flagged as the default (ux_addresses_user_default).
type Address struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	AddressLine1 string    `gorm:"column:address_line1;not null"`
	AddressLine2 *string   `gorm:"column:address_line2"`
	City         string    `gorm:"column:city;not null"`
	State        string    `gorm:"column:state;not null"`
	PostalCode   string    `gorm:"column:postal_code;not null"`
	Country      string    `gorm:"column:country;not null"`
	IsDefault    bool      `gorm:"column:is_default;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}
