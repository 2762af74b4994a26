package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Brand groups products under a manufacturer label.
type Brand struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex"`
	LogoURL   *string   `gorm:"column:logo_url"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (b *Brand) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	return nil
}
