package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	FirstName   *string    `json:"firstName"`
	LastName    *string    `json:"lastName"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	FirstName    *string
	LastName     *string
}

// UpdateProfileRequest is the PUT /user body. Nil fields are left untouched;
// empty names clear the stored value.
type UpdateProfileRequest struct {
	FirstName       *string `json:"firstName" validate:"omitempty,max=100"`
	LastName        *string `json:"lastName" validate:"omitempty,max=100"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     string  `json:"newPassword" validate:"omitempty,min=8"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:        NormalizeEmail(c.Email),
		PasswordHash: c.PasswordHash,
		FirstName:    nilIfBlank(c.FirstName),
		LastName:     nilIfBlank(c.LastName),
	}
}

// NormalizeEmail is the canonical stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nilIfBlank(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
