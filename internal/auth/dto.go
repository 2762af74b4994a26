package auth

import (
	"github.com/angelmondragon/storefront-backend/internal/users"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email,max=255"`
	Password  string  `json:"password" validate:"required,min=8,max=128"`
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100"`
}

// LoginResponse carries the session tokens and the signed-in user. Tokens
// travel as cookies and are never serialised into the body.
type LoginResponse struct {
	AccessToken  string         `json:"-"`
	RefreshToken string         `json:"-"`
	User         *users.UserDTO `json:"user"`
}
