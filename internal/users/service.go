package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

// Service backs the /user profile endpoints.
type Service interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserDTO, error)
}

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) (bool, error)
}

type service struct {
	repo        userStore
	passwordCfg config.PasswordConfig
}

func NewService(repo userStore, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, errors.New("user repository is required")
	}
	return &service{repo: repo, passwordCfg: passwordCfg}, nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserDTO, error) {
	if req.NewPassword != "" && req.CurrentPassword == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "current password is required to set a new password").
			WithDetails(map[string]string{"currentPassword": "required"})
	}

	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.FirstName != nil {
		fields["first_name"] = nilIfBlank(req.FirstName)
	}
	if req.LastName != nil {
		fields["last_name"] = nilIfBlank(req.LastName)
	}
	if req.NewPassword != "" {
		ok, err := security.VerifyPassword(req.CurrentPassword, user.PasswordHash)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "current password is incorrect").
				WithDetails(map[string]string{"currentPassword": "incorrect"})
		}
		hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		fields["password_hash"] = hash
	}

	if len(fields) == 0 {
		return FromModel(user), nil
	}

	found, err := s.repo.UpdateFields(ctx, userID, fields)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	if v, ok := fields["first_name"]; ok {
		user.FirstName = v.(*string)
	}
	if v, ok := fields["last_name"]; ok {
		user.LastName = v.(*string)
	}
	user.UpdatedAt = time.Now().UTC()
	return FromModel(user), nil
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}
