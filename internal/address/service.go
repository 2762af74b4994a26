package address

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	notFoundMessage      = "address not found"
	defaultRaceMessage   = "another default address was set concurrently"
	missingFieldsMessage = "required address fields are missing"
)

// Service manages a shopper's saved shipping addresses.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error)
	Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*AddressDTO, error)
	Update(ctx context.Context, userID, id uuid.UUID, input AddressInput) (*AddressDTO, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	SetDefault(ctx context.Context, userID, id uuid.UUID) error
}

type service struct {
	tx   db.Transactor
	repo *Repository
}

// NewService builds the address service. Reads go through repo; writes run in
// transactions opened on tx.
func NewService(tx db.Transactor, repo *Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transactor is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("address repository is required")
	}
	return &service{tx: tx, repo: repo}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}
	return fromModels(rows), nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*AddressDTO, error) {
	row, err := s.repo.FindForUser(ctx, userID, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	return FromModel(row), nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input AddressInput) (*AddressDTO, error) {
	input, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	row := &models.Address{
		UserID:       userID,
		AddressLine1: input.AddressLine1,
		AddressLine2: input.AddressLine2,
		City:         input.City,
		State:        input.State,
		PostalCode:   input.PostalCode,
		Country:      input.Country,
		IsDefault:    input.IsDefault,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.IsDefault {
			if err := repo.ClearDefault(ctx, userID, nil); err != nil {
				return err
			}
		}
		return repo.Create(ctx, row)
	})
	if err != nil {
		return nil, mapWriteError(err, "create address")
	}
	return FromModel(row), nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input AddressInput) (*AddressDTO, error) {
	input, err := validateInput(input)
	if err != nil {
		return nil, err
	}

	var updated *models.Address
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.IsDefault {
			if err := repo.ClearDefault(ctx, userID, &id); err != nil {
				return err
			}
		}
		found, err := repo.Update(ctx, userID, id, input.columns())
		if err != nil {
			return err
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
		updated, err = repo.FindForUser(ctx, userID, id)
		return err
	})
	if err != nil {
		return nil, mapWriteError(err, "update address")
	}
	return FromModel(updated), nil
}

func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	found, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete address")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
	}
	return nil
}

func (s *service) SetDefault(ctx context.Context, userID, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindForUser(ctx, userID, id); err != nil {
			return mapLookupError(err)
		}
		if err := repo.ClearDefault(ctx, userID, &id); err != nil {
			return err
		}
		found, err := repo.MarkDefault(ctx, userID, id)
		if err != nil {
			return err
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
		}
		return nil
	})
	if err != nil {
		return mapWriteError(err, "set default address")
	}
	return nil
}

func validateInput(input AddressInput) (AddressInput, error) {
	input = input.normalized()
	if missing := input.missingFields(); len(missing) > 0 {
		return input, pkgerrors.New(pkgerrors.CodeValidation, missingFieldsMessage).WithDetails(missing)
	}
	return input, nil
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
}

func mapWriteError(err error, action string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if db.IsUniqueViolation(err, db.ConstraintAddressesDefault) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, defaultRaceMessage)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, action)
}
