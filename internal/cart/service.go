package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const itemNotFoundMessage = "cart item not found"

// Service manages the single cart each shopper owns.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*Line, error)
	// UpdateItem returns nil when a non-positive quantity removed the line.
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*Line, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo *Repository
}

// NewService builds a cart service over the provided repository.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	cart, err := s.repo.EnsureCart(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	lines, err := s.repo.Lines(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
	}
	if lines == nil {
		lines = []Line{}
	}
	return &CartDTO{ID: cart.ID, Items: lines, Total: Total(lines)}, nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*Line, error) {
	size := strings.TrimSpace(req.Size)
	if req.ProductID == uuid.Nil || size == "" || req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product ID, size, and quantity are required")
	}

	exists, err := s.repo.SizeExists(ctx, req.ProductID, size)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product size")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product size not found")
	}

	cart, err := s.repo.EnsureCart(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	item, err := s.repo.UpsertItem(ctx, cart.ID, req.ProductID, size, req.Quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart item")
	}
	return s.line(ctx, item.ID)
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*Line, error) {
	if quantity <= 0 {
		return nil, s.RemoveItem(ctx, userID, itemID)
	}
	found, err := s.repo.UpdateQuantityForUser(ctx, userID, itemID, quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart item")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, itemNotFoundMessage)
	}
	return s.line(ctx, itemID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	found, err := s.repo.DeleteItemForUser(ctx, userID, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart item")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, itemNotFoundMessage)
	}
	return nil
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if err := s.repo.ClearItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	return nil
}

func (s *service) line(ctx context.Context, itemID uuid.UUID) (*Line, error) {
	line, err := s.repo.Line(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, itemNotFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart item")
	}
	return line, nil
}
