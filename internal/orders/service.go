package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

const (
	orderNotFoundMessage     = "order not found"
	emptyCartMessage         = "cart is empty"
	insufficientStockMessage = "insufficient stock"
)

// Service places and reads shopper orders.
type Service interface {
	Place(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (*OrderDTO, error)
	List(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
}

// ServiceParams wires the order service.
type ServiceParams struct {
	DB      db.Transactor
	Repo    Repository
	Outbox  eventEmitter
	Metrics *metrics.OrderMetrics
	Logger  *logger.Logger
}

type service struct {
	db      db.Transactor
	repo    Repository
	outbox  eventEmitter
	metrics *metrics.OrderMetrics
	logg    *logger.Logger
}

// NewService constructs the order service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.DB == nil:
		return nil, fmt.Errorf("transactor is required")
	case params.Repo == nil:
		return nil, fmt.Errorf("order repository is required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox service is required")
	}
	return &service{
		db:      params.DB,
		repo:    params.Repo,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// Place converts the caller's cart into an order in one transaction: the
// order and its items are written, stock is reserved per line, the cart is
// emptied and an order_placed event is queued. Any failure rolls back all of it.
// The returned order is assembled inside the transaction, so a committed order
// is never reported as a failure.
func (s *service) Place(ctx context.Context, userID uuid.UUID, req PlaceOrderRequest) (*OrderDTO, error) {
	if req.AddressID == uuid.Nil {
		return nil, s.failed(pkgerrors.New(pkgerrors.CodeValidation, "address ID is required").
			WithDetails(map[string]string{"addressId": "required"}))
	}

	var (
		order  *models.Order
		placed OrderDTO
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		shipTo, err := address.NewRepository(tx).FindForUser(ctx, userID, req.AddressID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load address")
		}

		carts := cart.NewRepository(tx)
		// the row lock serialises concurrent checkouts of the same cart
		userCart, err := carts.LockByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, emptyCartMessage)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		lines, err := carts.Lines(ctx, userCart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart items")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, emptyCartMessage)
		}

		repo := s.repo.WithTx(tx)
		addressID := req.AddressID
		order = &models.Order{
			UserID:      userID,
			AddressID:   &addressID,
			Status:      enums.OrderStatusPending,
			TotalAmount: cart.Total(lines),
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		items := make([]models.OrderItem, 0, len(lines))
		eventItems := make([]payloads.OrderPlacedItem, 0, len(lines))
		for _, line := range lines {
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				ProductID: line.ProductID,
				Size:      line.Size,
				Quantity:  line.Quantity,
				Price:     line.Price,
			})
			eventItems = append(eventItems, payloads.OrderPlacedItem{
				ProductID: line.ProductID,
				Size:      line.Size,
				Quantity:  line.Quantity,
				Price:     line.Price,
			})
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order items")
		}

		for _, line := range lines {
			ok, err := repo.ReserveStock(ctx, line.ProductID, line.Size, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reserve stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeConflict, insufficientStockMessage).
					WithDetails(map[string]any{"productId": line.ProductID, "size": line.Size})
			}
		}

		placed = placedOrderDTO(order, items, lines, shipTo)

		if err := carts.ClearItems(ctx, userCart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.OrderPlacedEvent{
				OrderID:     order.ID,
				UserID:      userID,
				AddressID:   addressID,
				TotalAmount: order.TotalAmount,
				Items:       eventItems,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue order_placed")
		}
		return nil
	})
	if err != nil {
		return nil, s.failed(err)
	}

	s.metrics.IncPlaced(string(order.Status), order.TotalAmount)
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		logCtx = s.logg.WithField(logCtx, "total_amount", order.TotalAmount.StringFixed(2))
		s.logg.Info(logCtx, "order placed")
	}
	return &placed, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.ListOrders(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	items, err := s.repo.ListItems(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list order items")
	}

	byOrder := make(map[uuid.UUID][]OrderItemDTO, len(rows))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item.toDTO())
	}
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDTO(byOrder[row.ID]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	row, err := s.repo.FindOrder(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, orderNotFoundMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	items, err := s.repo.ListItems(ctx, []uuid.UUID{row.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order items")
	}
	dtos := make([]OrderItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, item.toDTO())
	}
	dto := row.toDTO(dtos)
	return &dto, nil
}

func (s *service) failed(err error) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "place order")
	}
	s.metrics.IncFailed(string(typed.Code()))
	return typed
}
