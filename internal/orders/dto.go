package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// PlaceOrderRequest turns the caller's cart into an order shipped to AddressID.
type PlaceOrderRequest struct {
	AddressID uuid.UUID `json:"addressId" validate:"required"`
}

// OrderItemDTO is one purchased line. Price is the unit price at purchase time.
type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	Size        string          `json:"size"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl"`
}

// OrderAddressDTO is the shipping address snapshot shown with an order.
type OrderAddressDTO struct {
	AddressLine1 string  `json:"addressLine1"`
	AddressLine2 *string `json:"addressLine2"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	PostalCode   string  `json:"postalCode"`
	Country      string  `json:"country"`
}

// OrderDTO is the API view of a placed order. Address is nil once the
// shopper deletes the address the order shipped to.
type OrderDTO struct {
	ID          uuid.UUID         `json:"id"`
	Status      enums.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	CreatedAt   time.Time         `json:"createdAt"`
	Items       []OrderItemDTO    `json:"items"`
	Address     *OrderAddressDTO  `json:"address"`
}

type orderRow struct {
	ID           uuid.UUID         `gorm:"column:id"`
	Status       enums.OrderStatus `gorm:"column:status"`
	TotalAmount  decimal.Decimal   `gorm:"column:total_amount"`
	CreatedAt    time.Time         `gorm:"column:created_at"`
	AddressID    *uuid.UUID        `gorm:"column:address_id"`
	AddressLine1 *string           `gorm:"column:address_line1"`
	AddressLine2 *string           `gorm:"column:address_line2"`
	City         *string           `gorm:"column:city"`
	State        *string           `gorm:"column:state"`
	PostalCode   *string           `gorm:"column:postal_code"`
	Country      *string           `gorm:"column:country"`
}

type itemRow struct {
	ID          uuid.UUID       `gorm:"column:id"`
	OrderID     uuid.UUID       `gorm:"column:order_id"`
	ProductID   uuid.UUID       `gorm:"column:product_id"`
	ProductName string          `gorm:"column:product_name"`
	Size        string          `gorm:"column:size"`
	Quantity    int             `gorm:"column:quantity"`
	Price       decimal.Decimal `gorm:"column:price"`
	ImageURL    string          `gorm:"column:image_url"`
}

func (r orderRow) toDTO(items []OrderItemDTO) OrderDTO {
	if items == nil {
		items = []OrderItemDTO{}
	}
	dto := OrderDTO{
		ID:          r.ID,
		Status:      r.Status,
		TotalAmount: r.TotalAmount,
		CreatedAt:   r.CreatedAt.UTC(),
		Items:       items,
	}
	if r.AddressID != nil && r.AddressLine1 != nil {
		dto.Address = &OrderAddressDTO{
			AddressLine1: *r.AddressLine1,
			AddressLine2: r.AddressLine2,
			City:         deref(r.City),
			State:        deref(r.State),
			PostalCode:   deref(r.PostalCode),
			Country:      deref(r.Country),
		}
	}
	return dto
}

// placedOrderDTO builds the response for a just-written order. items and
// lines are index aligned.
func placedOrderDTO(order *models.Order, items []models.OrderItem, lines []cart.Line, shipTo *models.Address) OrderDTO {
	dtos := make([]OrderItemDTO, 0, len(items))
	for i, item := range items {
		dtos = append(dtos, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: lines[i].ProductName,
			Size:        item.Size,
			Quantity:    item.Quantity,
			Price:       item.Price,
			ImageURL:    lines[i].ImageURL,
		})
	}
	dto := OrderDTO{
		ID:          order.ID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
		CreatedAt:   order.CreatedAt.UTC(),
		Items:       dtos,
	}
	if shipTo != nil {
		dto.Address = &OrderAddressDTO{
			AddressLine1: shipTo.AddressLine1,
			AddressLine2: shipTo.AddressLine2,
			City:         shipTo.City,
			State:        shipTo.State,
			PostalCode:   shipTo.PostalCode,
			Country:      shipTo.Country,
		}
	}
	return dto
}

func (r itemRow) toDTO() OrderItemDTO {
	return OrderItemDTO{
		ID:          r.ID,
		ProductID:   r.ProductID,
		ProductName: r.ProductName,
		Size:        r.Size,
		Quantity:    r.Quantity,
		Price:       r.Price,
		ImageURL:    r.ImageURL,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
