package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderPlacedItem is one purchased line, priced at placement time.
type OrderPlacedItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderPlacedEvent is emitted once an order commits and stock is reserved.
type OrderPlacedEvent struct {
	OrderID     uuid.UUID         `json:"orderId"`
	UserID      uuid.UUID         `json:"userId"`
	AddressID   uuid.UUID         `json:"addressId"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	Items       []OrderPlacedItem `json:"items"`
}

// UserRegisteredEvent is emitted when a new shopper account is created.
type UserRegisteredEvent struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
}
