package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemRequest adds quantity units of one product size to the cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Size      string    `json:"size" validate:"required,max=20"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=99"`
}

// Line is one cart row joined with the current product data. Prices are
// always read at query time.
type Line struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	BrandName   string          `json:"brandName"`
	Size        string          `json:"size"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl"`
}

// Subtotal is price times quantity for the line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartDTO is the API view of a shopper's cart.
type CartDTO struct {
	ID    uuid.UUID       `json:"id"`
	Items []Line          `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// Total sums the line subtotals.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
