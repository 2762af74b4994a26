package address

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// AddressInput is the writable shape shared by create and update.
type AddressInput struct {
	AddressLine1 string  `json:"addressLine1" validate:"required,max=255"`
	AddressLine2 *string `json:"addressLine2,omitempty" validate:"omitempty,max=255"`
	City         string  `json:"city" validate:"required,max=100"`
	State        string  `json:"state" validate:"required,max=100"`
	PostalCode   string  `json:"postalCode" validate:"required,max=20"`
	Country      string  `json:"country" validate:"required,max=100"`
	IsDefault    bool    `json:"isDefault"`
}

// AddressDTO is the API view of a saved address.
type AddressDTO struct {
	ID           uuid.UUID `json:"id"`
	AddressLine1 string    `json:"addressLine1"`
	AddressLine2 *string   `json:"addressLine2"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	PostalCode   string    `json:"postalCode"`
	Country      string    `json:"country"`
	IsDefault    bool      `json:"isDefault"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FromModel converts the persistence model into the API view.
func FromModel(m *models.Address) *AddressDTO {
	if m == nil {
		return nil
	}
	return &AddressDTO{
		ID:           m.ID,
		AddressLine1: m.AddressLine1,
		AddressLine2: m.AddressLine2,
		City:         m.City,
		State:        m.State,
		PostalCode:   m.PostalCode,
		Country:      m.Country,
		IsDefault:    m.IsDefault,
		CreatedAt:    m.CreatedAt,
	}
}

func fromModels(rows []models.Address) []AddressDTO {
	out := make([]AddressDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

func (in AddressInput) normalized() AddressInput {
	in.AddressLine1 = strings.TrimSpace(in.AddressLine1)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.Country = strings.TrimSpace(in.Country)
	if in.AddressLine2 != nil {
		trimmed := strings.TrimSpace(*in.AddressLine2)
		if trimmed == "" {
			in.AddressLine2 = nil
		} else {
			in.AddressLine2 = &trimmed
		}
	}
	return in
}

// missingFields lists the required inputs that are blank, keyed by JSON name.
func (in AddressInput) missingFields() map[string]string {
	missing := map[string]string{}
	check := func(name, value string) {
		if value == "" {
			missing[name] = "required"
		}
	}
	check("addressLine1", in.AddressLine1)
	check("city", in.City)
	check("state", in.State)
	check("postalCode", in.PostalCode)
	check("country", in.Country)
	return missing
}

func (in AddressInput) columns() map[string]any {
	return map[string]any{
		"address_line1": in.AddressLine1,
		"address_line2": in.AddressLine2,
		"city":          in.City,
		"state":         in.State,
		"postal_code":   in.PostalCode,
		"country":       in.Country,
		"is_default":    in.IsDefault,
		"updated_at":    time.Now().UTC(),
	}
}
