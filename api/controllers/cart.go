package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// A non-positive quantity removes the line, so it carries no validation tag.
type cartUpdateRequest struct {
	ItemID   uuid.UUID `json:"itemId" validate:"required"`
	Quantity int       `json:"quantity"`
}

type cartItemUpdateRequest struct {
	CartItemID uuid.UUID `json:"cartItemId" validate:"required"`
	Quantity   int       `json:"quantity"`
}

type cartItemRemoveRequest struct {
	CartItemID uuid.UUID `json:"cartItemId" validate:"required"`
}

type cartItemResponse struct {
	CartItem *cart.Line `json:"cartItem"`
}

func CartGet(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cart service")
			return
		}
		userID, ok := sessionUser(w, r, logg)
		if !ok {
			return
		}
		writeCart(w, r, svc, userID, logg)
	}
}

// CartAdd adds an item and answers with the whole cart.
func CartAdd(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cart service")
			return
		}
		userID, ok := sessionUser(w, r, logg)
		if !ok {
			return
		}

		var body cart.AddItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := svc.AddItem(r.Context(), userID, body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, svc, userID, logg)
	}
}

// CartAddItem adds an item and answers with the resulting line only.
func CartAddItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cart service")
			return
		}
		userID, ok := sessionUser(w, r, logg)
		if !ok {
			return
		}

		var body cart.AddItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		line, err := svc.AddItem(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartItemResponse{CartItem: line})
	}
}

func CartUpdate(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cart service")
			return
		}
		userID, ok := sessionUser(w, r, logg)
		if !ok {
			return
		}

		var body cartUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := svc.UpdateItem(r.Context(), userID, body.ItemID, body.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, svc, userID, logg)
	}
}

// CartUpdateItem answers with the changed line, or a null cartItem when the
// quantity removed it.
func CartUpdateItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cart service")
			return
		}
		userID, ok := sessionUser(w, r, logg)
		if !ok {
			return
		}

		var body cartItemUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		line, err := svc.UpdateItem(r.Context(), userID, body.CartItemID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartItemResponse{CartItem: line})
	}
}

func CartRemove(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cart service")
			return
		}
		userID, ok := sessionUser(w, r, logg)
		if !ok {
			return
		}

		itemID, err := validators.ParseUUIDQuery(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveItem(r.Context(), userID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCart(w, r, svc, userID, logg)
	}
}

func CartRemoveItem(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "cart service")
			return
		}
		userID, ok := sessionUser(w, r, logg)
		if !ok {
			return
		}

		var body cartItemRemoveRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveItem(r.Context(), userID, body.CartItemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, successResponse{Success: true})
	}
}

func writeCart(w http.ResponseWriter, r *http.Request, svc cart.Service, userID uuid.UUID, logg *logger.Logger) {
	dto, err := svc.Get(r.Context(), userID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, dto)
}
