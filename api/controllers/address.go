package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/address"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// addressUpdateRequest carries the id in the body for PUT /addresses; the
// path-parameter route ignores it.
type addressUpdateRequest struct {
	ID *uuid.UUID `json:"id"`
	address.AddressInput
}

type addressIDRequest struct {
	ID uuid.UUID `json:"id" validate:"required"`
}

type addressResponse struct {
	Address *address.AddressDTO `json:"address"`
}

func AddressList(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "address service")
			return
		}
		userID, ok := sessionUser(w, r, logg)
		if !ok {
			return
		}
		writeAddressList(w, r, svc, userID, logg)
	}
}

func AddressGet(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "address service")
			return
		}
		userID, ok := sessionUser(w, r, logg)
		if !ok {
			return
		}
		addressID, err := validators.ParseUUIDParam(r, "addressId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Get(r.Context(), userID, addressID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AddressCreate(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "address service")
			return
		}
		userID, ok := sessionUser(w, r, logg)
		if !ok {
			return
		}

		var body address.AddressInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, addressResponse{Address: dto})
	}
}

// AddressUpdate replaces an address and answers with the refreshed list. The
// id comes from the path when routed with {addressId}, otherwise the body.
func AddressUpdate(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "address service")
			return
		}
		userID, ok := sessionUser(w, r, logg)
		if !ok {
			return
		}

		var body addressUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		addressID, err := addressIDFrom(r, body.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.Update(r.Context(), userID, addressID, body.AddressInput); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeAddressList(w, r, svc, userID, logg)
	}
}

func AddressSetDefault(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "address service")
			return
		}
		userID, ok := sessionUser(w, r, logg)
		if !ok {
			return
		}

		var body addressIDRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetDefault(r.Context(), userID, body.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeAddressList(w, r, svc, userID, logg)
	}
}

// AddressDelete removes an address addressed by path parameter or ?id=.
func AddressDelete(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "address service")
			return
		}
		userID, ok := sessionUser(w, r, logg)
		if !ok {
			return
		}

		var (
			addressID uuid.UUID
			err       error
		)
		if hasURLParam(r, "addressId") {
			addressID, err = validators.ParseUUIDParam(r, "addressId")
		} else {
			addressID, err = validators.ParseUUIDQuery(r, "id")
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), userID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeAddressList(w, r, svc, userID, logg)
	}
}

func addressIDFrom(r *http.Request, bodyID *uuid.UUID) (uuid.UUID, error) {
	if hasURLParam(r, "addressId") {
		return validators.ParseUUIDParam(r, "addressId")
	}
	if bodyID == nil || *bodyID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required").WithDetails(map[string]string{"id": "is required"})
	}
	return *bodyID, nil
}

func writeAddressList(w http.ResponseWriter, r *http.Request, svc address.Service, userID uuid.UUID, logg *logger.Logger) {
	list, err := svc.List(r.Context(), userID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, list)
}
