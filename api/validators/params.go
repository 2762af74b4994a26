package validators

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// ParseUUIDParam reads a required UUID from the chi URL parameter name.
func ParseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	return parseUUID(chi.URLParam(r, name), name)
}

// ParseUUIDQuery reads a required UUID from the query string.
func ParseUUIDQuery(r *http.Request, key string) (uuid.UUID, error) {
	return parseUUID(r.URL.Query().Get(key), key)
}

// ParseOptionalUUIDQuery returns nil when the key is absent or blank.
func ParseOptionalUUIDQuery(r *http.Request, key string) (*uuid.UUID, error) {
	if strings.TrimSpace(r.URL.Query().Get(key)) == "" {
		return nil, nil
	}
	id, err := ParseUUIDQuery(r, key)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseUUID(raw, field string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, field+" is required").
			WithDetails(map[string]string{field: "is required"})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, field+" must be a valid UUID").
			WithDetails(map[string]string{field: "must be a valid UUID"})
	}
	return id, nil
}
