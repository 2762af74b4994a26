package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// ParseQueryInt reads an integer query parameter. Missing values yield
// defaultVal. A max of zero or less leaves the upper bound open.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be an integer").
			WithDetails(map[string]any{"field": key})
	}
	if value < min || (max > 0 && value > max) {
		details := map[string]any{"field": key, "min": min}
		if max > 0 {
			details["max"] = max
		}
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(details)
	}
	return value, nil
}

// ParsePagination reads limit and offset. Zero limits are passed through so
// the service applies its own default.
func ParsePagination(r *http.Request) (pagination.Params, error) {
	limit, err := ParseQueryInt(r, "limit", 0, 0, 0)
	if err != nil {
		return pagination.Params{}, err
	}
	offset, err := ParseQueryInt(r, "offset", 0, 0, 0)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Limit: limit, Offset: offset}, nil
}
