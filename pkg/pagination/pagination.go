package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 12
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds limit/offset inputs from controllers or services.
type Params struct {
	Limit  int
	Offset int
}

// Page is the window a query actually ran with, echoed back to clients.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// NormalizeLimit enforces the default and maximum limits. Non-positive
// values fall back to def; values above max are clamped.
func NormalizeLimit(limit, def, max int) int {
	if def <= 0 {
		def = DefaultLimit
	}
	if max <= 0 {
		max = MaxLimit
	}
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// Normalize clamps both fields; negative offsets become zero.
func (p Params) Normalize(def, max int) Page {
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: NormalizeLimit(p.Limit, def, max), Offset: offset}
}
