package pagination

import (
	"fmt"
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds offset pagination parameters extracted from query strings.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// DefaultParams returns page 1 with the default limit.
func DefaultParams() Params {
	return Params{Page: 1, Limit: DefaultLimit}
}

// Offset returns the number of rows to skip for the current page.
func (p Params) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// FromRequest extracts page and limit from the query string. Absent values
// take defaults; malformed or out-of-range values are reported as errors so
// the handler can reject the request. Accepted values are returned unchanged.
func FromRequest(r *http.Request) (Params, error) {
	p := DefaultParams()
	q := r.URL.Query()

	if raw := q.Get("page"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return p, fmt.Errorf("page must be a positive integer")
		}
		p.Page = v
	}

	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return p, fmt.Errorf("limit must be a positive integer")
		}
		if v > MaxLimit {
			return p, fmt.Errorf("limit must not exceed %d", MaxLimit)
		}
		p.Limit = v
	}

	return p, nil
}

// TotalPages returns ceil(total/limit). It is zero when total is zero.
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit < 1 {
		return 0
	}
	l := int64(limit)
	return int((total + l - 1) / l)
}
