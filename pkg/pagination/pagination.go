package pagination

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 20
	// MaxLimit caps how many rows any lookup can request.
	MaxLimit = 100
)

// Params holds page-based pagination inputs for the store backend's list endpoints.
type Params struct {
	Key   string
	Page  int
	Limit int
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizePage clamps pages to start at 1.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Normalize returns a copy with trimmed key and bounded page/limit.
func (p Params) Normalize() Params {
	return Params{
		Key:   strings.TrimSpace(p.Key),
		Page:  NormalizePage(p.Page),
		Limit: NormalizeLimit(p.Limit),
	}
}

// Values encodes the params as key/page/limit query values.
func (p Params) Values() url.Values {
	n := p.Normalize()
	values := url.Values{}
	if n.Key != "" {
		values.Set("key", n.Key)
	}
	values.Set("page", strconv.Itoa(n.Page))
	values.Set("limit", strconv.Itoa(n.Limit))
	return values
}

// FromQuery reads key/page/limit from request query values, ignoring malformed numbers.
func FromQuery(query url.Values) Params {
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	return Params{Key: query.Get("key"), Page: page, Limit: limit}.Normalize()
}
