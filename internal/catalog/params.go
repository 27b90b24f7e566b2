// Package catalog implements the product listing core: query parameter
// normalization, store query composition, pagination envelopes, the SQLite
// product repository, and the HTTP handlers on top of them.
package catalog

import (
	"net/url"
	"strconv"
	"strings"
)

// SortField enumerates the columns a listing may be ordered by. Anything
// outside this set falls back to SortCreatedAt; raw input is never
// interpolated into a query.
type SortField string

const (
	SortID              SortField = "id"
	SortName            SortField = "name"
	SortPrice           SortField = "price"
	SortDiscountedPrice SortField = "discountedPrice"
	SortSKU             SortField = "sku"
	SortCreatedAt       SortField = "createdAt"
	SortUpdatedAt       SortField = "updatedAt"
)

// SortOrder is the listing direction.
type SortOrder string

const (
	OrderAsc  SortOrder = "ASC"
	OrderDesc SortOrder = "DESC"
)

const (
	// DefaultLimit is the page size used when the request does not name one.
	DefaultLimit = 12
	// MaxLimit caps the page size regardless of what the request asks for.
	MaxLimit = 100
)

// QuerySpec is the normalized, validated form of the listing parameters.
// It is produced exclusively by ParseQuerySpec; downstream components never
// see raw request input.
type QuerySpec struct {
	Page     int
	Limit    int
	Sort     SortField
	Order    SortOrder
	Search   string
	MinPrice *float64
	MaxPrice *float64
}

// DefaultQuerySpec returns the spec an empty request normalizes to.
func DefaultQuerySpec() QuerySpec {
	return QuerySpec{
		Page:  1,
		Limit: DefaultLimit,
		Sort:  SortCreatedAt,
		Order: OrderDesc,
	}
}

// WithPage returns a copy of the spec pointing at the given page.
func (s QuerySpec) WithPage(page int) QuerySpec {
	if page < 1 {
		page = 1
	}
	s.Page = page
	return s
}

// Offset is the number of rows skipped before the requested page.
func (s QuerySpec) Offset() int {
	return (s.Page - 1) * s.Limit
}

// Values serializes the spec back into URL query parameters.
func (s QuerySpec) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(s.Page))
	v.Set("limit", strconv.Itoa(s.Limit))
	v.Set("sort", string(s.Sort))
	v.Set("order", string(s.Order))
	if s.Search != "" {
		v.Set("q", s.Search)
	}
	if s.MinPrice != nil {
		v.Set("minPrice", strconv.FormatFloat(*s.MinPrice, 'f', -1, 64))
	}
	if s.MaxPrice != nil {
		v.Set("maxPrice", strconv.FormatFloat(*s.MaxPrice, 'f', -1, 64))
	}
	return v
}

var allowedSorts = map[SortField]bool{
	SortID:              true,
	SortName:            true,
	SortPrice:           true,
	SortDiscountedPrice: true,
	SortSKU:             true,
	SortCreatedAt:       true,
	SortUpdatedAt:       true,
}

// ParseQuerySpec normalizes raw listing parameters. It never fails: malformed
// optional values are silently dropped or defaulted so the listing endpoint
// stays servable for any input.
func ParseQuerySpec(q url.Values) QuerySpec {
	spec := DefaultQuerySpec()

	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		spec.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		spec.Limit = limit
	}
	if spec.Limit > MaxLimit {
		spec.Limit = MaxLimit
	}

	if sort := SortField(q.Get("sort")); allowedSorts[sort] {
		spec.Sort = sort
	}
	if order := SortOrder(strings.ToUpper(q.Get("order"))); order == OrderAsc {
		spec.Order = OrderAsc
	}

	spec.Search = strings.TrimSpace(q.Get("q"))

	if raw := q.Get("minPrice"); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			spec.MinPrice = &f
		}
	}
	if raw := q.Get("maxPrice"); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			spec.MaxPrice = &f
		}
	}

	return spec
}
