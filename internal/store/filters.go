package store

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	SortAsc  = "asc"
	SortDesc = "desc"

	DefaultPageSize = 10
)

// Criteria are the resource-specific filter fields of a store.
type Criteria interface {
	Apply(q url.Values)
}

// NoCriteria is used by stores without filter fields.
type NoCriteria struct{}

func (NoCriteria) Apply(url.Values) {}

// Filters is the request-shaping cursor of a store. Page is zero-based.
type Filters[C Criteria] struct {
	Criteria      C
	Page          int
	Size          int
	SortBy        string
	SortDirection string
}

// Query encodes the filters as the backend's query parameters.
func (f Filters[C]) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(f.Page))
	size := f.Size
	if size <= 0 {
		size = DefaultPageSize
	}
	q.Set("size", strconv.Itoa(size))
	if f.SortBy != "" {
		q.Set("sortBy", f.SortBy)
	}
	if f.SortDirection != "" {
		q.Set("sortDirection", f.SortDirection)
	}
	f.Criteria.Apply(q)
	return q
}

// NormalizeDirection maps anything but "asc" to "desc".
func NormalizeDirection(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), SortAsc) {
		return SortAsc
	}
	return SortDesc
}
