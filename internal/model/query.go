package model

import (
	"math"
	"net/url"
	"strconv"
)

// SortOption names a field the user list can be ordered by.
type SortOption string

// Supported sort options.
const (
	SortByUserID   SortOption = "user_id"
	SortByUsername SortOption = "username"
)

// Query defaults and bounds.
const (
	DefaultPage = 0
	DefaultSize = 20
	DefaultSort = SortByUserID
	MinPageSize = 1
	MaxPageSize = 100
)

// Valid reports whether s is a known sort option.
func (s SortOption) Valid() bool {
	return s == SortByUserID || s == SortByUsername
}

// SafeSort returns s when it is a known option and DefaultSort otherwise.
func SafeSort(s SortOption) SortOption {
	if s.Valid() {
		return s
	}
	return DefaultSort
}

// ClampSize bounds size to [MinPageSize, MaxPageSize].
func ClampSize(size int) int {
	if size < MinPageSize {
		return MinPageSize
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// Query selects one page of the user collection.
type Query struct {
	Page int        `json:"page"`
	Size int        `json:"size"`
	Sort SortOption `json:"sort"`
}

// DefaultQuery returns the query a fresh view starts with.
func DefaultQuery() Query {
	return Query{Page: DefaultPage, Size: DefaultSize, Sort: DefaultSort}
}

// Sanitized returns the query as it may be sent over the wire: the sort is
// coerced to a known option, the size is bounded and the page is non-negative.
func (q Query) Sanitized() Query {
	page := q.Page
	if page < 0 {
		page = DefaultPage
	}
	return Query{
		Page: page,
		Size: ClampSize(q.Size),
		Sort: SafeSort(q.Sort),
	}
}

// Offset returns the index of the first item on the page. Pages beyond
// any addressable item saturate at math.MaxInt.
func (q Query) Offset() int {
	if q.Size > 0 && q.Page > math.MaxInt/q.Size {
		return math.MaxInt
	}
	return q.Page * q.Size
}

// Values encodes the sanitized query as URL parameters.
func (q Query) Values() url.Values {
	s := q.Sanitized()
	values := url.Values{}
	values.Set("page", strconv.Itoa(s.Page))
	values.Set("size", strconv.Itoa(s.Size))
	values.Set("sort", string(s.Sort))
	return values
}

// ParseQuery decodes URL parameters into a sanitized query.
// Missing or malformed numbers fall back to the defaults.
func ParseQuery(values url.Values) Query {
	q := DefaultQuery()
	if page, err := strconv.Atoi(values.Get("page")); err == nil {
		q.Page = page
	}
	if size, err := strconv.Atoi(values.Get("size")); err == nil {
		q.Size = size
	}
	q.Sort = SortOption(values.Get("sort"))
	return q.Sanitized()
}
