package state

import (
	"math"

	"github.com/vyrodovalexey/useradmin/internal/model"
)

// Query selects the page of users the store shows.
type Query = model.Query

// QueryPatch is a partial Query update. Nil fields keep their current value.
type QueryPatch struct {
	Page *int
	Size *int
	Sort *model.SortOption
}

// apply merges p into q.
func (p QueryPatch) apply(q Query) Query {
	if p.Page != nil {
		q.Page = *p.Page
	}
	if p.Size != nil {
		q.Size = *p.Size
	}
	if p.Sort != nil {
		q.Sort = *p.Sort
	}
	return q
}

// WithPage moves to page.
func WithPage(page int) QueryPatch {
	return QueryPatch{Page: &page}
}

// WithSize changes the page size, bounded to the range the API accepts,
// and returns to the first page.
func WithSize(size int) QueryPatch {
	size = model.ClampSize(size)
	page := model.DefaultPage
	return QueryPatch{Page: &page, Size: &size}
}

// WithSort changes the sort key and returns to the first page.
func WithSort(sort model.SortOption) QueryPatch {
	page := model.DefaultPage
	return QueryPatch{Page: &page, Sort: &sort}
}

// EstimatedTotal is a lower bound on the size of the collection, derived from
// one page of results: a full page implies at least one more user exists.
func EstimatedTotal(page, size, returned int) int {
	extra := returned
	if returned == size {
		extra++
	}
	offset := Query{Page: page, Size: size}.Offset()
	if offset > math.MaxInt-extra {
		return math.MaxInt
	}
	return offset + extra
}
