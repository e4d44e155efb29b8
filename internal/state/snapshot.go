package state

import (
	"slices"

	"github.com/vyrodovalexey/useradmin/internal/model"
)

// Snapshot is a point-in-time copy of the store state.
type Snapshot struct {
	Users []model.User
	Query Query

	Loading    bool
	Submitting bool

	// DeletingID is the most recently started delete still in flight, 0 if
	// none. Delete only accepts IDs from 1 up, so 0 is never a real delete.
	DeletingID int64
	// Deleting lists every in-flight delete in start order.
	Deleting []int64

	Error string
	Info  string
}

// EstimatedTotal is the lower-bound total for the snapshot's page.
func (s Snapshot) EstimatedTotal() int {
	return EstimatedTotal(s.Query.Page, s.Query.Size, len(s.Users))
}

// HasMore reports whether the current page was full, so a next page may exist.
func (s Snapshot) HasMore() bool {
	return s.Query.Size > 0 && len(s.Users) == s.Query.Size
}

// IsDeleting reports whether a delete of id is in flight.
func (s Snapshot) IsDeleting(id int64) bool {
	return slices.Contains(s.Deleting, id)
}

// Busy reports whether any operation is in flight.
func (s Snapshot) Busy() bool {
	return s.Loading || s.Submitting || len(s.Deleting) > 0
}
