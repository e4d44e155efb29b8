// Package state keeps a paginated, sorted view of the remote user collection
// in sync with the create, update and delete operations performed on it.
//
// # Overview
//
// A Store holds three things:
//
//   - the Query (page, size, sort) that selects which page is shown
//   - the users of that page as last returned by the Transport
//   - the status of in-flight operations and the last error/info message
//
// Callers read the state through Snapshot, which returns copies, and change
// it only through the Store's operations.
//
// # Loads
//
// Load replaces the users wholesale on success and keeps the previous users
// on failure. Every load is tagged with a generation number; when loads
// overlap, only the result of the most recently issued one is applied, so a
// slow response for an old query can never overwrite a newer page. Loading
// stays true while any load is in flight.
//
// # Mutations
//
// Create, Update and Delete never edit the users in memory. On success they
// set Info and reload the current page; on failure they set Error and return
// the same error to the caller. A created user that sorts outside the
// current page therefore does not appear until the caller navigates to it.
//
// Deletes are tracked as a set of in-flight IDs. DeletingID reports the
// most recently started one so a single busy row can be marked.
//
// # Pagination
//
// The API returns no total count. EstimatedTotal derives a lower bound from
// the page, the size and the number of users returned; it is recomputed from
// the snapshot and never stored.
//
// # Usage
//
//	client, _ := transport.NewClient("http://127.0.0.1:8080/api")
//	store := state.New(client, state.WithLogger(logger))
//
//	_ = store.ApplyQuery(ctx, state.WithSort(model.SortByUsername))
//	snap := store.Snapshot()
//	fmt.Println(len(snap.Users), snap.EstimatedTotal(), snap.Error)
package state
