package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/vyrodovalexey/useradmin/internal/model"
	"github.com/vyrodovalexey/useradmin/internal/state"
)

// Labels shown in the user table.
const (
	emptyLabel    = "No users yet."
	deletingLabel = "Deleting..."
	loadingLabel  = "Loading..."
)

// pageView is the JSON form of a rendered snapshot.
type pageView struct {
	Page           int          `json:"page"`
	Size           int          `json:"size"`
	Sort           string       `json:"sort"`
	Users          []model.User `json:"users"`
	EstimatedTotal int          `json:"estimatedTotal"`
	HasMore        bool         `json:"hasMore"`
	Error          string       `json:"error,omitempty"`
	Info           string       `json:"info,omitempty"`
}

func newPageView(snap state.Snapshot) pageView {
	return pageView{
		Page:           snap.Query.Page,
		Size:           snap.Query.Size,
		Sort:           string(model.SafeSort(snap.Query.Sort)),
		Users:          snap.Users,
		EstimatedTotal: snap.EstimatedTotal(),
		HasMore:        snap.HasMore(),
		Error:          snap.Error,
		Info:           snap.Info,
	}
}

// pageLabel is the 1-based page caption.
func pageLabel(page int) string {
	return fmt.Sprintf("Page %d", page+1)
}

// renderSnapshot writes snap as a table, or as JSON when asJSON is set.
func renderSnapshot(w io.Writer, snap state.Snapshot, asJSON bool) error {
	if asJSON {
		return writeJSON(w, newPageView(snap))
	}

	if snap.Error != "" {
		_, _ = fmt.Fprintf(w, "Error: %s\n", snap.Error)
	}
	if snap.Info != "" {
		_, _ = fmt.Fprintln(w, snap.Info)
	}
	if snap.Loading {
		_, _ = fmt.Fprintln(w, loadingLabel)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tUSERNAME\tFULL NAME\tSTATUS")
	for _, u := range snap.Users {
		status := ""
		if snap.IsDeleting(u.UserID) {
			status = deletingLabel
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.UserID, u.Username, u.FullName, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !snap.Loading && len(snap.Users) == 0 {
		_, _ = fmt.Fprintln(w, emptyLabel)
	}

	more := ""
	if snap.HasMore() {
		more = ", more available"
	}
	_, err := fmt.Fprintf(w, "%s | size %d | sort %s | about %d users%s\n",
		pageLabel(snap.Query.Page), snap.Query.Size, model.SafeSort(snap.Query.Sort), snap.EstimatedTotal(), more)
	return err
}

// renderResult prints the outcome of a mutation.
func renderResult(w io.Writer, snap state.Snapshot, asJSON bool) error {
	if asJSON {
		return writeJSON(w, newPageView(snap))
	}
	if snap.Info != "" {
		_, _ = fmt.Fprintln(w, snap.Info)
	}
	if snap.Error != "" {
		_, _ = fmt.Fprintf(w, "Warning: reload failed: %s\n", snap.Error)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
