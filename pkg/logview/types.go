// Package logview implements the client-side view state for the audit log
// screen: one lazily initialized paginated view per category, a purge form
// whose confirmation is invalidated by any filter change, and routing of
// purge results back to the category they affected. The package holds no
// event data durably; it only tracks transient UI state.
package logview

import "encoding/json"

// Category mirrors the server-side log categories.
type Category string

// Audit event categories.
const (
	Connections Category = "connections"
	FailedAuth  Category = "failed_auth"
	Errors      Category = "errors"
	Copy        Category = "copy"
	Admin       Category = "admin"
	Items       Category = "items"
)

// ScopeAll asks the server to search every column.
const ScopeAll = "all"

// PageRequest is one bounded page request.
type PageRequest struct {
	Offset     int
	Limit      int
	SortColumn string
	SortOrder  string
	Search     string
	Scope      string
}

// PageResponse is the page envelope. Rows are kept opaque; rendering them is
// the embedding UI's concern.
type PageResponse struct {
	TotalCount    int64             `json:"total_count"`
	FilteredCount int64             `json:"filtered_count"`
	Rows          []json.RawMessage `json:"rows"`
}

// PurgeRequest is the delete scope submitted by the purge form. Dates are
// plain YYYY-MM-DD values as collected from a date range picker.
type PurgeRequest struct {
	Category     Category `json:"category"`
	DateStart    string   `json:"date_start,omitempty"`
	DateEnd      string   `json:"date_end,omitempty"`
	UserFilter   string   `json:"user_filter,omitempty"`
	ActionFilter string   `json:"action_filter,omitempty"`
	AllRecords   bool     `json:"all_records,omitempty"`
	Confirmed    bool     `json:"confirmed"`
}

// PurgeResult reports a completed purge.
type PurgeResult struct {
	Category     Category `json:"category"`
	DeletedCount int64    `json:"deleted_count"`
}
