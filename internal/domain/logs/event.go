package logs

import "time"

// Event is a read-only projection of one audit event row. Fields that do not
// exist for the event's category are left at their zero value and omitted
// from JSON output. Events are never mutated after creation; the only write
// operation on the store is a purge.
type Event struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"date"`
	Login       string    `json:"user,omitempty"`
	Action      string    `json:"action,omitempty"`
	IPAddress   string    `json:"ip,omitempty"`
	Source      string    `json:"source,omitempty"`
	Message     string    `json:"message,omitempty"`
	ItemID      int64     `json:"item_id,omitempty"`
	ItemLabel   string    `json:"item_label,omitempty"`
	FolderTitle string    `json:"folder_title,omitempty"`
}

// PageResult is the page envelope returned for a bounded query.
type PageResult struct {
	TotalCount    int64
	FilteredCount int64
	Rows          []Event
}
