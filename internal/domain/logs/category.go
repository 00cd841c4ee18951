// Package logs provides domain logic for querying and purging vault audit events.
package logs

import (
	"github.com/vaultkeep/audit-service/internal/domain/shared"
)

// Category identifies one of the six audit event categories.
type Category string

// Audit event categories.
const (
	CategoryConnections Category = "connections"
	CategoryFailedAuth  Category = "failed_auth"
	CategoryErrors      Category = "errors"
	CategoryCopy        Category = "copy"
	CategoryAdmin       Category = "admin"
	CategoryItems       Category = "items"
)

// Categories lists every valid category in a stable order.
func Categories() []Category {
	return []Category{
		CategoryConnections,
		CategoryFailedAuth,
		CategoryErrors,
		CategoryCopy,
		CategoryAdmin,
		CategoryItems,
	}
}

// ParseCategory validates a raw category value against the closed enum.
func ParseCategory(raw string) (Category, error) {
	c := Category(raw)
	if _, ok := catalog[c]; !ok {
		return "", shared.ErrInvalidCategory
	}
	return c, nil
}

// Column describes one queryable column of a category: the name clients use
// and the SQL column it maps to.
type Column struct {
	Name      string
	SQLColumn string
	// Numeric columns are searched on their decimal rendering.
	Numeric bool
}

// Config describes how one category maps onto the event store.
type Config struct {
	Table string
	// Columns is the sort/search allow-list, in display order. The first
	// entry is the default sort key (descending).
	Columns []Column
	// SupportsScope enables single-column search restriction.
	SupportsScope bool
	// ActionEquals restricts the table to rows with this action value.
	// Used by the copy category, which shares the items table.
	ActionEquals string
	// UserColumn and ActionColumn name the SQL columns the purge user/action
	// filters apply to. Empty means the category has no such column.
	UserColumn   string
	ActionColumn string
}

// DefaultSortColumn returns the category's default sort key.
func (c Config) DefaultSortColumn() Column {
	return c.Columns[0]
}

// FindColumn resolves a client-supplied column name against the allow-list.
func (c Config) FindColumn(name string) (Column, bool) {
	for _, col := range c.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

var catalog = map[Category]Config{
	CategoryConnections: {
		Table: "log_connections",
		Columns: []Column{
			{Name: "date", SQLColumn: "logged_at"},
			{Name: "user", SQLColumn: "login"},
			{Name: "action", SQLColumn: "action"},
			{Name: "ip", SQLColumn: "ip_address"},
		},
		UserColumn:   "login",
		ActionColumn: "action",
	},
	CategoryFailedAuth: {
		Table: "log_failed_auth",
		Columns: []Column{
			{Name: "date", SQLColumn: "logged_at"},
			{Name: "login", SQLColumn: "login"},
			{Name: "source", SQLColumn: "source"},
		},
		UserColumn: "login",
	},
	CategoryErrors: {
		Table: "log_errors",
		Columns: []Column{
			{Name: "date", SQLColumn: "logged_at"},
			{Name: "user", SQLColumn: "login"},
			{Name: "message", SQLColumn: "message"},
		},
		UserColumn: "login",
	},
	CategoryCopy: {
		Table: "log_items",
		Columns: []Column{
			{Name: "date", SQLColumn: "logged_at"},
			{Name: "user", SQLColumn: "login"},
			{Name: "id", SQLColumn: "item_id", Numeric: true},
			{Name: "label", SQLColumn: "item_label"},
		},
		ActionEquals: "copy",
		UserColumn:   "login",
	},
	CategoryAdmin: {
		Table: "log_admin",
		Columns: []Column{
			{Name: "date", SQLColumn: "logged_at"},
			{Name: "user", SQLColumn: "login"},
			{Name: "action", SQLColumn: "action"},
		},
		UserColumn:   "login",
		ActionColumn: "action",
	},
	CategoryItems: {
		Table: "log_items",
		Columns: []Column{
			{Name: "date", SQLColumn: "logged_at"},
			{Name: "id", SQLColumn: "item_id", Numeric: true},
			{Name: "label", SQLColumn: "item_label"},
			{Name: "folder", SQLColumn: "folder_title"},
			{Name: "user", SQLColumn: "login"},
			{Name: "action", SQLColumn: "action"},
		},
		SupportsScope: true,
		UserColumn:    "login",
		ActionColumn:  "action",
	},
}

// Lookup returns the store mapping for a category.
func (c Category) Lookup() Config {
	return catalog[c]
}
