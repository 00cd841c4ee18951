package logs

import (
	"strings"

	"github.com/vaultkeep/audit-service/internal/domain/shared"
)

// ScopeAll is the sentinel clients may send to mean "search every column".
// It is normalized away here so the rest of the code never compares it.
const ScopeAll = "all"

// PageQuery is the raw, untrusted page request as received from a client.
type PageQuery struct {
	Category   string
	Offset     int
	Limit      int
	SortColumn string
	SortOrder  string
	Search     string
	Scope      string
}

// PageParams is a validated page request bound to one category. Build it with
// NewPageParams; every field is safe to interpolate into a query plan.
type PageParams struct {
	Category Category
	Offset   int
	Limit    int
	Sort     Column
	SortDesc bool
	// Search is matched case-insensitively as a substring.
	Search string
	// Scope restricts Search to a single column. Nil means all searchable
	// columns of the category.
	Scope *Column
}

// Config returns the store mapping for the request's category.
func (p PageParams) Config() Config {
	return p.Category.Lookup()
}

// NewPageParams validates a raw page query. An unknown category is an error;
// an unknown sort column or column scope falls back to the category default,
// because those values originate from UI controls with a fixed option set and
// failing the whole request would make the view unusable.
func NewPageParams(q PageQuery, defaultLimit, maxLimit int) (PageParams, error) {
	category, err := ParseCategory(q.Category)
	if err != nil {
		return PageParams{}, err
	}
	cfg := category.Lookup()

	p := PageParams{
		Category: category,
		Offset:   q.Offset,
		Limit:    q.Limit,
		Search:   strings.TrimSpace(q.Search),
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}

	p.Sort, p.SortDesc = resolveSort(cfg, q.SortColumn, q.SortOrder)
	p.Scope = resolveScope(cfg, q.Scope)

	return p, nil
}

// resolveSort maps the requested sort onto the category allow-list. The
// default sort is the category's first column, descending (newest first).
func resolveSort(cfg Config, column, order string) (Column, bool) {
	if col, ok := cfg.FindColumn(column); ok {
		return col, strings.EqualFold(order, "desc")
	}
	return cfg.DefaultSortColumn(), true
}

// resolveScope maps a requested column scope onto the allow-list. Scope is
// only honored for categories that support it; "all", empty, and unknown
// values all mean unscoped.
func resolveScope(cfg Config, scope string) *Column {
	if !cfg.SupportsScope || scope == "" || scope == ScopeAll {
		return nil
	}
	if col, ok := cfg.FindColumn(scope); ok {
		return &col
	}
	return nil
}

// ValidateScope reports whether a raw scope value would be honored for the
// category. Exposed for clients that want to reject input early instead of
// relying on the server-side fallback.
func ValidateScope(category Category, scope string) error {
	cfg := category.Lookup()
	if scope == "" || scope == ScopeAll {
		return nil
	}
	if !cfg.SupportsScope {
		return shared.ErrInvalidColumnScope
	}
	if _, ok := cfg.FindColumn(scope); !ok {
		return shared.ErrInvalidColumnScope
	}
	return nil
}
