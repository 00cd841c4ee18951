package logs

import (
	"time"

	"github.com/vaultkeep/audit-service/internal/domain/shared"
)

// PurgeParams is the delete scope for one category. The predicate is the same
// one the read path applies, so the rows a purge removes are exactly the rows
// a filtered view shows.
type PurgeParams struct {
	Category Category
	// DateStart and DateEnd bound Timestamp, both inclusive.
	DateStart *time.Time
	DateEnd   *time.Time
	// UserFilter and ActionFilter are exact-match predicates. Empty means no
	// constraint, not "match empty".
	UserFilter   string
	ActionFilter string
	// AllRecords must be set explicitly to purge an unfiltered category.
	AllRecords bool
}

// Validate checks the purge scope. A scope with no filters at all is rejected
// unless AllRecords was explicitly selected, so a half-filled form can never
// wipe a table. An action filter on a category that has no action column is
// rejected rather than ignored: silently dropping it would delete more than
// the caller intended.
func (p PurgeParams) Validate() error {
	cfg, ok := catalog[p.Category]
	if !ok {
		return shared.ErrInvalidCategory
	}
	if p.DateStart != nil && p.DateEnd != nil && p.DateStart.After(*p.DateEnd) {
		return shared.ErrInvalidDateRange
	}
	if p.ActionFilter != "" && cfg.ActionColumn == "" {
		return shared.ErrInvalidFilter
	}
	if p.UserFilter != "" && cfg.UserColumn == "" {
		return shared.ErrInvalidFilter
	}
	if p.isEmpty() && !p.AllRecords {
		return shared.ErrEmptyPurgeScope
	}
	return nil
}

func (p PurgeParams) isEmpty() bool {
	return p.DateStart == nil && p.DateEnd == nil && p.UserFilter == "" && p.ActionFilter == ""
}

// PurgeResult reports a completed purge.
type PurgeResult struct {
	Category     Category
	DeletedCount int64
}
