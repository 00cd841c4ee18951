package logs

import "context"

// Repository defines the event store contract. Reads are snapshot-consistent
// within one call only; concurrent writers may shift offset-based pages
// between calls. Purge must be atomic per call: all qualifying rows removed
// or none.
type Repository interface {
	// Page executes a validated page request against one category and
	// returns the page envelope (total count, filtered count, rows).
	Page(ctx context.Context, params PageParams) (*PageResult, error)

	// Purge deletes every event matching the scope and returns the number
	// of rows removed.
	Purge(ctx context.Context, params PurgeParams) (int64, error)
}
