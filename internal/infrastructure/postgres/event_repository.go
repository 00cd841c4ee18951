package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vaultkeep/audit-service/internal/domain/logs"
	"github.com/vaultkeep/audit-service/internal/domain/shared"
)

const (
	sortASC  = "ASC"
	sortDESC = "DESC"
)

// EventRepository implements logs.Repository against the five log tables.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// Page executes a validated page request: unfiltered count, filtered count,
// then the sorted page. The three statements run in one repeatable-read
// transaction so concurrent writers cannot shift the counts between them;
// without the shared snapshot a commit landing between the two counts could
// report more filtered events than total events. Ties in the sort key are
// broken by id ASC so identical requests against an unchanged snapshot
// return identical pages.
func (r *EventRepository) Page(ctx context.Context, params logs.PageParams) (*logs.PageResult, error) {
	var page *logs.PageResult
	err := r.db.Transaction(ctx, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	}, func(tx *sql.Tx) error {
		var txErr error
		page, txErr = r.pageTx(ctx, tx, params)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (r *EventRepository) pageTx(ctx context.Context, tx *sql.Tx, params logs.PageParams) (*logs.PageResult, error) {
	cfg := params.Config()

	baseClause, baseArgs, argPos := buildBaseFilter(cfg)

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", cfg.Table, baseClause)
	if err := tx.QueryRowContext(ctx, countQuery, baseArgs...).Scan(&total); err != nil {
		return nil, shared.NewDomainError("event_count_failed",
			fmt.Sprintf("failed to count %s events", params.Category), err)
	}

	whereClause, args, argPos := buildSearchFilter(cfg, params, baseClause, baseArgs, argPos)

	var filtered int64
	filteredQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", cfg.Table, whereClause)
	if err := tx.QueryRowContext(ctx, filteredQuery, args...).Scan(&filtered); err != nil {
		return nil, shared.NewDomainError("event_count_failed",
			fmt.Sprintf("failed to count filtered %s events", params.Category), err)
	}

	sortOrder := sortASC
	if params.SortDesc {
		sortOrder = sortDESC
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY %s %s, id ASC
		LIMIT $%d OFFSET $%d
	`, selectColumns(cfg.Table), cfg.Table, whereClause, params.Sort.SQLColumn, sortOrder, argPos, argPos+1)

	args = append(args, params.Limit, params.Offset)

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, shared.NewDomainError("event_query_failed",
			fmt.Sprintf("failed to query %s events", params.Category), err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close rows in event page")
		}
	}()

	events := []logs.Event{}
	for rows.Next() {
		event, err := scanEvent(cfg.Table, rows)
		if err != nil {
			return nil, shared.NewDomainError("event_scan_failed",
				fmt.Sprintf("failed to scan %s event", params.Category), err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.NewDomainError("event_query_failed",
			fmt.Sprintf("failed to read %s events", params.Category), err)
	}

	return &logs.PageResult{
		TotalCount:    total,
		FilteredCount: filtered,
		Rows:          events,
	}, nil
}

// Purge deletes every event in the scope with a single statement, so the
// delete is atomic per category: all qualifying rows removed or none.
func (r *EventRepository) Purge(ctx context.Context, params logs.PurgeParams) (int64, error) {
	cfg := params.Category.Lookup()

	whereClause, args, _ := buildPurgeFilter(cfg, params)

	query := fmt.Sprintf("DELETE FROM %s WHERE %s", cfg.Table, whereClause)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, shared.NewDomainError("event_purge_failed",
			fmt.Sprintf("failed to purge %s events", params.Category), err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, shared.NewDomainError("event_purge_failed", "failed to read purge row count", err)
	}
	return deleted, nil
}

// buildBaseFilter restricts shared tables to the category's rows.
func buildBaseFilter(cfg logs.Config) (string, []interface{}, int) {
	if cfg.ActionEquals == "" {
		return "1=1", nil, 1
	}
	return "action = $1", []interface{}{cfg.ActionEquals}, 2
}

// buildSearchFilter appends the case-insensitive substring search to the base
// predicate. A scoped search touches one column; an unscoped search touches
// every allow-listed column.
func buildSearchFilter(cfg logs.Config, params logs.PageParams, baseClause string, baseArgs []interface{}, argPos int) (string, []interface{}, int) {
	if params.Search == "" {
		return baseClause, baseArgs, argPos
	}

	columns := cfg.Columns
	if params.Scope != nil {
		columns = []logs.Column{*params.Scope}
	}

	var matches []string
	for _, col := range columns {
		matches = append(matches, fmt.Sprintf("%s ILIKE $%d", searchExpr(col), argPos))
	}

	clause := fmt.Sprintf("%s AND (%s)", baseClause, strings.Join(matches, " OR "))
	args := append(baseArgs, "%"+params.Search+"%")
	return clause, args, argPos + 1
}

// buildPurgeFilter builds the delete predicate with the same semantics as the
// read path: base category restriction, inclusive date range, exact user and
// action matches.
func buildPurgeFilter(cfg logs.Config, params logs.PurgeParams) (string, []interface{}, int) {
	clause, args, argPos := buildBaseFilter(cfg)
	conditions := []string{clause}

	if params.DateStart != nil {
		conditions = append(conditions, fmt.Sprintf("logged_at >= $%d", argPos))
		args = append(args, *params.DateStart)
		argPos++
	}
	if params.DateEnd != nil {
		conditions = append(conditions, fmt.Sprintf("logged_at <= $%d", argPos))
		args = append(args, *params.DateEnd)
		argPos++
	}
	if params.UserFilter != "" {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", cfg.UserColumn, argPos))
		args = append(args, params.UserFilter)
		argPos++
	}
	if params.ActionFilter != "" {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", cfg.ActionColumn, argPos))
		args = append(args, params.ActionFilter)
		argPos++
	}

	return strings.Join(conditions, " AND "), args, argPos
}

// searchExpr renders a column for ILIKE matching. Timestamps and numeric
// columns are matched on their text rendering.
func searchExpr(col logs.Column) string {
	if col.Numeric || col.SQLColumn == "logged_at" {
		return col.SQLColumn + "::text"
	}
	return col.SQLColumn
}

func selectColumns(table string) string {
	switch table {
	case "log_connections":
		return "id, logged_at, login, action, ip_address"
	case "log_failed_auth":
		return "id, logged_at, login, source"
	case "log_errors":
		return "id, logged_at, login, message"
	case "log_admin":
		return "id, logged_at, login, action"
	default: // log_items
		return "id, logged_at, item_id, item_label, folder_title, login, action"
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(table string, rows rowScanner) (logs.Event, error) {
	var e logs.Event
	var err error
	switch table {
	case "log_connections":
		err = rows.Scan(&e.ID, &e.Timestamp, &e.Login, &e.Action, &e.IPAddress)
	case "log_failed_auth":
		err = rows.Scan(&e.ID, &e.Timestamp, &e.Login, &e.Source)
	case "log_errors":
		err = rows.Scan(&e.ID, &e.Timestamp, &e.Login, &e.Message)
	case "log_admin":
		err = rows.Scan(&e.ID, &e.Timestamp, &e.Login, &e.Action)
	default: // log_items
		err = rows.Scan(&e.ID, &e.Timestamp, &e.ItemID, &e.ItemLabel, &e.FolderTitle, &e.Login, &e.Action)
	}
	return e, err
}
