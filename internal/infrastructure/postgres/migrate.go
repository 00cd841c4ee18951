package postgres

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// The five log tables. Events are append-only: nothing updates them, the
// only delete path is a purge. The copy category shares log_items.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS log_connections (
		id         BIGSERIAL PRIMARY KEY,
		logged_at  TIMESTAMPTZ NOT NULL,
		login      TEXT NOT NULL,
		action     TEXT NOT NULL,
		ip_address TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS log_failed_auth (
		id        BIGSERIAL PRIMARY KEY,
		logged_at TIMESTAMPTZ NOT NULL,
		login     TEXT NOT NULL,
		source    TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS log_errors (
		id        BIGSERIAL PRIMARY KEY,
		logged_at TIMESTAMPTZ NOT NULL,
		login     TEXT NOT NULL DEFAULT '',
		message   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS log_admin (
		id        BIGSERIAL PRIMARY KEY,
		logged_at TIMESTAMPTZ NOT NULL,
		login     TEXT NOT NULL,
		action    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS log_items (
		id           BIGSERIAL PRIMARY KEY,
		logged_at    TIMESTAMPTZ NOT NULL,
		item_id      BIGINT NOT NULL,
		item_label   TEXT NOT NULL DEFAULT '',
		folder_title TEXT NOT NULL DEFAULT '',
		login        TEXT NOT NULL,
		action       TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_log_connections_logged_at ON log_connections (logged_at)`,
	`CREATE INDEX IF NOT EXISTS idx_log_failed_auth_logged_at ON log_failed_auth (logged_at)`,
	`CREATE INDEX IF NOT EXISTS idx_log_errors_logged_at ON log_errors (logged_at)`,
	`CREATE INDEX IF NOT EXISTS idx_log_admin_logged_at ON log_admin (logged_at)`,
	`CREATE INDEX IF NOT EXISTS idx_log_items_logged_at ON log_items (logged_at)`,
	`CREATE INDEX IF NOT EXISTS idx_log_items_action ON log_items (action)`,
}

// Migrate applies the log table schema. Statements are idempotent, so it is
// safe to run on every startup.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	log.Info().Msg("Log table schema applied")
	return nil
}
