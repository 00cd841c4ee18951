package postgres_test

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/vaultkeep/audit-service/internal/infrastructure/config"
	"github.com/vaultkeep/audit-service/internal/infrastructure/postgres"
)

func skipIfNoIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test (set INTEGRATION_TEST=true)")
	}
}

func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	skipIfNoIntegration(t)

	cfg := &config.DatabaseConfig{
		Host:            envOrDefault("TEST_DB_HOST", "localhost"),
		Port:            intEnvOrDefault("TEST_DB_PORT", 5436),
		User:            envOrDefault("TEST_DB_USER", "vault"),
		Password:        envOrDefault("TEST_DB_PASSWORD", "vault123"),
		Name:            envOrDefault("TEST_DB_NAME", "vault_audit_test"),
		SSLMode:         envOrDefault("TEST_DB_SSLMODE", "disable"),
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}

	db, err := postgres.NewConnection(cfg)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func intEnvOrDefault(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

// truncateLogs empties every log table so each test starts from a known state.
func truncateLogs(t *testing.T, db *postgres.DB) {
	t.Helper()
	ctx := context.Background()
	for _, table := range []string{"log_connections", "log_failed_auth", "log_errors", "log_admin", "log_items"} {
		if _, err := db.ExecContext(ctx, "TRUNCATE "+table+" RESTART IDENTITY"); err != nil {
			t.Fatalf("Failed to truncate %s: %v", table, err)
		}
	}
}

func insertConnection(t *testing.T, db *postgres.DB, at time.Time, login, action, ip string) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		"INSERT INTO log_connections (logged_at, login, action, ip_address) VALUES ($1, $2, $3, $4)",
		at, login, action, ip)
	if err != nil {
		t.Fatalf("Failed to insert connection event: %v", err)
	}
}

func insertFailedAuth(t *testing.T, db *postgres.DB, at time.Time, login, source string) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		"INSERT INTO log_failed_auth (logged_at, login, source) VALUES ($1, $2, $3)",
		at, login, source)
	if err != nil {
		t.Fatalf("Failed to insert failed auth event: %v", err)
	}
}

func insertItemEvent(t *testing.T, db *postgres.DB, at time.Time, itemID int64, label, folder, login, action string) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		"INSERT INTO log_items (logged_at, item_id, item_label, folder_title, login, action) VALUES ($1, $2, $3, $4, $5, $6)",
		at, itemID, label, folder, login, action)
	if err != nil {
		t.Fatalf("Failed to insert item event: %v", err)
	}
}
