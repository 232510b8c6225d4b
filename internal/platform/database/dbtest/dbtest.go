// internal/platform/database/dbtest/dbtest.go
// Package dbtest provides a shared Postgres fixture for service tests.
package dbtest

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Setup attempts to connect to a PostgreSQL database for testing, applies the
// schema, and truncates all tables. It skips the test if the connection
// cannot be established.
func Setup(t testing.TB) *sqlx.DB {
	t.Helper()

	pgUser := envOr("PGUSER", "user")
	pgPassword := envOr("PGPASSWORD", "password")
	pgHost := envOr("PGHOST", "localhost")
	pgPort := envOr("PGPORT", "5432")
	pgDB := envOr("PGDATABASE", "testdb")

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pgHost, pgPort, pgUser, pgPassword, pgDB)

	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open database connection: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("skipping database tests: could not connect to postgres: %v", err)
	}

	schema, err := os.ReadFile(schemaPath())
	if err != nil {
		t.Fatalf("failed to read schema: %v", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	_, err = db.Exec(`TRUNCATE TABLE commerce_events, entitlements, order_items, orders, cart_items, carts, books CASCADE`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func schemaPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "db", "schema.sql")
}
