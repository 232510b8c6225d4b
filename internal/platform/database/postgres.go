// internal/platform/database/postgres.go
package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"github.com/rs/zerolog/log"

	"inkvault/internal/config"
)

// DB wraps the connection pool. The pool is created at process startup,
// passed down explicitly, and closed on shutdown; no package-level state.
type DB struct {
	SQL *sqlx.DB
}

// New creates a new database connection pool.
func New(cfg config.Config) (*DB, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	log.Info().Msg("Connecting to database...")
	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetConnMaxLifetime(time.Minute * 3)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)

	log.Info().Msg("Database connection successful.")
	return &DB{SQL: db}, nil
}

// Close gracefully closes the database connection.
func (db *DB) Close() {
	log.Info().Msg("Closing database connection.")
	db.SQL.Close()
}
