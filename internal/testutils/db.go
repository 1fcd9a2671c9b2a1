package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/studyowl/studyowl-api/internal/platform/postgres"
)

// SetupTestDatabaseSchema applies the embedded migrations to the test
// database. Safe to call repeatedly; goose skips applied versions.
func SetupTestDatabaseSchema(db *sql.DB) error {
	goose.SetBaseFS(postgres.MigrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// GetTestDB opens a connection to the test database and ensures the schema
// is current.
func GetTestDB() (*sql.DB, error) {
	db, err := sql.Open("pgx", MustGetTestDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to open test database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping test database: %w", err)
	}

	if err := SetupTestDatabaseSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

// WithTx runs fn inside a transaction that is always rolled back, so tests
// never leak rows into the shared database.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			t.Errorf("failed to roll back test transaction: %v", err)
		}
	}()

	fn(t, tx)
}
