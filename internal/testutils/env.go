// Package testutils centralizes test setup shared across packages:
// integration test environment detection and database schema setup.
package testutils

import (
	"os"
	"testing"
)

// IsIntegrationTestEnvironment reports whether a test database is available.
// Integration tests skip themselves when it returns false.
func IsIntegrationTestEnvironment() bool {
	return os.Getenv("DATABASE_URL") != ""
}

// GetTestDatabaseURL returns the test database URL, failing the test when it
// is not configured.
func GetTestDatabaseURL(t *testing.T) string {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL environment variable is required for this test")
	}
	return dbURL
}

// MustGetTestDatabaseURL is GetTestDatabaseURL for TestMain, where no
// testing.T exists.
func MustGetTestDatabaseURL() string {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		panic("DATABASE_URL environment variable is required for integration tests")
	}
	return dbURL
}
