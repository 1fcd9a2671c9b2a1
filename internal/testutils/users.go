package testutils

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/studyowl/studyowl-api/internal/store"
)

// MustInsertUser inserts a user row directly and returns its ID. bcryptCost
// should be bcrypt.MinCost in tests; hashing at default cost dominates test
// runtime otherwise.
func MustInsertUser(ctx context.Context, t *testing.T, db store.DBTX, email string, bcryptCost int) uuid.UUID {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("test password value"), bcryptCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	id := uuid.New()
	query := `
		INSERT INTO users (id, email, hashed_password, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`
	if _, err := db.ExecContext(ctx, query, id, email, string(hash)); err != nil {
		t.Fatalf("failed to insert test user: %v", err)
	}
	return id
}

// UniqueEmail returns an email address that will not collide across tests
// sharing a database.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@example.com", prefix, uuid.New().String()[:8])
}
