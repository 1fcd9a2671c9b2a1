package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/studyowl/studyowl-api/internal/domain"
)

// StudySessionStore defines the interface for study session persistence.
//
// The schema enforces at most one incomplete session per (user, deck) pair
// through a partial unique index; Create surfaces a violation as
// ErrDuplicate.
type StudySessionStore interface {
	// Create saves a new study session.
	Create(ctx context.Context, session *domain.StudySession) error

	// GetByID retrieves a session by its unique ID.
	// Returns ErrSessionNotFound if the session does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.StudySession, error)

	// FindIncomplete returns the user's incomplete session for the deck.
	// Returns ErrSessionNotFound when no incomplete session exists.
	FindIncomplete(ctx context.Context, userID, deckID uuid.UUID) (*domain.StudySession, error)

	// FindLatest returns the user's most recently started session for the
	// deck, complete or not. Returns ErrSessionNotFound when the deck was
	// never studied.
	FindLatest(ctx context.Context, userID, deckID uuid.UUID) (*domain.StudySession, error)

	// Update saves changes to the session's counters and completion state.
	// Returns ErrSessionNotFound if the session does not exist.
	Update(ctx context.Context, session *domain.StudySession) error

	// Delete removes a session. Its reviews are removed by database-level
	// cascades. Returns ErrSessionNotFound if the session does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new StudySessionStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) StudySessionStore
}
