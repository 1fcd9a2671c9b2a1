package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/studyowl/studyowl-api/internal/domain"
)

// DeckStore defines the interface for deck data persistence.
//
// The deck's denormalized study counters (review_count, last_studied_at) are
// mutated only through IncrementReviewCount and ResetStudyCounters so their
// consistency with the review history is auditable in one place.
type DeckStore interface {
	// Create saves a new deck to the store.
	Create(ctx context.Context, deck *domain.Deck) error

	// GetByID retrieves a deck by its unique ID, trashed or not.
	// Returns ErrDeckNotFound if the deck does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// ListByUser retrieves the user's decks ordered by creation time.
	// Trashed decks are excluded unless includeTrashed is set.
	ListByUser(ctx context.Context, userID uuid.UUID, includeTrashed bool) ([]*domain.Deck, error)

	// Update saves changes to a deck's title, description, tags and
	// trashed_at marker. Returns ErrDeckNotFound if the deck does not exist.
	Update(ctx context.Context, deck *domain.Deck) error

	// IncrementReviewCount bumps the deck's review counter by one and stamps
	// last_studied_at. Must run inside the same transaction as the review
	// insert it accounts for.
	IncrementReviewCount(ctx context.Context, deckID uuid.UUID, studiedAt time.Time) error

	// ResetStudyCounters zeroes review_count and clears last_studied_at.
	// Called whenever the deck's review history is invalidated.
	ResetStudyCounters(ctx context.Context, deckID uuid.UUID) error

	// Delete permanently removes a deck. Flashcards, reviews and sessions
	// hanging off the deck are removed by database-level cascades.
	// Returns ErrDeckNotFound if the deck does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new DeckStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) DeckStore
}
