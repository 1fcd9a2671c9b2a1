package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/studyowl/studyowl-api/internal/domain"
)

// ReviewStore defines the interface for the append-only flashcard review log.
type ReviewStore interface {
	// Create appends one review record. Reviews are never updated.
	Create(ctx context.Context, review *domain.FlashcardReview) error

	// CountBySession returns how many reviews were recorded in the session.
	CountBySession(ctx context.Context, sessionID uuid.UUID) (int, error)

	// RecentGrades returns the grades of the flashcard's most recent reviews,
	// newest first, limited to limit entries. Feeds the rolling performance
	// average.
	RecentGrades(ctx context.Context, flashcardID uuid.UUID, limit int) ([]int, error)

	// DeleteByDeck removes every review of every flashcard in the deck.
	// Part of the review-history invalidation protocol.
	DeleteByDeck(ctx context.Context, deckID uuid.UUID) error

	// DeleteBySession removes every review recorded in the session.
	DeleteBySession(ctx context.Context, sessionID uuid.UUID) error

	// WithTx returns a new ReviewStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ReviewStore
}
