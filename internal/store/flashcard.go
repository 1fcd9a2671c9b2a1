package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/studyowl/studyowl-api/internal/domain"
)

// FlashcardStore defines the interface for flashcard data persistence.
type FlashcardStore interface {
	// Create saves a single flashcard to the store.
	Create(ctx context.Context, card *domain.Flashcard) error

	// CreateMultiple saves multiple flashcards. Callers replacing a deck's
	// card set must run this inside a transaction together with the review
	// history invalidation; the method itself performs no transaction
	// management.
	CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error

	// GetByID retrieves a flashcard by its unique ID.
	// Returns ErrFlashcardNotFound if the flashcard does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Flashcard, error)

	// ListByDeck retrieves all of a deck's flashcards ordered by creation time.
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Flashcard, error)

	// CountByDeck returns the number of flashcards in the deck.
	CountByDeck(ctx context.Context, deckID uuid.UUID) (int, error)

	// Update saves changes to a flashcard's content fields (front, back,
	// bloom level, difficulty). Returns ErrFlashcardNotFound if the
	// flashcard does not exist.
	Update(ctx context.Context, card *domain.Flashcard) error

	// UpdateScheduling persists a flashcard's scheduler state (ease factor,
	// interval, repetition, performance average, review timestamps).
	// Returns ErrFlashcardNotFound if the flashcard does not exist.
	UpdateScheduling(ctx context.Context, card *domain.Flashcard) error

	// ResetSchedulingByDeck returns every flashcard of the deck to the
	// scheduler defaults (ease 2.5, interval 0, repetition 0, next review
	// null). Used when the deck's review history is invalidated.
	ResetSchedulingByDeck(ctx context.Context, deckID uuid.UUID, now time.Time) error

	// NextUnreviewed returns the earliest-created flashcard of the deck that
	// has no review in the given session, or ErrFlashcardNotFound when every
	// card has been reviewed.
	NextUnreviewed(ctx context.Context, deckID, sessionID uuid.UUID) (*domain.Flashcard, error)

	// Delete removes a flashcard. Its reviews are removed by database-level
	// cascades. Returns ErrFlashcardNotFound if the flashcard does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByDeck removes every flashcard of the deck.
	DeleteByDeck(ctx context.Context, deckID uuid.UUID) error

	// WithTx returns a new FlashcardStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) FlashcardStore
}
