package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Flashcard-specific validation errors
var (
	// ErrFlashcardIDEmpty is returned when a flashcard ID is empty or nil.
	ErrFlashcardIDEmpty = errors.New("flashcard ID cannot be empty")

	// ErrFlashcardDeckIDEmpty is returned when a flashcard's deck ID is empty or nil.
	ErrFlashcardDeckIDEmpty = errors.New("flashcard deck ID cannot be empty")

	// ErrFlashcardUserIDEmpty is returned when a flashcard's user ID is empty or nil.
	ErrFlashcardUserIDEmpty = errors.New("flashcard user ID cannot be empty")

	// ErrFlashcardFrontEmpty is returned when a flashcard's front side is empty.
	ErrFlashcardFrontEmpty = errors.New("flashcard front cannot be empty")

	// ErrFlashcardBackEmpty is returned when a flashcard's back side is empty.
	ErrFlashcardBackEmpty = errors.New("flashcard back cannot be empty")

	// ErrFlashcardBloomInvalid is returned when a flashcard's bloom level is unknown.
	ErrFlashcardBloomInvalid = errors.New("flashcard bloom level is invalid")

	// ErrFlashcardDifficultyInvalid is returned when a flashcard's difficulty is unknown.
	ErrFlashcardDifficultyInvalid = errors.New("flashcard difficulty is invalid")

	// ErrFlashcardEaseFactorTooLow is returned when a flashcard's ease factor
	// would fall below the scheduler floor.
	ErrFlashcardEaseFactorTooLow = errors.New("flashcard ease factor cannot be below 1.3")

	// ErrFlashcardIntervalNegative is returned when a flashcard's interval is negative.
	ErrFlashcardIntervalNegative = errors.New("flashcard interval cannot be negative")

	// ErrFlashcardRepetitionNegative is returned when a flashcard's repetition count is negative.
	ErrFlashcardRepetitionNegative = errors.New("flashcard repetition cannot be negative")
)

// Scheduler defaults for newly created or reset flashcards.
const (
	// DefaultEaseFactor is the ease factor assigned to a card that has never
	// been reviewed, or whose review history has been invalidated.
	DefaultEaseFactor = 2.5

	// MinEaseFactor is the floor below which a card's ease factor never drops.
	MinEaseFactor = 1.3
)

// Flashcard is a single card owned by a user, belonging to exactly one deck,
// carrying its own spaced-repetition scheduler state.
//
// NextReviewAt is nil only before the card's first review. PerformanceAvg is
// a derived rolling window over the most recent reviews, not a cumulative
// average.
type Flashcard struct {
	ID             uuid.UUID  `json:"id"`
	DeckID         uuid.UUID  `json:"deck_id"`
	UserID         uuid.UUID  `json:"user_id"`
	Front          string     `json:"front"`
	Back           string     `json:"back"`
	BloomLevel     BloomLevel `json:"bloom_level"`
	Difficulty     Difficulty `json:"difficulty"`
	EaseFactor     float64    `json:"ease_factor"`
	Interval       int        `json:"interval"`
	Repetition     int        `json:"repetition"`
	PerformanceAvg float64    `json:"performance_avg"`
	NextReviewAt   *time.Time `json:"next_review_at,omitempty"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewFlashcard creates a new Flashcard in the default scheduler state:
// ease 2.5, interval 0, repetition 0, no next review scheduled.
func NewFlashcard(
	userID, deckID uuid.UUID,
	front, back string,
	bloom BloomLevel,
	difficulty Difficulty,
) (*Flashcard, error) {
	now := time.Now().UTC()
	card := &Flashcard{
		ID:         uuid.New(),
		DeckID:     deckID,
		UserID:     userID,
		Front:      front,
		Back:       back,
		BloomLevel: bloom,
		Difficulty: difficulty,
		EaseFactor: DefaultEaseFactor,
		Interval:   0,
		Repetition: 0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Flashcard has valid data, including the scheduler
// invariants (ease factor floor, non-negative interval and repetition).
func (c *Flashcard) Validate() error {
	if c.ID == uuid.Nil {
		return ErrFlashcardIDEmpty
	}

	if c.DeckID == uuid.Nil {
		return ErrFlashcardDeckIDEmpty
	}

	if c.UserID == uuid.Nil {
		return ErrFlashcardUserIDEmpty
	}

	if c.Front == "" {
		return ErrFlashcardFrontEmpty
	}

	if c.Back == "" {
		return ErrFlashcardBackEmpty
	}

	if !c.BloomLevel.IsValid() {
		return ErrFlashcardBloomInvalid
	}

	if !c.Difficulty.IsValid() {
		return ErrFlashcardDifficultyInvalid
	}

	if c.EaseFactor < MinEaseFactor {
		return ErrFlashcardEaseFactorTooLow
	}

	if c.Interval < 0 {
		return ErrFlashcardIntervalNegative
	}

	if c.Repetition < 0 {
		return ErrFlashcardRepetitionNegative
	}

	return nil
}

// ResetScheduling returns the card's scheduler fields to the defaults used
// for a never-reviewed card. Called when a deck's review history is
// invalidated (card set changed, session abandoned).
func (c *Flashcard) ResetScheduling(now time.Time) {
	c.EaseFactor = DefaultEaseFactor
	c.Interval = 0
	c.Repetition = 0
	c.PerformanceAvg = 0
	c.NextReviewAt = nil
	c.LastReviewedAt = nil
	c.UpdatedAt = now
}
