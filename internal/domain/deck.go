package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Deck-specific validation errors
var (
	// ErrDeckIDEmpty is returned when a deck ID is empty or nil.
	ErrDeckIDEmpty = errors.New("deck ID cannot be empty")

	// ErrDeckUserIDEmpty is returned when a deck's user ID is empty or nil.
	ErrDeckUserIDEmpty = errors.New("deck user ID cannot be empty")

	// ErrDeckTitleEmpty is returned when a deck's title is empty.
	ErrDeckTitleEmpty = errors.New("deck title cannot be empty")

	// ErrDeckTagEmpty is returned when a deck carries an empty tag.
	ErrDeckTagEmpty = errors.New("deck tags cannot be empty strings")
)

// Deck is a user-owned collection of flashcards with denormalized study
// counters. ReviewCount and LastStudiedAt are maintained exclusively by the
// study session service and by flashcard-set mutations that invalidate
// prior review history.
type Deck struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	ReviewCount   int        `json:"review_count"`
	LastStudiedAt *time.Time `json:"last_studied_at,omitempty"`
	TrashedAt     *time.Time `json:"trashed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewDeck creates a new Deck with the given owner, title, description and tags.
// Returns an error if validation fails.
func NewDeck(userID uuid.UUID, title, description string, tags []string) (*Deck, error) {
	now := time.Now().UTC()
	deck := &Deck{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Tags:        tags,
		ReviewCount: 0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := deck.Validate(); err != nil {
		return nil, err
	}

	return deck, nil
}

// Validate checks if the Deck has valid data.
func (d *Deck) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDeckIDEmpty
	}

	if d.UserID == uuid.Nil {
		return ErrDeckUserIDEmpty
	}

	if d.Title == "" {
		return ErrDeckTitleEmpty
	}

	for _, tag := range d.Tags {
		if tag == "" {
			return ErrDeckTagEmpty
		}
	}

	return nil
}

// IsTrashed reports whether the deck is currently in the trash.
func (d *Deck) IsTrashed() bool {
	return d.TrashedAt != nil
}
