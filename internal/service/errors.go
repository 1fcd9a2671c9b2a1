package service

import "errors"

// Service-level sentinel errors shared by the deck, study and quiz services.
var (
	// ErrNotOwner is returned when a user acts on an entity that belongs to
	// someone else. The API layer maps it to 403.
	ErrNotOwner = errors.New("entity does not belong to user")

	// ErrDeckTrashed is returned when an operation requires a live deck but
	// the deck is in the trash.
	ErrDeckTrashed = errors.New("deck is trashed")

	// ErrDeckNotTrashed is returned when restore is called on a deck that is
	// not in the trash.
	ErrDeckNotTrashed = errors.New("deck is not trashed")

	// ErrDeckEmpty is returned when a study session is started on a deck
	// with no flashcards.
	ErrDeckEmpty = errors.New("deck has no flashcards")
)
