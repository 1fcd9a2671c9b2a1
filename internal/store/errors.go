package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors
	// (e.g., ErrDeckNotFound, ErrFlashcardNotFound).
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a user with the same email).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update operation fails, for example
	// because the entity does not exist or the update violates constraints.
	ErrUpdateFailed = errors.New("update failed")

	// Entity-specific "not found" errors

	// ErrUserNotFound indicates that the requested user does not exist in the store.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrDeckNotFound indicates that the requested deck does not exist in the store.
	ErrDeckNotFound = fmt.Errorf("%w: deck", ErrNotFound)

	// ErrFlashcardNotFound indicates that the requested flashcard does not exist in the store.
	ErrFlashcardNotFound = fmt.Errorf("%w: flashcard", ErrNotFound)

	// ErrSessionNotFound indicates that the requested study session does not exist in the store.
	ErrSessionNotFound = fmt.Errorf("%w: study session", ErrNotFound)

	// ErrStatsNotFound indicates that the requested user stats row does not exist in the store.
	ErrStatsNotFound = fmt.Errorf("%w: user stats", ErrNotFound)

	// ErrQuizSessionNotFound indicates that the requested quiz session does not exist in the store.
	ErrQuizSessionNotFound = fmt.Errorf("%w: quiz session", ErrNotFound)

	// ErrQuizStepNotFound indicates that the requested quiz step does not exist in the store.
	ErrQuizStepNotFound = fmt.Errorf("%w: quiz step", ErrNotFound)

	// ErrQuizQuestionNotFound indicates that the requested quiz question does not exist in the store.
	ErrQuizQuestionNotFound = fmt.Errorf("%w: quiz question", ErrNotFound)

	// ErrQuizOptionNotFound indicates that the requested quiz option does not exist in the store.
	ErrQuizOptionNotFound = fmt.Errorf("%w: quiz option", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrEmailExists indicates that a user with the given email already exists.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)

	// ErrQuestionExists indicates that a quiz step already has a question.
	// Questions are generated at most once per step.
	ErrQuestionExists = fmt.Errorf("%w: quiz question", ErrDuplicate)

	// ErrStepAlreadyAnswered indicates that a quiz step's answer fields were
	// already set. Answering is a guarded, write-once operation.
	ErrStepAlreadyAnswered = errors.New("quiz step already answered")
)

// IsNotFoundError checks if the error is any kind of "not found" error.
// This includes the generic ErrNotFound and all entity-specific not found errors.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
