package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/studyowl/studyowl-api/internal/generation"
	"github.com/studyowl/studyowl-api/internal/service"
	"github.com/studyowl/studyowl-api/internal/service/auth"
	"github.com/studyowl/studyowl-api/internal/service/quiz"
	"github.com/studyowl/studyowl-api/internal/service/studysession"
	"github.com/studyowl/studyowl-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes so that
// internal error types never leak to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrNotOwner):
		return http.StatusForbidden

	// Not found
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	// Lifecycle conflicts
	case store.IsDuplicateError(err),
		errors.Is(err, store.ErrStepAlreadyAnswered),
		errors.Is(err, studysession.ErrSessionCompleted),
		errors.Is(err, studysession.ErrRestudyNotAllowed),
		errors.Is(err, quiz.ErrSessionNotActive),
		errors.Is(err, quiz.ErrStepNotGenerated),
		errors.Is(err, service.ErrDeckTrashed),
		errors.Is(err, service.ErrDeckNotTrashed):
		return http.StatusConflict

	// Bad requests
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, studysession.ErrFlashcardNotInDeck),
		errors.Is(err, quiz.ErrOptionNotInQuestion),
		errors.Is(err, service.ErrDeckEmpty):
		return http.StatusBadRequest

	// Upstream generation failures
	case errors.Is(err, generation.ErrContentBlocked):
		return http.StatusUnprocessableEntity
	case errors.Is(err, generation.ErrGenerationFailed),
		errors.Is(err, generation.ErrInvalidResponse),
		errors.Is(err, generation.ErrTransientFailure):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-facing message for the
// error. Internal detail stays in the logs.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"

	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"

	case errors.Is(err, service.ErrNotOwner):
		return "You do not own this resource"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, store.ErrDeckNotFound):
		return "Deck not found"
	case errors.Is(err, store.ErrFlashcardNotFound):
		return "Flashcard not found"
	case errors.Is(err, store.ErrSessionNotFound):
		return "Study session not found"
	case errors.Is(err, store.ErrQuizSessionNotFound):
		return "Quiz session not found"
	case errors.Is(err, store.ErrQuizStepNotFound):
		return "Quiz step not found"
	case errors.Is(err, store.ErrQuizQuestionNotFound):
		return "Quiz question not found"
	case store.IsNotFoundError(err):
		return "Resource not found"

	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"
	case errors.Is(err, store.ErrQuestionExists):
		return "Question already generated for this step"
	case errors.Is(err, store.ErrStepAlreadyAnswered):
		return "Step already answered"

	case errors.Is(err, studysession.ErrSessionCompleted):
		return "Study session already completed"
	case errors.Is(err, studysession.ErrRestudyNotAllowed):
		return "Deck was already studied"
	case errors.Is(err, studysession.ErrFlashcardNotInDeck):
		return "Flashcard does not belong to this session's deck"

	case errors.Is(err, quiz.ErrSessionNotActive):
		return "Quiz session is not active"
	case errors.Is(err, quiz.ErrStepNotGenerated):
		return "Step has no question yet"
	case errors.Is(err, quiz.ErrOptionNotInQuestion):
		return "Option does not belong to this question"

	case errors.Is(err, service.ErrDeckTrashed):
		return "Deck is in the trash"
	case errors.Is(err, service.ErrDeckNotTrashed):
		return "Deck is not in the trash"
	case errors.Is(err, service.ErrDeckEmpty):
		return "Deck has no flashcards"

	case errors.Is(err, generation.ErrContentBlocked):
		return "Content was blocked by the generation provider"
	case errors.Is(err, generation.ErrGenerationFailed),
		errors.Is(err, generation.ErrInvalidResponse),
		errors.Is(err, generation.ErrTransientFailure):
		return "Content generation failed"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns a validator error into a short user-facing
// message without echoing submitted values.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// "Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, validationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "gte", "lte":
		return "out of range"
	default:
		return "validation failed"
	}
}
