package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Review grading scale. A grade of PassingGrade or above counts as a
// successful recall.
const (
	MinGrade     = 0
	MaxGrade     = 5
	PassingGrade = 3
)

// Review-specific validation errors
var (
	// ErrReviewIDEmpty is returned when a review ID is empty or nil.
	ErrReviewIDEmpty = errors.New("review ID cannot be empty")

	// ErrReviewFlashcardIDEmpty is returned when a review's flashcard ID is empty or nil.
	ErrReviewFlashcardIDEmpty = errors.New("review flashcard ID cannot be empty")

	// ErrReviewSessionIDEmpty is returned when a review's session ID is empty or nil.
	ErrReviewSessionIDEmpty = errors.New("review session ID cannot be empty")

	// ErrReviewGradeOutOfRange is returned when a review grade is outside [0, 5].
	ErrReviewGradeOutOfRange = errors.New("review grade must be between 0 and 5")

	// ErrReviewTimeNegative is returned when a review's time-to-answer is negative.
	ErrReviewTimeNegative = errors.New("review time to answer cannot be negative")
)

// FlashcardReview is an immutable, append-only record of one grading event.
// Reviews are created by the study session service only and are never
// mutated; they disappear only through flashcard/deck deletion cascades or
// deliberate review-history invalidation.
type FlashcardReview struct {
	ID             uuid.UUID `json:"id"`
	FlashcardID    uuid.UUID `json:"flashcard_id"`
	SessionID      uuid.UUID `json:"session_id"`
	Grade          int       `json:"grade"`
	TimeToAnswerMs int       `json:"time_to_answer_ms"`
	Notes          string    `json:"notes,omitempty"`
	ReviewedAt     time.Time `json:"reviewed_at"`
}

// NewFlashcardReview creates a new FlashcardReview for the given card,
// session and grade. Returns an error if validation fails.
func NewFlashcardReview(
	flashcardID, sessionID uuid.UUID,
	grade, timeToAnswerMs int,
	notes string,
) (*FlashcardReview, error) {
	review := &FlashcardReview{
		ID:             uuid.New(),
		FlashcardID:    flashcardID,
		SessionID:      sessionID,
		Grade:          grade,
		TimeToAnswerMs: timeToAnswerMs,
		Notes:          notes,
		ReviewedAt:     time.Now().UTC(),
	}

	if err := review.Validate(); err != nil {
		return nil, err
	}

	return review, nil
}

// Validate checks if the FlashcardReview has valid data.
func (r *FlashcardReview) Validate() error {
	if r.ID == uuid.Nil {
		return ErrReviewIDEmpty
	}

	if r.FlashcardID == uuid.Nil {
		return ErrReviewFlashcardIDEmpty
	}

	if r.SessionID == uuid.Nil {
		return ErrReviewSessionIDEmpty
	}

	if r.Grade < MinGrade || r.Grade > MaxGrade {
		return ErrReviewGradeOutOfRange
	}

	if r.TimeToAnswerMs < 0 {
		return ErrReviewTimeNegative
	}

	return nil
}

// IsCorrect reports whether the review counts as a successful recall.
func (r *FlashcardReview) IsCorrect() bool {
	return r.Grade >= PassingGrade
}
