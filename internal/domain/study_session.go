package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// StudySession-specific validation errors
var (
	// ErrSessionIDEmpty is returned when a session ID is empty or nil.
	ErrSessionIDEmpty = errors.New("study session ID cannot be empty")

	// ErrSessionDeckIDEmpty is returned when a session's deck ID is empty or nil.
	ErrSessionDeckIDEmpty = errors.New("study session deck ID cannot be empty")

	// ErrSessionUserIDEmpty is returned when a session's user ID is empty or nil.
	ErrSessionUserIDEmpty = errors.New("study session user ID cannot be empty")

	// ErrSessionCountsNegative is returned when a session carries negative counters.
	ErrSessionCountsNegative = errors.New("study session counters cannot be negative")
)

// StudySession is one bounded run of flashcard reviews for a (user, deck)
// pair. At most one incomplete session per pair exists at a time; completed
// sessions are immutable history.
type StudySession struct {
	ID           uuid.UUID  `json:"id"`
	DeckID       uuid.UUID  `json:"deck_id"`
	UserID       uuid.UUID  `json:"user_id"`
	Completed    bool       `json:"completed"`
	CorrectCount int        `json:"correct_count"`
	WrongCount   int        `json:"wrong_count"`
	CurrentIndex int        `json:"current_index"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
}

// NewStudySession creates a new incomplete session for the given user and deck.
func NewStudySession(userID, deckID uuid.UUID) (*StudySession, error) {
	session := &StudySession{
		ID:        uuid.New(),
		DeckID:    deckID,
		UserID:    userID,
		StartedAt: time.Now().UTC(),
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate checks if the StudySession has valid data.
func (s *StudySession) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSessionIDEmpty
	}

	if s.DeckID == uuid.Nil {
		return ErrSessionDeckIDEmpty
	}

	if s.UserID == uuid.Nil {
		return ErrSessionUserIDEmpty
	}

	if s.CorrectCount < 0 || s.WrongCount < 0 || s.CurrentIndex < 0 {
		return ErrSessionCountsNegative
	}

	return nil
}

// RecordAnswer updates the session counters for one graded review.
func (s *StudySession) RecordAnswer(correct bool) {
	if correct {
		s.CorrectCount++
	} else {
		s.WrongCount++
	}
	s.CurrentIndex++
}

// Accuracy returns correct/(correct+wrong), or 0 when no reviews were recorded.
func (s *StudySession) Accuracy() float64 {
	total := s.CorrectCount + s.WrongCount
	if total == 0 {
		return 0
	}
	return float64(s.CorrectCount) / float64(total)
}

// Complete marks the session as finished at the given time. Completing an
// already-completed session is a no-op.
func (s *StudySession) Complete(now time.Time) {
	if s.Completed {
		return
	}
	s.Completed = true
	ended := now
	s.EndedAt = &ended
}
