package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserStats is the per-user aggregate counter row. All fields are
// eventually-consistent caches derived from the deck and flashcard tables;
// the counter ledger protocol keeps them from drifting.
type UserStats struct {
	UserID              uuid.UUID `json:"user_id"`
	FlashcardsCreated   int       `json:"flashcards_created"`
	DecksCount          int       `json:"decks_count"`
	StudiesCompleted    int       `json:"studies_completed"`
	TotalCorrectAnswers int       `json:"total_correct_answers"`
	TotalWrongAnswers   int       `json:"total_wrong_answers"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// NewUserStats creates an empty stats row for the given user.
func NewUserStats(userID uuid.UUID) *UserStats {
	return &UserStats{
		UserID:    userID,
		UpdatedAt: time.Now().UTC(),
	}
}

// Accuracy returns the user's overall answer accuracy, or 0 when the user
// has not answered anything yet.
func (s *UserStats) Accuracy() float64 {
	total := s.TotalCorrectAnswers + s.TotalWrongAnswers
	if total == 0 {
		return 0
	}
	return float64(s.TotalCorrectAnswers) / float64(total)
}

// TagCount is one per-user tag usage counter. Rows with a count at or below
// zero are pruned rather than stored, so a TagCount always has Count >= 1.
// CreatedAt is the first time the tag was counted for this user; it breaks
// ties in top-tag listings so the externally visible ordering stays stable.
type TagCount struct {
	UserID    uuid.UUID `json:"user_id"`
	Tag       string    `json:"tag"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"created_at"`
}

// BloomCount is one per-user bloom-level bucket with the same non-negative
// discipline as TagCount.
type BloomCount struct {
	UserID uuid.UUID  `json:"user_id"`
	Level  BloomLevel `json:"level"`
	Count  int        `json:"count"`
}
