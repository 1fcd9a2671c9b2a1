package srs

import (
	"errors"
	"time"

	"github.com/studyowl/studyowl-api/internal/domain"
)

// Common errors
var (
	ErrNilCard      = errors.New("flashcard cannot be nil")
	ErrInvalidGrade = errors.New("grade must be between 0 and 5")
)

// Service defines the interface for scheduling operations.
type Service interface {
	// ApplyReview computes a card's post-review scheduler state for the
	// given grade and the rolling performance average over recentGrades,
	// which must be the grades of the card's most recent reviews including
	// the one being applied.
	ApplyReview(
		card *domain.Flashcard,
		grade int,
		recentGrades []int,
		now time.Time,
	) (*domain.Flashcard, error)
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a scheduling service with default parameters.
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a scheduling service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// ApplyReview implements the Service interface. It never mutates the input
// card; a new card value with updated scheduler fields is returned.
func (s *defaultService) ApplyReview(
	card *domain.Flashcard,
	grade int,
	recentGrades []int,
	now time.Time,
) (*domain.Flashcard, error) {
	if card == nil {
		return nil, ErrNilCard
	}

	if grade < domain.MinGrade || grade > domain.MaxGrade {
		return nil, ErrInvalidGrade
	}

	result := Schedule(card.EaseFactor, card.Interval, card.Repetition, grade, now, s.params)

	updated := *card
	updated.EaseFactor = result.EaseFactor
	updated.Interval = result.Interval
	updated.Repetition = result.Repetition
	updated.PerformanceAvg = PerformanceAverage(recentGrades, s.params)

	nextReview := result.NextReviewAt
	updated.NextReviewAt = &nextReview

	reviewed := now.UTC()
	updated.LastReviewedAt = &reviewed
	updated.UpdatedAt = reviewed

	return &updated, nil
}
