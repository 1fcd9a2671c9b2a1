package srs_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyowl/studyowl-api/internal/domain"
	"github.com/studyowl/studyowl-api/internal/domain/srs"
)

func newTestCard(t *testing.T) *domain.Flashcard {
	t.Helper()
	card, err := domain.NewFlashcard(
		uuid.New(), uuid.New(),
		"What is the capital of France?", "Paris",
		domain.BloomRemember, domain.DifficultyEasy)
	require.NoError(t, err)
	return card
}

func TestApplyReviewAdvancesSchedule(t *testing.T) {
	t.Parallel()

	svc := srs.NewDefaultService()
	card := newTestCard(t)
	now := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)

	updated, err := svc.ApplyReview(card, 4, []int{4}, now)
	require.NoError(t, err)

	assert.Equal(t, 1, updated.Interval)
	assert.Equal(t, 1, updated.Repetition)
	assert.InDelta(t, 2.5, updated.EaseFactor, 0.0001)
	assert.InDelta(t, 1.0, updated.PerformanceAvg, 0.0001)
	require.NotNil(t, updated.NextReviewAt)
	assert.Equal(t, time.Date(2025, 5, 21, 0, 0, 0, 0, time.UTC), *updated.NextReviewAt)
	require.NotNil(t, updated.LastReviewedAt)
	assert.Equal(t, now, *updated.LastReviewedAt)
}

func TestApplyReviewDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	svc := srs.NewDefaultService()
	card := newTestCard(t)
	original := *card

	_, err := svc.ApplyReview(card, 5, []int{5}, time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, original.EaseFactor, card.EaseFactor)
	assert.Equal(t, original.Interval, card.Interval)
	assert.Equal(t, original.Repetition, card.Repetition)
	assert.Equal(t, original.NextReviewAt, card.NextReviewAt)
}

func TestApplyReviewPerformanceWindow(t *testing.T) {
	t.Parallel()

	svc := srs.NewDefaultService()
	card := newTestCard(t)

	updated, err := svc.ApplyReview(card, 2, []int{2, 5, 5, 1}, time.Now().UTC())
	require.NoError(t, err)

	assert.InDelta(t, 0.5, updated.PerformanceAvg, 0.0001)
	assert.Equal(t, 0, updated.Repetition, "failure resets the streak")
	assert.Equal(t, 1, updated.Interval)
}

func TestApplyReviewValidation(t *testing.T) {
	t.Parallel()

	svc := srs.NewDefaultService()

	_, err := svc.ApplyReview(nil, 4, nil, time.Now().UTC())
	assert.ErrorIs(t, err, srs.ErrNilCard)

	_, err = svc.ApplyReview(newTestCard(t), 6, nil, time.Now().UTC())
	assert.ErrorIs(t, err, srs.ErrInvalidGrade)

	_, err = svc.ApplyReview(newTestCard(t), -1, nil, time.Now().UTC())
	assert.ErrorIs(t, err, srs.ErrInvalidGrade)
}
