package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyowl/studyowl-api/internal/domain"
)

func TestNewDeck(t *testing.T) {
	t.Parallel()

	t.Run("valid deck", func(t *testing.T) {
		t.Parallel()
		deck, err := domain.NewDeck(uuid.New(), "Organic Chemistry", "Alkanes and alkenes", []string{"chemistry", "organic"})
		require.NoError(t, err)
		assert.Equal(t, 0, deck.ReviewCount)
		assert.Nil(t, deck.TrashedAt)
		assert.False(t, deck.IsTrashed())
	})

	t.Run("empty title", func(t *testing.T) {
		t.Parallel()
		_, err := domain.NewDeck(uuid.New(), "", "", nil)
		assert.ErrorIs(t, err, domain.ErrDeckTitleEmpty)
	})

	t.Run("empty owner", func(t *testing.T) {
		t.Parallel()
		_, err := domain.NewDeck(uuid.Nil, "Organic Chemistry", "", nil)
		assert.ErrorIs(t, err, domain.ErrDeckUserIDEmpty)
	})

	t.Run("blank tag", func(t *testing.T) {
		t.Parallel()
		_, err := domain.NewDeck(uuid.New(), "Organic Chemistry", "", []string{"chemistry", ""})
		assert.ErrorIs(t, err, domain.ErrDeckTagEmpty)
	})
}

func TestDeckIsTrashed(t *testing.T) {
	t.Parallel()

	deck, err := domain.NewDeck(uuid.New(), "Organic Chemistry", "", nil)
	require.NoError(t, err)

	trashed := time.Now().UTC()
	deck.TrashedAt = &trashed
	assert.True(t, deck.IsTrashed())
}

func TestNewFlashcard(t *testing.T) {
	t.Parallel()

	t.Run("default scheduler state", func(t *testing.T) {
		t.Parallel()
		card, err := domain.NewFlashcard(
			uuid.New(), uuid.New(),
			"What functional group defines an alcohol?", "A hydroxyl group",
			domain.BloomRemember, domain.DifficultyEasy)
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultEaseFactor, card.EaseFactor)
		assert.Equal(t, 0, card.Interval)
		assert.Equal(t, 0, card.Repetition)
		assert.Nil(t, card.NextReviewAt)
		assert.Nil(t, card.LastReviewedAt)
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()

		_, err := domain.NewFlashcard(uuid.New(), uuid.New(), "", "back",
			domain.BloomRemember, domain.DifficultyEasy)
		assert.ErrorIs(t, err, domain.ErrFlashcardFrontEmpty)

		_, err = domain.NewFlashcard(uuid.New(), uuid.New(), "front", "",
			domain.BloomRemember, domain.DifficultyEasy)
		assert.ErrorIs(t, err, domain.ErrFlashcardBackEmpty)

		_, err = domain.NewFlashcard(uuid.New(), uuid.New(), "front", "back",
			domain.BloomLevel("memorize"), domain.DifficultyEasy)
		assert.ErrorIs(t, err, domain.ErrFlashcardBloomInvalid)

		_, err = domain.NewFlashcard(uuid.New(), uuid.New(), "front", "back",
			domain.BloomRemember, domain.Difficulty("impossible"))
		assert.ErrorIs(t, err, domain.ErrFlashcardDifficultyInvalid)
	})
}

func TestFlashcardValidateSchedulerInvariants(t *testing.T) {
	t.Parallel()

	card, err := domain.NewFlashcard(
		uuid.New(), uuid.New(), "front", "back",
		domain.BloomRemember, domain.DifficultyEasy)
	require.NoError(t, err)

	card.EaseFactor = 1.2
	assert.ErrorIs(t, card.Validate(), domain.ErrFlashcardEaseFactorTooLow)

	card.EaseFactor = domain.MinEaseFactor
	card.Interval = -1
	assert.ErrorIs(t, card.Validate(), domain.ErrFlashcardIntervalNegative)

	card.Interval = 0
	card.Repetition = -1
	assert.ErrorIs(t, card.Validate(), domain.ErrFlashcardRepetitionNegative)
}
