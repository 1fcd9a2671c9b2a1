package ledger_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyowl/studyowl-api/internal/domain"
	"github.com/studyowl/studyowl-api/internal/mocks"
	"github.com/studyowl/studyowl-api/internal/service/ledger"
	"github.com/studyowl/studyowl-api/internal/store"
)

func newCard(t *testing.T, level domain.BloomLevel) *domain.Flashcard {
	t.Helper()
	card, err := domain.NewFlashcard(
		uuid.New(), uuid.New(), "front", "back", level, domain.DifficultyMedium)
	require.NoError(t, err)
	return card
}

func TestStatsReturnsZeroRowForNewUser(t *testing.T) {
	t.Parallel()

	led := ledger.NewLedger(mocks.NewMockStatsStore(), nil)
	userID := uuid.New()

	stats, err := led.Stats(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, stats.UserID)
	assert.Equal(t, 0, stats.FlashcardsCreated)
	assert.Equal(t, 0, stats.DecksCount)
}

func TestApplyFlashcardCreatedAndDeleted(t *testing.T) {
	t.Parallel()

	statsStore := mocks.NewMockStatsStore()
	led := ledger.NewLedger(statsStore, nil)
	ctx := context.Background()
	userID := uuid.New()
	tags := []string{"biology", "cells"}

	require.NoError(t, led.ApplyFlashcardCreated(ctx, userID, tags, domain.BloomRemember))
	require.NoError(t, led.ApplyFlashcardCreated(ctx, userID, tags, domain.BloomApply))

	stats, err := led.Stats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FlashcardsCreated)

	topTags, err := led.TopTags(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, topTags, 2)
	assert.Equal(t, 2, topTags[0].Count)

	blooms, err := led.BloomDistribution(ctx, userID)
	require.NoError(t, err)
	require.Len(t, blooms, 2)
	assert.Equal(t, domain.BloomRemember, blooms[0].Level)

	// Deleting the remember card reverses its share exactly.
	require.NoError(t, led.ApplyFlashcardDeleted(ctx, userID, tags, domain.BloomRemember))

	stats, err = led.Stats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FlashcardsCreated)

	topTags, err = led.TopTags(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, topTags, 2)
	assert.Equal(t, 1, topTags[0].Count)

	blooms, err = led.BloomDistribution(ctx, userID)
	require.NoError(t, err)
	require.Len(t, blooms, 1)
	assert.Equal(t, domain.BloomApply, blooms[0].Level)
}

func TestApplyBloomChanged(t *testing.T) {
	t.Parallel()

	statsStore := mocks.NewMockStatsStore()
	led := ledger.NewLedger(statsStore, nil)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, led.ApplyFlashcardCreated(ctx, userID, nil, domain.BloomRemember))
	require.NoError(t, led.ApplyBloomChanged(ctx, userID, domain.BloomRemember, domain.BloomEvaluate))

	blooms, err := led.BloomDistribution(ctx, userID)
	require.NoError(t, err)
	require.Len(t, blooms, 1)
	assert.Equal(t, domain.BloomEvaluate, blooms[0].Level)

	// Same level is a no-op, not a decrement plus increment.
	statsStore.AdjustBloomFn = func(ctx context.Context, userID uuid.UUID, level domain.BloomLevel, delta int) error {
		t.Fatal("AdjustBloom must not be called for an unchanged level")
		return nil
	}
	require.NoError(t, led.ApplyBloomChanged(ctx, userID, domain.BloomEvaluate, domain.BloomEvaluate))
}

func TestApplyCards(t *testing.T) {
	t.Parallel()

	led := ledger.NewLedger(mocks.NewMockStatsStore(), nil)
	ctx := context.Background()
	userID := uuid.New()
	tags := []string{"physics"}

	cards := []*domain.Flashcard{
		newCard(t, domain.BloomRemember),
		newCard(t, domain.BloomRemember),
		newCard(t, domain.BloomAnalyze),
	}

	require.NoError(t, led.ApplyCards(ctx, userID, cards, tags, 1))

	stats, err := led.Stats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.FlashcardsCreated)

	topTags, err := led.TopTags(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, topTags, 1)
	assert.Equal(t, 3, topTags[0].Count, "every card touches every deck tag")

	blooms, err := led.BloomDistribution(ctx, userID)
	require.NoError(t, err)
	require.Len(t, blooms, 2)
	assert.Equal(t, 2, blooms[0].Count)

	// Removal reverses everything, pruning emptied buckets.
	require.NoError(t, led.ApplyCards(ctx, userID, cards, tags, -1))

	stats, err = led.Stats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FlashcardsCreated)

	topTags, err = led.TopTags(ctx, userID, 10)
	require.NoError(t, err)
	assert.Empty(t, topTags)

	blooms, err = led.BloomDistribution(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, blooms)
}

func TestApplyCardsValidation(t *testing.T) {
	t.Parallel()

	led := ledger.NewLedger(mocks.NewMockStatsStore(), nil)
	ctx := context.Background()

	assert.Error(t, led.ApplyCards(ctx, uuid.New(), []*domain.Flashcard{newCard(t, domain.BloomRemember)}, nil, 0))
	assert.NoError(t, led.ApplyCards(ctx, uuid.New(), nil, []string{"x"}, 1), "empty card set is a no-op")
}

func TestApplyStudyCompleted(t *testing.T) {
	t.Parallel()

	led := ledger.NewLedger(mocks.NewMockStatsStore(), nil)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, led.ApplyStudyCompleted(ctx, userID, 8, 2))

	stats, err := led.Stats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.StudiesCompleted)
	assert.Equal(t, 8, stats.TotalCorrectAnswers)
	assert.Equal(t, 2, stats.TotalWrongAnswers)
	assert.InDelta(t, 0.8, stats.Accuracy(), 0.0001)
}

func TestDeckCountLifecycle(t *testing.T) {
	t.Parallel()

	led := ledger.NewLedger(mocks.NewMockStatsStore(), nil)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, led.ApplyDeckCreated(ctx, userID))
	require.NoError(t, led.ApplyDeckCreated(ctx, userID))
	require.NoError(t, led.ApplyDeckRemoved(ctx, userID))

	stats, err := led.Stats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DecksCount)

	// Removing below zero clamps instead of going negative.
	require.NoError(t, led.ApplyDeckRemoved(ctx, userID))
	require.NoError(t, led.ApplyDeckRemoved(ctx, userID))

	stats, err = led.Stats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.DecksCount)
}

func TestAdjustStatsPassthrough(t *testing.T) {
	t.Parallel()

	statsStore := mocks.NewMockStatsStore()
	var got store.UserStatsDelta
	statsStore.AdjustUserStatsFn = func(ctx context.Context, userID uuid.UUID, delta store.UserStatsDelta) error {
		got = delta
		return nil
	}

	led := ledger.NewLedger(statsStore, nil)
	require.NoError(t, led.AdjustStats(context.Background(), uuid.New(), store.UserStatsDelta{DecksCount: 3}))
	assert.Equal(t, store.UserStatsDelta{DecksCount: 3}, got)
}
