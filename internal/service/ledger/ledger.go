// Package ledger maintains the per-user derived counters: the aggregate
// stats row, tag usage counters and bloom-level counters.
//
// Counters are caches over the deck and flashcard tables. Every mutation of
// those tables routes its counter adjustments through this package, inside
// the same transaction, so the ledger cannot drift from the data it
// summarizes. Decrements clamp at zero; tag and bloom rows that reach zero
// are pruned rather than stored.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/studyowl/studyowl-api/internal/domain"
	"github.com/studyowl/studyowl-api/internal/platform/logger"
	"github.com/studyowl/studyowl-api/internal/store"
)

// Ledger applies counter adjustments through a StatsStore. A Ledger is bound
// to either a connection pool or, via WithTx, a single transaction.
type Ledger struct {
	stats  store.StatsStore
	logger *slog.Logger
}

// NewLedger creates a Ledger over the given stats store.
// If logger is nil, a default logger will be used.
func NewLedger(stats store.StatsStore, logger *slog.Logger) *Ledger {
	if stats == nil {
		panic("stats store cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Ledger{
		stats:  stats,
		logger: logger.With(slog.String("component", "ledger")),
	}
}

// WithTx returns a Ledger bound to the given transaction. Callers applying
// counter changes alongside entity mutations must use the transactional
// ledger so both commit or roll back together.
func (l *Ledger) WithTx(tx *sql.Tx) *Ledger {
	return &Ledger{
		stats:  l.stats.WithTx(tx),
		logger: l.logger,
	}
}

// Stats returns the user's aggregate counters. A user without a stats row
// yet gets a zero-valued row rather than an error.
func (l *Ledger) Stats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	stats, err := l.stats.GetUserStats(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrStatsNotFound) {
			return domain.NewUserStats(userID), nil
		}
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return stats, nil
}

// AdjustStats applies the delta to the user's aggregate counters.
func (l *Ledger) AdjustStats(ctx context.Context, userID uuid.UUID, delta store.UserStatsDelta) error {
	return l.stats.AdjustUserStats(ctx, userID, delta)
}

// IncrementTag bumps the user's counter for the tag by one.
func (l *Ledger) IncrementTag(ctx context.Context, userID uuid.UUID, tag string) error {
	return l.stats.AdjustTag(ctx, userID, tag, 1)
}

// DecrementTag lowers the user's counter for the tag by one, pruning the row
// when it reaches zero. Decrementing an absent tag is a no-op.
func (l *Ledger) DecrementTag(ctx context.Context, userID uuid.UUID, tag string) error {
	return l.stats.AdjustTag(ctx, userID, tag, -1)
}

// TopTags returns the user's most-used tags, highest count first with
// first-created breaking ties.
func (l *Ledger) TopTags(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.TagCount, error) {
	return l.stats.TopTags(ctx, userID, limit)
}

// IncrementBloom bumps the user's bucket for the bloom level by one.
func (l *Ledger) IncrementBloom(ctx context.Context, userID uuid.UUID, level domain.BloomLevel) error {
	return l.stats.AdjustBloom(ctx, userID, level, 1)
}

// DecrementBloom lowers the user's bucket for the bloom level by one, with
// the same clamp/prune discipline as DecrementTag.
func (l *Ledger) DecrementBloom(ctx context.Context, userID uuid.UUID, level domain.BloomLevel) error {
	return l.stats.AdjustBloom(ctx, userID, level, -1)
}

// BloomDistribution returns the user's bloom-level buckets in taxonomy order.
func (l *Ledger) BloomDistribution(ctx context.Context, userID uuid.UUID) ([]*domain.BloomCount, error) {
	return l.stats.BloomCounts(ctx, userID)
}

// ApplyFlashcardCreated records one new flashcard: bumps flashcards_created,
// the card's bloom bucket, and each of the given tags.
func (l *Ledger) ApplyFlashcardCreated(
	ctx context.Context,
	userID uuid.UUID,
	tags []string,
	level domain.BloomLevel,
) error {
	log := logger.FromContextOrDefault(ctx, l.logger)

	if err := l.stats.AdjustUserStats(ctx, userID, store.UserStatsDelta{FlashcardsCreated: 1}); err != nil {
		return fmt.Errorf("failed to adjust user stats: %w", err)
	}
	if err := l.stats.AdjustBloom(ctx, userID, level, 1); err != nil {
		return fmt.Errorf("failed to adjust bloom counter: %w", err)
	}
	for _, tag := range tags {
		if err := l.stats.AdjustTag(ctx, userID, tag, 1); err != nil {
			return fmt.Errorf("failed to adjust tag counter: %w", err)
		}
	}

	log.Debug("ledger applied flashcard creation",
		slog.String("user_id", userID.String()),
		slog.String("bloom_level", string(level)),
		slog.Int("tags", len(tags)))
	return nil
}

// ApplyFlashcardDeleted reverses ApplyFlashcardCreated for one flashcard.
func (l *Ledger) ApplyFlashcardDeleted(
	ctx context.Context,
	userID uuid.UUID,
	tags []string,
	level domain.BloomLevel,
) error {
	log := logger.FromContextOrDefault(ctx, l.logger)

	if err := l.stats.AdjustUserStats(ctx, userID, store.UserStatsDelta{FlashcardsCreated: -1}); err != nil {
		return fmt.Errorf("failed to adjust user stats: %w", err)
	}
	if err := l.stats.AdjustBloom(ctx, userID, level, -1); err != nil {
		return fmt.Errorf("failed to adjust bloom counter: %w", err)
	}
	for _, tag := range tags {
		if err := l.stats.AdjustTag(ctx, userID, tag, -1); err != nil {
			return fmt.Errorf("failed to adjust tag counter: %w", err)
		}
	}

	log.Debug("ledger applied flashcard deletion",
		slog.String("user_id", userID.String()),
		slog.String("bloom_level", string(level)),
		slog.Int("tags", len(tags)))
	return nil
}

// ApplyBloomChanged moves one card between bloom buckets after an edit.
// A no-op when the level did not change.
func (l *Ledger) ApplyBloomChanged(
	ctx context.Context,
	userID uuid.UUID,
	from, to domain.BloomLevel,
) error {
	if from == to {
		return nil
	}

	if err := l.stats.AdjustBloom(ctx, userID, from, -1); err != nil {
		return fmt.Errorf("failed to adjust bloom counter: %w", err)
	}
	if err := l.stats.AdjustBloom(ctx, userID, to, 1); err != nil {
		return fmt.Errorf("failed to adjust bloom counter: %w", err)
	}
	return nil
}

// ApplyCards adjusts the tag and bloom buckets for every given card at once,
// each card touching each of the deck's tags and its own bloom level.
// direction is +1 for additions and -1 for removals; flashcards_created moves
// by direction times the card count.
//
// This is the deck-level application: trashing, restoring, deleting or bulk
// regenerating a deck routes its whole card set through here inside the
// caller's transaction.
func (l *Ledger) ApplyCards(
	ctx context.Context,
	userID uuid.UUID,
	cards []*domain.Flashcard,
	tags []string,
	direction int,
) error {
	log := logger.FromContextOrDefault(ctx, l.logger)

	if direction != 1 && direction != -1 {
		return fmt.Errorf("direction must be +1 or -1, got %d", direction)
	}
	if len(cards) == 0 {
		return nil
	}

	delta := store.UserStatsDelta{FlashcardsCreated: direction * len(cards)}
	if err := l.stats.AdjustUserStats(ctx, userID, delta); err != nil {
		return fmt.Errorf("failed to adjust user stats: %w", err)
	}

	for _, card := range cards {
		if err := l.stats.AdjustBloom(ctx, userID, card.BloomLevel, direction); err != nil {
			return fmt.Errorf("failed to adjust bloom counter: %w", err)
		}
		for _, tag := range tags {
			if err := l.stats.AdjustTag(ctx, userID, tag, direction); err != nil {
				return fmt.Errorf("failed to adjust tag counter: %w", err)
			}
		}
	}

	log.Debug("ledger applied card set",
		slog.String("user_id", userID.String()),
		slog.Int("cards", len(cards)),
		slog.Int("direction", direction))
	return nil
}

// ApplyStudyCompleted records one finished study session in the aggregates.
func (l *Ledger) ApplyStudyCompleted(
	ctx context.Context,
	userID uuid.UUID,
	correct, wrong int,
) error {
	return l.stats.AdjustUserStats(ctx, userID, store.UserStatsDelta{
		StudiesCompleted:    1,
		TotalCorrectAnswers: correct,
		TotalWrongAnswers:   wrong,
	})
}

// ApplyDeckCreated bumps the user's deck count.
func (l *Ledger) ApplyDeckCreated(ctx context.Context, userID uuid.UUID) error {
	return l.stats.AdjustUserStats(ctx, userID, store.UserStatsDelta{DecksCount: 1})
}

// ApplyDeckRemoved lowers the user's deck count. Used for both trashing and
// permanent deletion; restoring a trashed deck calls ApplyDeckCreated again.
func (l *Ledger) ApplyDeckRemoved(ctx context.Context, userID uuid.UUID) error {
	return l.stats.AdjustUserStats(ctx, userID, store.UserStatsDelta{DecksCount: -1})
}
