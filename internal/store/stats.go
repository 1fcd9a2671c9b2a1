package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/studyowl/studyowl-api/internal/domain"
)

// UserStatsDelta describes an adjustment to the per-user aggregate counters.
// Zero fields leave the corresponding counter untouched; negative fields
// decrement with clamping at zero.
type UserStatsDelta struct {
	FlashcardsCreated   int
	DecksCount          int
	StudiesCompleted    int
	TotalCorrectAnswers int
	TotalWrongAnswers   int
}

// IsZero reports whether the delta would change nothing.
func (d UserStatsDelta) IsZero() bool {
	return d == UserStatsDelta{}
}

// StatsStore defines the interface for the per-user counter ledger rows:
// the aggregate stats row, the tag usage counters and the bloom-level
// counters.
//
// All adjustment methods clamp at zero instead of failing: a decrement that
// would produce a negative count reflects ledger drift, not user error, and
// must never surface as a hard failure. Tag and bloom rows whose count
// reaches zero are pruned entirely.
type StatsStore interface {
	// GetUserStats retrieves the user's aggregate stats row.
	// Returns ErrStatsNotFound when the user has no row yet.
	GetUserStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error)

	// AdjustUserStats applies the delta to the user's aggregate counters,
	// creating the row if it does not exist. Counters never drop below zero.
	AdjustUserStats(ctx context.Context, userID uuid.UUID, delta UserStatsDelta) error

	// AdjustTag adds delta to the user's counter for tag, creating the row
	// on first increment and pruning it once the count reaches zero or below.
	AdjustTag(ctx context.Context, userID uuid.UUID, tag string, delta int) error

	// TopTags returns the user's limit highest-count tags ordered by count
	// descending, ties broken by first-created. The ordering must be stable
	// so the externally visible "most studied categories" listing is
	// deterministic.
	TopTags(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.TagCount, error)

	// AdjustBloom adds delta to the user's bucket for the bloom level, with
	// the same create/prune discipline as AdjustTag.
	AdjustBloom(ctx context.Context, userID uuid.UUID, level domain.BloomLevel, delta int) error

	// BloomCounts returns the user's bloom-level distribution in taxonomy order.
	BloomCounts(ctx context.Context, userID uuid.UUID) ([]*domain.BloomCount, error)

	// WithTx returns a new StatsStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) StatsStore
}
