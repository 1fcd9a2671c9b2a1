package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/studyowl/studyowl-api/internal/domain"
	"github.com/studyowl/studyowl-api/internal/platform/logger"
	"github.com/studyowl/studyowl-api/internal/store"
)

// PostgresStatsStore implements the store.StatsStore interface
// using a PostgreSQL database as the storage backend.
//
// All adjustments clamp at zero with GREATEST(); tag and bloom rows whose
// count falls to zero are deleted in the same statement sequence, so a
// stored counter row always has count >= 1.
type PostgresStatsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStatsStore creates a new PostgreSQL implementation of the StatsStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresStatsStore(db store.DBTX, logger *slog.Logger) *PostgresStatsStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStatsStore{
		db:     db,
		logger: logger.With(slog.String("component", "stats_store")),
	}
}

// Ensure PostgresStatsStore implements store.StatsStore interface
var _ store.StatsStore = (*PostgresStatsStore)(nil)

// WithTx implements store.StatsStore.WithTx
func (s *PostgresStatsStore) WithTx(tx *sql.Tx) store.StatsStore {
	return &PostgresStatsStore{
		db:     tx,
		logger: s.logger,
	}
}

// GetUserStats implements store.StatsStore.GetUserStats
// Returns store.ErrStatsNotFound when the user has no stats row yet.
func (s *PostgresStatsStore) GetUserStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving user stats", slog.String("user_id", userID.String()))

	query := `
		SELECT user_id, flashcards_created, decks_count, studies_completed,
			total_correct_answers, total_wrong_answers, updated_at
		FROM user_stats
		WHERE user_id = $1
	`

	var stats domain.UserStats
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.UserID,
		&stats.FlashcardsCreated,
		&stats.DecksCount,
		&stats.StudiesCompleted,
		&stats.TotalCorrectAnswers,
		&stats.TotalWrongAnswers,
		&stats.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("user stats not found", slog.String("user_id", userID.String()))
			return nil, store.ErrStatsNotFound
		}
		log.Error("failed to get user stats",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	return &stats, nil
}

// AdjustUserStats implements store.StatsStore.AdjustUserStats
// The row is created on first use; every counter clamps at zero.
func (s *PostgresStatsStore) AdjustUserStats(
	ctx context.Context,
	userID uuid.UUID,
	delta store.UserStatsDelta,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if delta.IsZero() {
		return nil
	}

	query := `
		INSERT INTO user_stats (user_id, flashcards_created, decks_count,
			studies_completed, total_correct_answers, total_wrong_answers, updated_at)
		VALUES ($1, GREATEST($2, 0), GREATEST($3, 0), GREATEST($4, 0),
			GREATEST($5, 0), GREATEST($6, 0), $7)
		ON CONFLICT (user_id) DO UPDATE SET
			flashcards_created = GREATEST(user_stats.flashcards_created + $2, 0),
			decks_count = GREATEST(user_stats.decks_count + $3, 0),
			studies_completed = GREATEST(user_stats.studies_completed + $4, 0),
			total_correct_answers = GREATEST(user_stats.total_correct_answers + $5, 0),
			total_wrong_answers = GREATEST(user_stats.total_wrong_answers + $6, 0),
			updated_at = $7
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		userID,
		delta.FlashcardsCreated,
		delta.DecksCount,
		delta.StudiesCompleted,
		delta.TotalCorrectAnswers,
		delta.TotalWrongAnswers,
		time.Now().UTC(),
	)

	if err != nil {
		log.Error("failed to adjust user stats",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return err
	}

	log.Debug("user stats adjusted",
		slog.String("user_id", userID.String()),
		slog.Int("flashcards_created", delta.FlashcardsCreated),
		slog.Int("decks_count", delta.DecksCount),
		slog.Int("studies_completed", delta.StudiesCompleted))
	return nil
}

// AdjustTag implements store.StatsStore.AdjustTag
// Creates the row on first increment and prunes it when the count reaches
// zero or below. A decrement against a missing row is a no-op.
func (s *PostgresStatsStore) AdjustTag(
	ctx context.Context,
	userID uuid.UUID,
	tag string,
	delta int,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if delta == 0 {
		return nil
	}

	if delta > 0 {
		query := `
			INSERT INTO tag_counters (user_id, tag, count, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, tag) DO UPDATE SET
				count = tag_counters.count + $3
		`
		if _, err := s.db.ExecContext(ctx, query, userID, tag, delta, time.Now().UTC()); err != nil {
			log.Error("failed to increment tag counter",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()),
				slog.String("tag", tag))
			return err
		}
		return nil
	}

	// Decrement, then prune rows driven to zero or below.
	query := `
		UPDATE tag_counters
		SET count = count + $3
		WHERE user_id = $1 AND tag = $2
	`
	if _, err := s.db.ExecContext(ctx, query, userID, tag, delta); err != nil {
		log.Error("failed to decrement tag counter",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("tag", tag))
		return err
	}

	prune := `DELETE FROM tag_counters WHERE user_id = $1 AND tag = $2 AND count <= 0`
	if _, err := s.db.ExecContext(ctx, prune, userID, tag); err != nil {
		log.Error("failed to prune tag counter",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("tag", tag))
		return err
	}

	return nil
}

// TopTags implements store.StatsStore.TopTags
// Ordering is count descending with first-created breaking ties, so the
// result is deterministic across calls.
func (s *PostgresStatsStore) TopTags(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.TagCount, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT user_id, tag, count, created_at
		FROM tag_counters
		WHERE user_id = $1
		ORDER BY count DESC, created_at ASC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		log.Error("failed to query top tags",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var tags []*domain.TagCount
	for rows.Next() {
		var tc domain.TagCount
		if err := rows.Scan(&tc.UserID, &tc.Tag, &tc.Count, &tc.CreatedAt); err != nil {
			log.Error("failed to scan tag counter row",
				slog.String("error", err.Error()))
			return nil, err
		}
		tags = append(tags, &tc)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	if tags == nil {
		tags = []*domain.TagCount{}
	}

	return tags, nil
}

// AdjustBloom implements store.StatsStore.AdjustBloom
// Same create-on-increment, prune-on-zero discipline as AdjustTag.
func (s *PostgresStatsStore) AdjustBloom(
	ctx context.Context,
	userID uuid.UUID,
	level domain.BloomLevel,
	delta int,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if delta == 0 {
		return nil
	}

	if delta > 0 {
		query := `
			INSERT INTO bloom_counters (user_id, level, count)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, level) DO UPDATE SET
				count = bloom_counters.count + $3
		`
		if _, err := s.db.ExecContext(ctx, query, userID, level, delta); err != nil {
			log.Error("failed to increment bloom counter",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()),
				slog.String("level", string(level)))
			return err
		}
		return nil
	}

	query := `
		UPDATE bloom_counters
		SET count = count + $3
		WHERE user_id = $1 AND level = $2
	`
	if _, err := s.db.ExecContext(ctx, query, userID, level, delta); err != nil {
		log.Error("failed to decrement bloom counter",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("level", string(level)))
		return err
	}

	prune := `DELETE FROM bloom_counters WHERE user_id = $1 AND level = $2 AND count <= 0`
	if _, err := s.db.ExecContext(ctx, prune, userID, level); err != nil {
		log.Error("failed to prune bloom counter",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("level", string(level)))
		return err
	}

	return nil
}

// BloomCounts implements store.StatsStore.BloomCounts
// Results come back in taxonomy order regardless of storage order.
func (s *PostgresStatsStore) BloomCounts(ctx context.Context, userID uuid.UUID) ([]*domain.BloomCount, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id, level, count
		FROM bloom_counters
		WHERE user_id = $1
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query bloom counters",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	byLevel := make(map[domain.BloomLevel]*domain.BloomCount)
	for rows.Next() {
		var bc domain.BloomCount
		var level string
		if err := rows.Scan(&bc.UserID, &level, &bc.Count); err != nil {
			log.Error("failed to scan bloom counter row",
				slog.String("error", err.Error()))
			return nil, err
		}
		bc.Level = domain.BloomLevel(level)
		byLevel[bc.Level] = &bc
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	counts := make([]*domain.BloomCount, 0, len(byLevel))
	for _, level := range domain.AllBloomLevels() {
		if bc, ok := byLevel[level]; ok {
			counts = append(counts, bc)
		}
	}

	return counts, nil
}
