package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/studyowl/studyowl-api/internal/domain"
	"github.com/studyowl/studyowl-api/internal/platform/logger"
	"github.com/studyowl/studyowl-api/internal/store"
)

// PostgresReviewStore implements the store.ReviewStore interface
// using a PostgreSQL database as the storage backend. Reviews are
// append-only; there is no update path.
type PostgresReviewStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewStore creates a new PostgreSQL implementation of the ReviewStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresReviewStore(db store.DBTX, logger *slog.Logger) *PostgresReviewStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_store")),
	}
}

// Ensure PostgresReviewStore implements store.ReviewStore interface
var _ store.ReviewStore = (*PostgresReviewStore)(nil)

// WithTx implements store.ReviewStore.WithTx
func (s *PostgresReviewStore) WithTx(tx *sql.Tx) store.ReviewStore {
	return &PostgresReviewStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.ReviewStore.Create
// Returns store.ErrInvalidEntity if the flashcard or session does not exist.
func (s *PostgresReviewStore) Create(ctx context.Context, review *domain.FlashcardReview) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := review.Validate(); err != nil {
		log.Warn("review validation failed during create",
			slog.String("error", err.Error()),
			slog.String("review_id", review.ID.String()))
		return err
	}

	query := `
		INSERT INTO flashcard_reviews (id, flashcard_id, session_id, grade,
			time_to_answer_ms, notes, reviewed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		review.ID,
		review.FlashcardID,
		review.SessionID,
		review.Grade,
		review.TimeToAnswerMs,
		review.Notes,
		review.ReviewedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolationCode {
			log.Warn("foreign key violation during review creation",
				slog.String("review_id", review.ID.String()),
				slog.String("flashcard_id", review.FlashcardID.String()))
			return fmt.Errorf("%w: flashcard or session not found",
				store.ErrInvalidEntity)
		}

		log.Error("failed to create review",
			slog.String("error", err.Error()),
			slog.String("review_id", review.ID.String()))
		return err
	}

	log.Info("review recorded",
		slog.String("review_id", review.ID.String()),
		slog.String("flashcard_id", review.FlashcardID.String()),
		slog.Int("grade", review.Grade))
	return nil
}

// CountBySession implements store.ReviewStore.CountBySession
func (s *PostgresReviewStore) CountBySession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT COUNT(*) FROM flashcard_reviews WHERE session_id = $1`

	var count int
	if err := s.db.QueryRowContext(ctx, query, sessionID).Scan(&count); err != nil {
		log.Error("failed to count reviews by session",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		return 0, err
	}

	return count, nil
}

// RecentGrades implements store.ReviewStore.RecentGrades
// Grades come back newest first.
func (s *PostgresReviewStore) RecentGrades(
	ctx context.Context,
	flashcardID uuid.UUID,
	limit int,
) ([]int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT grade
		FROM flashcard_reviews
		WHERE flashcard_id = $1
		ORDER BY reviewed_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, flashcardID, limit)
	if err != nil {
		log.Error("failed to query recent grades",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", flashcardID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var grades []int
	for rows.Next() {
		var grade int
		if err := rows.Scan(&grade); err != nil {
			log.Error("failed to scan grade row",
				slog.String("error", err.Error()))
			return nil, err
		}
		grades = append(grades, grade)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	if grades == nil {
		grades = []int{}
	}

	return grades, nil
}

// DeleteByDeck implements store.ReviewStore.DeleteByDeck
func (s *PostgresReviewStore) DeleteByDeck(ctx context.Context, deckID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM flashcard_reviews
		WHERE flashcard_id IN (SELECT id FROM flashcards WHERE deck_id = $1)
	`

	result, err := s.db.ExecContext(ctx, query, deckID)
	if err != nil {
		log.Error("failed to delete reviews by deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	log.Info("reviews deleted for deck",
		slog.String("deck_id", deckID.String()),
		slog.Int64("reviews", rowsAffected))
	return nil
}

// DeleteBySession implements store.ReviewStore.DeleteBySession
func (s *PostgresReviewStore) DeleteBySession(ctx context.Context, sessionID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM flashcard_reviews WHERE session_id = $1`

	result, err := s.db.ExecContext(ctx, query, sessionID)
	if err != nil {
		log.Error("failed to delete reviews by session",
			slog.String("error", err.Error()),
			slog.String("session_id", sessionID.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	log.Info("reviews deleted for session",
		slog.String("session_id", sessionID.String()),
		slog.Int64("reviews", rowsAffected))
	return nil
}
