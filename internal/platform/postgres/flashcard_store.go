package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/studyowl/studyowl-api/internal/domain"
	"github.com/studyowl/studyowl-api/internal/platform/logger"
	"github.com/studyowl/studyowl-api/internal/store"
)

const flashcardColumns = `id, deck_id, user_id, front, back, bloom_level, difficulty,
	ease_factor, interval, repetition, performance_avg,
	next_review_at, last_reviewed_at, created_at, updated_at`

// PostgresFlashcardStore implements the store.FlashcardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresFlashcardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFlashcardStore creates a new PostgreSQL implementation of the FlashcardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresFlashcardStore(db store.DBTX, logger *slog.Logger) *PostgresFlashcardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresFlashcardStore{
		db:     db,
		logger: logger.With(slog.String("component", "flashcard_store")),
	}
}

// Ensure PostgresFlashcardStore implements store.FlashcardStore interface
var _ store.FlashcardStore = (*PostgresFlashcardStore)(nil)

// WithTx implements store.FlashcardStore.WithTx
func (s *PostgresFlashcardStore) WithTx(tx *sql.Tx) store.FlashcardStore {
	return &PostgresFlashcardStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.FlashcardStore.Create
// Returns store.ErrInvalidEntity if the deck or user does not exist.
func (s *PostgresFlashcardStore) Create(ctx context.Context, card *domain.Flashcard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("flashcard validation failed during create",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", card.ID.String()))
		return err
	}

	query := `
		INSERT INTO flashcards (id, deck_id, user_id, front, back, bloom_level, difficulty,
			ease_factor, interval, repetition, performance_avg,
			next_review_at, last_reviewed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		card.ID,
		card.DeckID,
		card.UserID,
		card.Front,
		card.Back,
		card.BloomLevel,
		card.Difficulty,
		card.EaseFactor,
		card.Interval,
		card.Repetition,
		card.PerformanceAvg,
		card.NextReviewAt,
		card.LastReviewedAt,
		card.CreatedAt,
		card.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolationCode {
			log.Warn("foreign key violation during flashcard creation",
				slog.String("flashcard_id", card.ID.String()),
				slog.String("deck_id", card.DeckID.String()))
			return fmt.Errorf("%w: deck with ID %s not found",
				store.ErrInvalidEntity, card.DeckID)
		}

		log.Error("failed to create flashcard",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", card.ID.String()))
		return err
	}

	log.Info("flashcard created successfully",
		slog.String("flashcard_id", card.ID.String()),
		slog.String("deck_id", card.DeckID.String()))
	return nil
}

// CreateMultiple implements store.FlashcardStore.CreateMultiple
// Transaction management is the caller's responsibility.
func (s *PostgresFlashcardStore) CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, card := range cards {
		if err := s.Create(ctx, card); err != nil {
			return err
		}
	}

	log.Info("flashcards created successfully",
		slog.Int("count", len(cards)))
	return nil
}

// GetByID implements store.FlashcardStore.GetByID
// Returns store.ErrFlashcardNotFound if the flashcard does not exist.
func (s *PostgresFlashcardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving flashcard by ID", slog.String("flashcard_id", id.String()))

	query := `SELECT ` + flashcardColumns + ` FROM flashcards WHERE id = $1`

	card, err := scanFlashcard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("flashcard not found", slog.String("flashcard_id", id.String()))
			return nil, store.ErrFlashcardNotFound
		}
		log.Error("failed to get flashcard by ID",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", id.String()))
		return nil, err
	}

	return card, nil
}

// ListByDeck implements store.FlashcardStore.ListByDeck
func (s *PostgresFlashcardStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("listing flashcards by deck", slog.String("deck_id", deckID.String()))

	query := `SELECT ` + flashcardColumns + `
		FROM flashcards
		WHERE deck_id = $1
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, deckID)
	if err != nil {
		log.Error("failed to query flashcards by deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var cards []*domain.Flashcard
	for rows.Next() {
		card, err := scanFlashcard(rows)
		if err != nil {
			log.Error("failed to scan flashcard row",
				slog.String("error", err.Error()))
			return nil, err
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	if cards == nil {
		cards = []*domain.Flashcard{}
	}

	return cards, nil
}

// CountByDeck implements store.FlashcardStore.CountByDeck
func (s *PostgresFlashcardStore) CountByDeck(ctx context.Context, deckID uuid.UUID) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT COUNT(*) FROM flashcards WHERE deck_id = $1`

	var count int
	if err := s.db.QueryRowContext(ctx, query, deckID).Scan(&count); err != nil {
		log.Error("failed to count flashcards",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return 0, err
	}

	return count, nil
}

// Update implements store.FlashcardStore.Update
// It saves content fields only; scheduler state goes through UpdateScheduling.
// Returns store.ErrFlashcardNotFound if the flashcard does not exist.
func (s *PostgresFlashcardStore) Update(ctx context.Context, card *domain.Flashcard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("flashcard validation failed during update",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", card.ID.String()))
		return err
	}

	query := `
		UPDATE flashcards
		SET front = $1, back = $2, bloom_level = $3, difficulty = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		card.Front,
		card.Back,
		card.BloomLevel,
		card.Difficulty,
		card.UpdatedAt,
		card.ID,
	)

	if err != nil {
		log.Error("failed to update flashcard",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", card.ID.String()))
		return err
	}

	if err := ensureRowsAffected(result, store.ErrFlashcardNotFound); err != nil {
		if errors.Is(err, store.ErrFlashcardNotFound) {
			log.Debug("flashcard not found for update",
				slog.String("flashcard_id", card.ID.String()))
		}
		return err
	}

	log.Info("flashcard updated successfully",
		slog.String("flashcard_id", card.ID.String()))
	return nil
}

// UpdateScheduling implements store.FlashcardStore.UpdateScheduling
// Returns store.ErrFlashcardNotFound if the flashcard does not exist.
func (s *PostgresFlashcardStore) UpdateScheduling(ctx context.Context, card *domain.Flashcard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("flashcard validation failed during scheduling update",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", card.ID.String()))
		return err
	}

	query := `
		UPDATE flashcards
		SET ease_factor = $1, interval = $2, repetition = $3, performance_avg = $4,
			next_review_at = $5, last_reviewed_at = $6, updated_at = $7
		WHERE id = $8
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		card.EaseFactor,
		card.Interval,
		card.Repetition,
		card.PerformanceAvg,
		card.NextReviewAt,
		card.LastReviewedAt,
		card.UpdatedAt,
		card.ID,
	)

	if err != nil {
		log.Error("failed to update flashcard scheduling",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", card.ID.String()))
		return err
	}

	if err := ensureRowsAffected(result, store.ErrFlashcardNotFound); err != nil {
		return err
	}

	log.Info("flashcard scheduling updated",
		slog.String("flashcard_id", card.ID.String()),
		slog.Float64("ease_factor", card.EaseFactor),
		slog.Int("interval", card.Interval),
		slog.Int("repetition", card.Repetition))
	return nil
}

// ResetSchedulingByDeck implements store.FlashcardStore.ResetSchedulingByDeck
func (s *PostgresFlashcardStore) ResetSchedulingByDeck(
	ctx context.Context,
	deckID uuid.UUID,
	now time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE flashcards
		SET ease_factor = $1, interval = 0, repetition = 0, performance_avg = 0,
			next_review_at = NULL, last_reviewed_at = NULL, updated_at = $2
		WHERE deck_id = $3
	`

	result, err := s.db.ExecContext(ctx, query, domain.DefaultEaseFactor, now, deckID)
	if err != nil {
		log.Error("failed to reset flashcard scheduling by deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	log.Info("flashcard scheduling reset for deck",
		slog.String("deck_id", deckID.String()),
		slog.Int64("cards", rowsAffected))
	return nil
}

// NextUnreviewed implements store.FlashcardStore.NextUnreviewed
// Returns store.ErrFlashcardNotFound when every card in the deck has a review
// in the given session.
func (s *PostgresFlashcardStore) NextUnreviewed(
	ctx context.Context,
	deckID, sessionID uuid.UUID,
) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + flashcardColumns + `
		FROM flashcards f
		WHERE f.deck_id = $1
			AND NOT EXISTS (
				SELECT 1 FROM flashcard_reviews r
				WHERE r.flashcard_id = f.id AND r.session_id = $2
			)
		ORDER BY f.created_at ASC
		LIMIT 1`

	card, err := scanFlashcard(s.db.QueryRowContext(ctx, query, deckID, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no unreviewed flashcards left",
				slog.String("deck_id", deckID.String()),
				slog.String("session_id", sessionID.String()))
			return nil, store.ErrFlashcardNotFound
		}
		log.Error("failed to get next unreviewed flashcard",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, err
	}

	return card, nil
}

// Delete implements store.FlashcardStore.Delete
// Returns store.ErrFlashcardNotFound if the flashcard does not exist.
func (s *PostgresFlashcardStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM flashcards WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete flashcard",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", id.String()))
		return err
	}

	if err := ensureRowsAffected(result, store.ErrFlashcardNotFound); err != nil {
		return err
	}

	log.Info("flashcard deleted successfully",
		slog.String("flashcard_id", id.String()))
	return nil
}

// DeleteByDeck implements store.FlashcardStore.DeleteByDeck
func (s *PostgresFlashcardStore) DeleteByDeck(ctx context.Context, deckID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM flashcards WHERE deck_id = $1`

	result, err := s.db.ExecContext(ctx, query, deckID)
	if err != nil {
		log.Error("failed to delete flashcards by deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	log.Info("flashcards deleted for deck",
		slog.String("deck_id", deckID.String()),
		slog.Int64("cards", rowsAffected))
	return nil
}

func scanFlashcard(row rowScanner) (*domain.Flashcard, error) {
	var card domain.Flashcard
	var bloom, difficulty string

	err := row.Scan(
		&card.ID,
		&card.DeckID,
		&card.UserID,
		&card.Front,
		&card.Back,
		&bloom,
		&difficulty,
		&card.EaseFactor,
		&card.Interval,
		&card.Repetition,
		&card.PerformanceAvg,
		&card.NextReviewAt,
		&card.LastReviewedAt,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	card.BloomLevel = domain.BloomLevel(bloom)
	card.Difficulty = domain.Difficulty(difficulty)
	return &card, nil
}
