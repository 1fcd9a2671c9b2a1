package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
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

// PostgresDeckStore implements the store.DeckStore interface
// using a PostgreSQL database as the storage backend.
// Deck tags are stored as a JSONB array in the decks table.
type PostgresDeckStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDeckStore creates a new PostgreSQL implementation of the DeckStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresDeckStore(db store.DBTX, logger *slog.Logger) *PostgresDeckStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDeckStore{
		db:     db,
		logger: logger.With(slog.String("component", "deck_store")),
	}
}

// Ensure PostgresDeckStore implements store.DeckStore interface
var _ store.DeckStore = (*PostgresDeckStore)(nil)

// WithTx implements store.DeckStore.WithTx
func (s *PostgresDeckStore) WithTx(tx *sql.Tx) store.DeckStore {
	return &PostgresDeckStore{
		db:     tx,
		logger: s.logger,
	}
}

func marshalTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(tags)
}

// Create implements store.DeckStore.Create
// Returns store.ErrInvalidEntity if the owning user does not exist.
func (s *PostgresDeckStore) Create(ctx context.Context, deck *domain.Deck) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := deck.Validate(); err != nil {
		log.Warn("deck validation failed during create",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return err
	}

	tags, err := marshalTags(deck.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode deck tags: %w", err)
	}

	query := `
		INSERT INTO decks (id, user_id, title, description, tags, review_count,
			last_studied_at, trashed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		deck.ID,
		deck.UserID,
		deck.Title,
		deck.Description,
		tags,
		deck.ReviewCount,
		deck.LastStudiedAt,
		deck.TrashedAt,
		deck.CreatedAt,
		deck.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolationCode {
			log.Warn("foreign key violation during deck creation",
				slog.String("deck_id", deck.ID.String()),
				slog.String("user_id", deck.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, deck.UserID)
		}

		log.Error("failed to create deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return err
	}

	log.Info("deck created successfully",
		slog.String("deck_id", deck.ID.String()),
		slog.String("user_id", deck.UserID.String()))
	return nil
}

// GetByID implements store.DeckStore.GetByID
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving deck by ID", slog.String("deck_id", id.String()))

	query := `
		SELECT id, user_id, title, description, tags, review_count,
			last_studied_at, trashed_at, created_at, updated_at
		FROM decks
		WHERE id = $1
	`

	deck, err := scanDeck(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("deck not found", slog.String("deck_id", id.String()))
			return nil, store.ErrDeckNotFound
		}
		log.Error("failed to get deck by ID",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return nil, err
	}

	return deck, nil
}

// ListByUser implements store.DeckStore.ListByUser
func (s *PostgresDeckStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	includeTrashed bool,
) ([]*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("listing decks by user",
		slog.String("user_id", userID.String()),
		slog.Bool("include_trashed", includeTrashed))

	query := `
		SELECT id, user_id, title, description, tags, review_count,
			last_studied_at, trashed_at, created_at, updated_at
		FROM decks
		WHERE user_id = $1
	`
	if !includeTrashed {
		query += ` AND trashed_at IS NULL`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query decks by user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var decks []*domain.Deck
	for rows.Next() {
		deck, err := scanDeck(rows)
		if err != nil {
			log.Error("failed to scan deck row",
				slog.String("error", err.Error()))
			return nil, err
		}
		decks = append(decks, deck)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	if decks == nil {
		decks = []*domain.Deck{}
	}

	return decks, nil
}

// Update implements store.DeckStore.Update
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) Update(ctx context.Context, deck *domain.Deck) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := deck.Validate(); err != nil {
		log.Warn("deck validation failed during update",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return err
	}

	tags, err := marshalTags(deck.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode deck tags: %w", err)
	}

	query := `
		UPDATE decks
		SET title = $1, description = $2, tags = $3, trashed_at = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		deck.Title,
		deck.Description,
		tags,
		deck.TrashedAt,
		deck.UpdatedAt,
		deck.ID,
	)

	if err != nil {
		log.Error("failed to update deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return err
	}

	if err := ensureRowsAffected(result, store.ErrDeckNotFound); err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			log.Debug("deck not found for update",
				slog.String("deck_id", deck.ID.String()))
		}
		return err
	}

	log.Info("deck updated successfully",
		slog.String("deck_id", deck.ID.String()))
	return nil
}

// IncrementReviewCount implements store.DeckStore.IncrementReviewCount
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) IncrementReviewCount(
	ctx context.Context,
	deckID uuid.UUID,
	studiedAt time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE decks
		SET review_count = review_count + 1, last_studied_at = $1, updated_at = $1
		WHERE id = $2
	`

	result, err := s.db.ExecContext(ctx, query, studiedAt, deckID)
	if err != nil {
		log.Error("failed to increment deck review count",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return err
	}

	return ensureRowsAffected(result, store.ErrDeckNotFound)
}

// ResetStudyCounters implements store.DeckStore.ResetStudyCounters
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) ResetStudyCounters(ctx context.Context, deckID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE decks
		SET review_count = 0, last_studied_at = NULL, updated_at = $1
		WHERE id = $2
	`

	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), deckID)
	if err != nil {
		log.Error("failed to reset deck study counters",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return err
	}

	if err := ensureRowsAffected(result, store.ErrDeckNotFound); err != nil {
		return err
	}

	log.Info("deck study counters reset",
		slog.String("deck_id", deckID.String()))
	return nil
}

// Delete implements store.DeckStore.Delete
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM decks WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return err
	}

	if err := ensureRowsAffected(result, store.ErrDeckNotFound); err != nil {
		if errors.Is(err, store.ErrDeckNotFound) {
			log.Debug("deck not found for delete",
				slog.String("deck_id", id.String()))
		}
		return err
	}

	log.Info("deck deleted successfully",
		slog.String("deck_id", id.String()))
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeck(row rowScanner) (*domain.Deck, error) {
	var deck domain.Deck
	var tags []byte

	err := row.Scan(
		&deck.ID,
		&deck.UserID,
		&deck.Title,
		&deck.Description,
		&tags,
		&deck.ReviewCount,
		&deck.LastStudiedAt,
		&deck.TrashedAt,
		&deck.CreatedAt,
		&deck.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &deck.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode deck tags: %w", err)
		}
	}

	return &deck, nil
}
