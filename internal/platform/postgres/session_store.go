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

const sessionColumns = `id, deck_id, user_id, completed, correct_count, wrong_count,
	current_index, started_at, ended_at`

// PostgresStudySessionStore implements the store.StudySessionStore interface
// using a PostgreSQL database as the storage backend.
//
// A partial unique index on (user_id, deck_id) WHERE NOT completed enforces
// the single-incomplete-session invariant at the schema level; Create maps
// a violation to store.ErrDuplicate.
type PostgresStudySessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStudySessionStore creates a new PostgreSQL implementation of the
// StudySessionStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresStudySessionStore(db store.DBTX, logger *slog.Logger) *PostgresStudySessionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStudySessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "study_session_store")),
	}
}

// Ensure PostgresStudySessionStore implements store.StudySessionStore interface
var _ store.StudySessionStore = (*PostgresStudySessionStore)(nil)

// WithTx implements store.StudySessionStore.WithTx
func (s *PostgresStudySessionStore) WithTx(tx *sql.Tx) store.StudySessionStore {
	return &PostgresStudySessionStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.StudySessionStore.Create
// Returns store.ErrDuplicate if an incomplete session already exists for the
// (user, deck) pair, and store.ErrInvalidEntity on a missing deck or user.
func (s *PostgresStudySessionStore) Create(ctx context.Context, session *domain.StudySession) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("session validation failed during create",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	query := `
		INSERT INTO study_sessions (id, deck_id, user_id, completed, correct_count,
			wrong_count, current_index, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.DeckID,
		session.UserID,
		session.Completed,
		session.CorrectCount,
		session.WrongCount,
		session.CurrentIndex,
		session.StartedAt,
		session.EndedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolationCode:
				log.Warn("incomplete session already exists",
					slog.String("user_id", session.UserID.String()),
					slog.String("deck_id", session.DeckID.String()))
				return fmt.Errorf("%w: incomplete study session", store.ErrDuplicate)
			case pgForeignKeyViolationCode:
				log.Warn("foreign key violation during session creation",
					slog.String("session_id", session.ID.String()),
					slog.String("deck_id", session.DeckID.String()))
				return fmt.Errorf("%w: deck with ID %s not found",
					store.ErrInvalidEntity, session.DeckID)
			}
		}

		log.Error("failed to create study session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	log.Info("study session created",
		slog.String("session_id", session.ID.String()),
		slog.String("deck_id", session.DeckID.String()))
	return nil
}

// GetByID implements store.StudySessionStore.GetByID
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresStudySessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + sessionColumns + ` FROM study_sessions WHERE id = $1`

	session, err := scanStudySession(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("study session not found", slog.String("session_id", id.String()))
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to get study session by ID",
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return nil, err
	}

	return session, nil
}

// FindIncomplete implements store.StudySessionStore.FindIncomplete
// Returns store.ErrSessionNotFound when no incomplete session exists.
func (s *PostgresStudySessionStore) FindIncomplete(
	ctx context.Context,
	userID, deckID uuid.UUID,
) (*domain.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + sessionColumns + `
		FROM study_sessions
		WHERE user_id = $1 AND deck_id = $2 AND NOT completed`

	session, err := scanStudySession(s.db.QueryRowContext(ctx, query, userID, deckID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no incomplete study session",
				slog.String("user_id", userID.String()),
				slog.String("deck_id", deckID.String()))
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to find incomplete study session",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, err
	}

	return session, nil
}

// FindLatest implements store.StudySessionStore.FindLatest
// Returns store.ErrSessionNotFound when the deck was never studied.
func (s *PostgresStudySessionStore) FindLatest(
	ctx context.Context,
	userID, deckID uuid.UUID,
) (*domain.StudySession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + sessionColumns + `
		FROM study_sessions
		WHERE user_id = $1 AND deck_id = $2
		ORDER BY started_at DESC
		LIMIT 1`

	session, err := scanStudySession(s.db.QueryRowContext(ctx, query, userID, deckID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no study sessions for deck",
				slog.String("user_id", userID.String()),
				slog.String("deck_id", deckID.String()))
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to find latest study session",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, err
	}

	return session, nil
}

// Update implements store.StudySessionStore.Update
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresStudySessionStore) Update(ctx context.Context, session *domain.StudySession) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("session validation failed during update",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	query := `
		UPDATE study_sessions
		SET completed = $1, correct_count = $2, wrong_count = $3,
			current_index = $4, ended_at = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		session.Completed,
		session.CorrectCount,
		session.WrongCount,
		session.CurrentIndex,
		session.EndedAt,
		session.ID,
	)

	if err != nil {
		log.Error("failed to update study session",
			slog.String("error", err.Error()),
			slog.String("session_id", session.ID.String()))
		return err
	}

	if err := ensureRowsAffected(result, store.ErrSessionNotFound); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			log.Debug("study session not found for update",
				slog.String("session_id", session.ID.String()))
		}
		return err
	}

	log.Info("study session updated",
		slog.String("session_id", session.ID.String()),
		slog.Bool("completed", session.Completed))
	return nil
}

// Delete implements store.StudySessionStore.Delete
// Returns store.ErrSessionNotFound if the session does not exist.
func (s *PostgresStudySessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM study_sessions WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.Error("failed to delete study session",
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return err
	}

	if err := ensureRowsAffected(result, store.ErrSessionNotFound); err != nil {
		return err
	}

	log.Info("study session deleted",
		slog.String("session_id", id.String()))
	return nil
}

func scanStudySession(row rowScanner) (*domain.StudySession, error) {
	var session domain.StudySession

	err := row.Scan(
		&session.ID,
		&session.DeckID,
		&session.UserID,
		&session.Completed,
		&session.CorrectCount,
		&session.WrongCount,
		&session.CurrentIndex,
		&session.StartedAt,
		&session.EndedAt,
	)
	if err != nil {
		return nil, err
	}

	return &session, nil
}
