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

const quizStepColumns = `id, session_id, step_type, position, answered_at,
	user_answer_id, is_correct, created_at`

// PostgresQuizStore implements the store.QuizStore interface
// using a PostgreSQL database as the storage backend.
type PostgresQuizStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQuizStore creates a new PostgreSQL implementation of the QuizStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresQuizStore(db store.DBTX, logger *slog.Logger) *PostgresQuizStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresQuizStore{
		db:     db,
		logger: logger.With(slog.String("component", "quiz_store")),
	}
}

// Ensure PostgresQuizStore implements store.QuizStore interface
var _ store.QuizStore = (*PostgresQuizStore)(nil)

// WithTx implements store.QuizStore.WithTx
func (s *PostgresQuizStore) WithTx(tx *sql.Tx) store.QuizStore {
	return &PostgresQuizStore{
		db:     tx,
		logger: s.logger,
	}
}

// CreateSession implements store.QuizStore.CreateSession
// Returns store.ErrInvalidEntity if the owning user does not exist.
func (s *PostgresQuizStore) CreateSession(ctx context.Context, session *domain.QuizSession) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := session.Validate(); err != nil {
		log.Warn("quiz session validation failed during create",
			slog.String("error", err.Error()),
			slog.String("quiz_session_id", session.ID.String()))
		return err
	}

	query := `
		INSERT INTO quiz_sessions (id, user_id, topic, subtopic, difficulty, style,
			explanation_type, status, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.UserID,
		session.Topic,
		session.Subtopic,
		session.Difficulty,
		session.Style,
		session.ExplanationType,
		session.Status,
		session.CompletedAt,
		session.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolationCode {
			log.Warn("foreign key violation during quiz session creation",
				slog.String("quiz_session_id", session.ID.String()),
				slog.String("user_id", session.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, session.UserID)
		}

		log.Error("failed to create quiz session",
			slog.String("error", err.Error()),
			slog.String("quiz_session_id", session.ID.String()))
		return err
	}

	log.Info("quiz session created",
		slog.String("quiz_session_id", session.ID.String()),
		slog.String("topic", session.Topic))
	return nil
}

// GetSession implements store.QuizStore.GetSession
// Returns store.ErrQuizSessionNotFound if the session does not exist.
func (s *PostgresQuizStore) GetSession(ctx context.Context, id uuid.UUID) (*domain.QuizSession, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, topic, subtopic, difficulty, style,
			explanation_type, status, completed_at, created_at
		FROM quiz_sessions
		WHERE id = $1
	`

	var session domain.QuizSession
	var difficulty, status string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.Topic,
		&session.Subtopic,
		&difficulty,
		&session.Style,
		&session.ExplanationType,
		&status,
		&session.CompletedAt,
		&session.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("quiz session not found", slog.String("quiz_session_id", id.String()))
			return nil, store.ErrQuizSessionNotFound
		}
		log.Error("failed to get quiz session",
			slog.String("error", err.Error()),
			slog.String("quiz_session_id", id.String()))
		return nil, err
	}

	session.Difficulty = domain.Difficulty(difficulty)
	session.Status = domain.QuizSessionStatus(status)
	return &session, nil
}

// UpdateSessionStatus implements store.QuizStore.UpdateSessionStatus
// Returns store.ErrQuizSessionNotFound if the session does not exist.
func (s *PostgresQuizStore) UpdateSessionStatus(
	ctx context.Context,
	sessionID uuid.UUID,
	status domain.QuizSessionStatus,
	completedAt *time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE quiz_sessions
		SET status = $1, completed_at = $2
		WHERE id = $3
	`

	result, err := s.db.ExecContext(ctx, query, status, completedAt, sessionID)
	if err != nil {
		log.Error("failed to update quiz session status",
			slog.String("error", err.Error()),
			slog.String("quiz_session_id", sessionID.String()))
		return err
	}

	if err := ensureRowsAffected(result, store.ErrQuizSessionNotFound); err != nil {
		return err
	}

	log.Info("quiz session status updated",
		slog.String("quiz_session_id", sessionID.String()),
		slog.String("status", string(status)))
	return nil
}

// CreateSteps implements store.QuizStore.CreateSteps
func (s *PostgresQuizStore) CreateSteps(ctx context.Context, steps []*domain.QuizStep) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO quiz_steps (id, session_id, step_type, position, answered_at,
			user_answer_id, is_correct, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, step := range steps {
		_, err := s.db.ExecContext(
			ctx,
			query,
			step.ID,
			step.SessionID,
			step.StepType,
			step.Position,
			step.AnsweredAt,
			step.UserAnswerID,
			step.IsCorrect,
			step.CreatedAt,
		)
		if err != nil {
			log.Error("failed to create quiz step",
				slog.String("error", err.Error()),
				slog.String("step_id", step.ID.String()),
				slog.String("step_type", string(step.StepType)))
			return err
		}
	}

	log.Info("quiz steps created",
		slog.Int("count", len(steps)))
	return nil
}

// GetStep implements store.QuizStore.GetStep
// Returns store.ErrQuizStepNotFound if the step does not exist.
func (s *PostgresQuizStore) GetStep(ctx context.Context, stepID uuid.UUID) (*domain.QuizStep, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + quizStepColumns + ` FROM quiz_steps WHERE id = $1`

	step, err := scanQuizStep(s.db.QueryRowContext(ctx, query, stepID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("quiz step not found", slog.String("step_id", stepID.String()))
			return nil, store.ErrQuizStepNotFound
		}
		log.Error("failed to get quiz step",
			slog.String("error", err.Error()),
			slog.String("step_id", stepID.String()))
		return nil, err
	}

	return step, nil
}

// ListSteps implements store.QuizStore.ListSteps
func (s *PostgresQuizStore) ListSteps(ctx context.Context, sessionID uuid.UUID) ([]*domain.QuizStep, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + quizStepColumns + `
		FROM quiz_steps
		WHERE session_id = $1
		ORDER BY position ASC, created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		log.Error("failed to query quiz steps",
			slog.String("error", err.Error()),
			slog.String("quiz_session_id", sessionID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var steps []*domain.QuizStep
	for rows.Next() {
		step, err := scanQuizStep(rows)
		if err != nil {
			log.Error("failed to scan quiz step row",
				slog.String("error", err.Error()))
			return nil, err
		}
		steps = append(steps, step)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	if steps == nil {
		steps = []*domain.QuizStep{}
	}

	return steps, nil
}

// NextPendingStep implements store.QuizStore.NextPendingStep
// Returns store.ErrQuizStepNotFound when every step has been answered.
func (s *PostgresQuizStore) NextPendingStep(ctx context.Context, sessionID uuid.UUID) (*domain.QuizStep, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + quizStepColumns + `
		FROM quiz_steps
		WHERE session_id = $1 AND answered_at IS NULL
		ORDER BY position ASC, created_at ASC
		LIMIT 1`

	step, err := scanQuizStep(s.db.QueryRowContext(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no pending quiz steps",
				slog.String("quiz_session_id", sessionID.String()))
			return nil, store.ErrQuizStepNotFound
		}
		log.Error("failed to get next pending quiz step",
			slog.String("error", err.Error()),
			slog.String("quiz_session_id", sessionID.String()))
		return nil, err
	}

	return step, nil
}

// AnswerStep implements store.QuizStore.AnswerStep
// The update is guarded on answered_at IS NULL so a step is answered exactly
// once even under concurrent submissions. A zero-row result means either the
// step does not exist or it was already answered; a follow-up existence check
// distinguishes the two.
func (s *PostgresQuizStore) AnswerStep(
	ctx context.Context,
	stepID, optionID uuid.UUID,
	isCorrect bool,
	answeredAt time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE quiz_steps
		SET answered_at = $1, user_answer_id = $2, is_correct = $3
		WHERE id = $4 AND answered_at IS NULL
	`

	result, err := s.db.ExecContext(ctx, query, answeredAt, optionID, isCorrect, stepID)
	if err != nil {
		log.Error("failed to answer quiz step",
			slog.String("error", err.Error()),
			slog.String("step_id", stepID.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var exists bool
		check := `SELECT EXISTS(SELECT 1 FROM quiz_steps WHERE id = $1)`
		if err := s.db.QueryRowContext(ctx, check, stepID).Scan(&exists); err != nil {
			log.Error("failed to check quiz step existence",
				slog.String("error", err.Error()),
				slog.String("step_id", stepID.String()))
			return err
		}
		if !exists {
			log.Debug("quiz step not found for answer",
				slog.String("step_id", stepID.String()))
			return store.ErrQuizStepNotFound
		}
		log.Warn("quiz step already answered",
			slog.String("step_id", stepID.String()))
		return store.ErrStepAlreadyAnswered
	}

	log.Info("quiz step answered",
		slog.String("step_id", stepID.String()),
		slog.Bool("is_correct", isCorrect))
	return nil
}

// CreateQuestion implements store.QuizStore.CreateQuestion
// Returns store.ErrQuestionExists if the step already has a question.
func (s *PostgresQuizStore) CreateQuestion(ctx context.Context, question *domain.QuizQuestion) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO quiz_questions (id, step_id, prompt, explanation, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		question.ID,
		question.StepID,
		question.Prompt,
		question.Explanation,
		question.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolationCode:
				log.Warn("question already exists for quiz step",
					slog.String("step_id", question.StepID.String()))
				return store.ErrQuestionExists
			case pgForeignKeyViolationCode:
				log.Warn("foreign key violation during question creation",
					slog.String("step_id", question.StepID.String()))
				return fmt.Errorf("%w: quiz step with ID %s not found",
					store.ErrInvalidEntity, question.StepID)
			}
		}

		log.Error("failed to create quiz question",
			slog.String("error", err.Error()),
			slog.String("question_id", question.ID.String()))
		return err
	}

	optionQuery := `
		INSERT INTO quiz_options (id, question_id, label, is_correct, position)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, opt := range question.Options {
		_, err := s.db.ExecContext(
			ctx,
			optionQuery,
			opt.ID,
			opt.QuestionID,
			opt.Label,
			opt.IsCorrect,
			opt.Position,
		)
		if err != nil {
			log.Error("failed to create quiz option",
				slog.String("error", err.Error()),
				slog.String("question_id", question.ID.String()),
				slog.String("option_id", opt.ID.String()))
			return err
		}
	}

	log.Info("quiz question created",
		slog.String("question_id", question.ID.String()),
		slog.String("step_id", question.StepID.String()),
		slog.Int("options", len(question.Options)))
	return nil
}

// GetQuestionByStep implements store.QuizStore.GetQuestionByStep
// Returns store.ErrQuizQuestionNotFound if the step has no question yet.
func (s *PostgresQuizStore) GetQuestionByStep(ctx context.Context, stepID uuid.UUID) (*domain.QuizQuestion, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, step_id, prompt, explanation, created_at
		FROM quiz_questions
		WHERE step_id = $1
	`

	var question domain.QuizQuestion
	err := s.db.QueryRowContext(ctx, query, stepID).Scan(
		&question.ID,
		&question.StepID,
		&question.Prompt,
		&question.Explanation,
		&question.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("quiz question not found for step",
				slog.String("step_id", stepID.String()))
			return nil, store.ErrQuizQuestionNotFound
		}
		log.Error("failed to get quiz question by step",
			slog.String("error", err.Error()),
			slog.String("step_id", stepID.String()))
		return nil, err
	}

	optionQuery := `
		SELECT id, question_id, label, is_correct, position
		FROM quiz_options
		WHERE question_id = $1
		ORDER BY position ASC
	`

	rows, err := s.db.QueryContext(ctx, optionQuery, question.ID)
	if err != nil {
		log.Error("failed to query quiz options",
			slog.String("error", err.Error()),
			slog.String("question_id", question.ID.String()))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	for rows.Next() {
		var opt domain.QuizOption
		if err := rows.Scan(&opt.ID, &opt.QuestionID, &opt.Label, &opt.IsCorrect, &opt.Position); err != nil {
			log.Error("failed to scan quiz option row",
				slog.String("error", err.Error()))
			return nil, err
		}
		question.Options = append(question.Options, opt)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	return &question, nil
}

// DeleteSteps implements store.QuizStore.DeleteSteps
func (s *PostgresQuizStore) DeleteSteps(ctx context.Context, sessionID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM quiz_steps WHERE session_id = $1`

	result, err := s.db.ExecContext(ctx, query, sessionID)
	if err != nil {
		log.Error("failed to delete quiz steps",
			slog.String("error", err.Error()),
			slog.String("quiz_session_id", sessionID.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	log.Info("quiz steps deleted",
		slog.String("quiz_session_id", sessionID.String()),
		slog.Int64("steps", rowsAffected))
	return nil
}

func scanQuizStep(row rowScanner) (*domain.QuizStep, error) {
	var step domain.QuizStep
	var stepType string

	err := row.Scan(
		&step.ID,
		&step.SessionID,
		&stepType,
		&step.Position,
		&step.AnsweredAt,
		&step.UserAnswerID,
		&step.IsCorrect,
		&step.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	step.StepType = domain.QuizStepType(stepType)
	return &step, nil
}
