package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/studyowl/studyowl-api/internal/domain"
)

// QuizStore defines the interface for guided quiz persistence: sessions,
// their four ordered steps, and each step's generated question.
type QuizStore interface {
	// CreateSession saves a new quiz session.
	CreateSession(ctx context.Context, session *domain.QuizSession) error

	// GetSession retrieves a quiz session by its unique ID.
	// Returns ErrQuizSessionNotFound if the session does not exist.
	GetSession(ctx context.Context, id uuid.UUID) (*domain.QuizSession, error)

	// UpdateSessionStatus sets the session's status and completion stamp.
	// Returns ErrQuizSessionNotFound if the session does not exist.
	UpdateSessionStatus(
		ctx context.Context,
		sessionID uuid.UUID,
		status domain.QuizSessionStatus,
		completedAt *time.Time,
	) error

	// CreateSteps saves the session's step skeleton. Step order is defined
	// by position and creation order and must be written as given.
	CreateSteps(ctx context.Context, steps []*domain.QuizStep) error

	// GetStep retrieves one step by its unique ID.
	// Returns ErrQuizStepNotFound if the step does not exist.
	GetStep(ctx context.Context, stepID uuid.UUID) (*domain.QuizStep, error)

	// ListSteps returns the session's steps in creation order, regardless of
	// storage iteration order.
	ListSteps(ctx context.Context, sessionID uuid.UUID) ([]*domain.QuizStep, error)

	// NextPendingStep returns the earliest-created step of the session with
	// no recorded answer. Returns ErrQuizStepNotFound when every step has
	// been answered.
	NextPendingStep(ctx context.Context, sessionID uuid.UUID) (*domain.QuizStep, error)

	// AnswerStep records answered_at, user_answer_id and is_correct in one
	// guarded write: the update applies only while the step is unanswered.
	// Returns ErrStepAlreadyAnswered if another answer won the race, and
	// ErrQuizStepNotFound if the step does not exist.
	AnswerStep(
		ctx context.Context,
		stepID, optionID uuid.UUID,
		isCorrect bool,
		answeredAt time.Time,
	) error

	// CreateQuestion saves a step's question together with its options.
	// Returns ErrQuestionExists if the step already has a question.
	CreateQuestion(ctx context.Context, question *domain.QuizQuestion) error

	// GetQuestionByStep retrieves the step's question with options in
	// position order. Returns ErrQuizQuestionNotFound if the step has no
	// question yet.
	GetQuestionByStep(ctx context.Context, stepID uuid.UUID) (*domain.QuizQuestion, error)

	// DeleteSteps removes all of the session's steps; questions and options
	// are removed by database-level cascades. Part of the atomic reset
	// protocol and must run in the same transaction as the skeleton
	// recreation.
	DeleteSteps(ctx context.Context, sessionID uuid.UUID) error

	// WithTx returns a new QuizStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) QuizStore
}
