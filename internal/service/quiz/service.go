// Package quiz implements the guided 4-step quiz: a session walks through
// CONCEPT, EXAMPLE, COMPARISON and APPLICATION steps in that fixed order,
// each step carrying one generated multiple-choice question answered at most
// once.
package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/studyowl/studyowl-api/internal/domain"
	"github.com/studyowl/studyowl-api/internal/generation"
	"github.com/studyowl/studyowl-api/internal/platform/logger"
	"github.com/studyowl/studyowl-api/internal/service"
	"github.com/studyowl/studyowl-api/internal/store"
)

// Quiz lifecycle errors.
var (
	// ErrSessionNotActive is returned when a step operation targets a
	// completed or abandoned session.
	ErrSessionNotActive = errors.New("quiz session is not active")

	// ErrOptionNotInQuestion is returned when the submitted answer option
	// does not belong to the step's question.
	ErrOptionNotInQuestion = errors.New("option does not belong to the step's question")

	// ErrStepNotGenerated is returned when a step is answered before its
	// question has been generated.
	ErrStepNotGenerated = errors.New("quiz step has no question yet")
)

// SessionState bundles a quiz session with its ordered steps.
type SessionState struct {
	Session *domain.QuizSession `json:"session"`
	Steps   []*domain.QuizStep  `json:"steps"`
}

// AnswerResult reports the outcome of answering one step.
type AnswerResult struct {
	Step            *domain.QuizStep         `json:"step"`
	Correct         bool                     `json:"correct"`
	CorrectOptionID uuid.UUID                `json:"correct_option_id"`
	Explanation     string                   `json:"explanation,omitempty"`
	NextStep        *domain.QuizStep         `json:"next_step,omitempty"`
	SessionStatus   domain.QuizSessionStatus `json:"session_status"`
}

// Service drives quiz sessions.
// QuizService is the quiz behavior the HTTP layer depends on. *Service is
// the production implementation.
type QuizService interface {
	// CreateSession opens a session with its four-step skeleton.
	CreateSession(ctx context.Context, userID uuid.UUID, topic, subtopic string,
		difficulty domain.Difficulty, style, explanationType string) (*SessionState, error)

	// GetSession returns the session and its steps.
	GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*SessionState, error)

	// GenerateStep produces the step's question, exactly once per step.
	GenerateStep(ctx context.Context, userID, stepID uuid.UUID) (*domain.QuizQuestion, error)

	// StepQuestion returns the step's previously generated question.
	StepQuestion(ctx context.Context, userID, stepID uuid.UUID) (*domain.QuizQuestion, error)

	// AnswerStep records the answer; answering the last step completes
	// the session.
	AnswerStep(ctx context.Context, userID, stepID, optionID uuid.UUID) (*AnswerResult, error)

	// ResetSession discards all steps and answers and reactivates the
	// session with a fresh skeleton.
	ResetSession(ctx context.Context, userID, sessionID uuid.UUID) (*SessionState, error)

	// AbandonSession marks an active session abandoned.
	AbandonSession(ctx context.Context, userID, sessionID uuid.UUID) error
}

type Service struct {
	db        *sql.DB
	quizzes   store.QuizStore
	generator generation.Generator
	logger    *slog.Logger
}

var _ QuizService = (*Service)(nil)

// NewService creates a quiz service.
// If logger is nil, a default logger will be used.
func NewService(
	db *sql.DB,
	quizzes store.QuizStore,
	generator generation.Generator,
	logger *slog.Logger,
) *Service {
	if db == nil {
		panic("db cannot be nil")
	}
	if quizzes == nil {
		panic("quizzes store cannot be nil")
	}
	if generator == nil {
		panic("generator cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		db:        db,
		quizzes:   quizzes,
		generator: generator,
		logger:    logger.With(slog.String("component", "quiz_service")),
	}
}

// CreateSession opens a new quiz session with its four-step skeleton in one
// transaction. Questions are generated later, step by step.
func (s *Service) CreateSession(
	ctx context.Context,
	userID uuid.UUID,
	topic, subtopic string,
	difficulty domain.Difficulty,
	style, explanationType string,
) (*SessionState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	session, err := domain.NewQuizSession(userID, topic, subtopic, difficulty, style, explanationType)
	if err != nil {
		return nil, err
	}

	steps, err := newStepSkeleton(session.ID)
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		quizzes := s.quizzes.WithTx(tx)
		if err := quizzes.CreateSession(ctx, session); err != nil {
			return err
		}
		return quizzes.CreateSteps(ctx, steps)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create quiz session: %w", err)
	}

	log.Info("quiz session created",
		slog.String("quiz_session_id", session.ID.String()),
		slog.String("topic", topic))
	return &SessionState{Session: session, Steps: steps}, nil
}

// GetSession returns the session and its steps after an ownership check.
func (s *Service) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*SessionState, error) {
	session, err := s.ownedSession(ctx, s.quizzes, userID, sessionID)
	if err != nil {
		return nil, err
	}

	steps, err := s.quizzes.ListSteps(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &SessionState{Session: session, Steps: steps}, nil
}

// GenerateStep produces the step's question. Each step's question is
// generated exactly once; a second call returns store.ErrQuestionExists
// without touching the generator.
func (s *Service) GenerateStep(ctx context.Context, userID, stepID uuid.UUID) (*domain.QuizQuestion, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	step, err := s.quizzes.GetStep(ctx, stepID)
	if err != nil {
		return nil, err
	}

	session, err := s.ownedSession(ctx, s.quizzes, userID, step.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.QuizStatusActive {
		return nil, ErrSessionNotActive
	}

	// Cheap guard before spending a generator call. The unique constraint
	// on quiz_questions.step_id still backstops a race.
	if _, err := s.quizzes.GetQuestionByStep(ctx, stepID); err == nil {
		log.Warn("question regeneration refused",
			slog.String("step_id", stepID.String()))
		return nil, store.ErrQuestionExists
	} else if !errors.Is(err, store.ErrQuizQuestionNotFound) {
		return nil, err
	}

	generated, err := s.generator.GenerateQuizQuestion(ctx, generation.QuestionPrompt{
		Topic:           session.Topic,
		Subtopic:        session.Subtopic,
		Difficulty:      session.Difficulty,
		Style:           session.Style,
		ExplanationType: session.ExplanationType,
		StepType:        step.StepType,
	})
	if err != nil {
		log.Error("question generation failed",
			slog.String("error", err.Error()),
			slog.String("step_id", stepID.String()))
		return nil, err
	}

	options := make([]domain.QuizOption, len(generated.Options))
	for i, opt := range generated.Options {
		options[i] = domain.QuizOption{Label: opt.Label, IsCorrect: opt.IsCorrect}
	}

	question, err := domain.NewQuizQuestion(stepID, generated.Prompt, generated.Explanation, options)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrInvalidResponse, err)
	}

	if err := s.quizzes.CreateQuestion(ctx, question); err != nil {
		return nil, err
	}

	log.Info("quiz step question generated",
		slog.String("step_id", stepID.String()),
		slog.String("step_type", string(step.StepType)))
	return question, nil
}

// StepQuestion returns the step's generated question, for clients resuming
// a session mid-quiz. Returns ErrStepNotGenerated when generation has not
// happened yet.
func (s *Service) StepQuestion(ctx context.Context, userID, stepID uuid.UUID) (*domain.QuizQuestion, error) {
	step, err := s.quizzes.GetStep(ctx, stepID)
	if err != nil {
		return nil, err
	}

	if _, err := s.ownedSession(ctx, s.quizzes, userID, step.SessionID); err != nil {
		return nil, err
	}

	question, err := s.quizzes.GetQuestionByStep(ctx, stepID)
	if err != nil {
		if errors.Is(err, store.ErrQuizQuestionNotFound) {
			return nil, ErrStepNotGenerated
		}
		return nil, err
	}
	return question, nil
}

// AnswerStep records the user's answer to a step. The write is guarded so a
// step is answered exactly once; when the last pending step is answered the
// session completes in the same transaction.
func (s *Service) AnswerStep(
	ctx context.Context,
	userID, stepID, optionID uuid.UUID,
) (*AnswerResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var result *AnswerResult
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		quizzes := s.quizzes.WithTx(tx)

		step, err := quizzes.GetStep(ctx, stepID)
		if err != nil {
			return err
		}

		session, err := s.ownedSession(ctx, quizzes, userID, step.SessionID)
		if err != nil {
			return err
		}
		if session.Status != domain.QuizStatusActive {
			return ErrSessionNotActive
		}

		question, err := quizzes.GetQuestionByStep(ctx, stepID)
		if err != nil {
			if errors.Is(err, store.ErrQuizQuestionNotFound) {
				return ErrStepNotGenerated
			}
			return err
		}

		option := question.Option(optionID)
		if option == nil {
			log.Warn("answer option outside question",
				slog.String("step_id", stepID.String()),
				slog.String("option_id", optionID.String()))
			return ErrOptionNotInQuestion
		}

		now := time.Now().UTC()
		if err := quizzes.AnswerStep(ctx, stepID, optionID, option.IsCorrect, now); err != nil {
			return err
		}

		step.AnsweredAt = &now
		step.UserAnswerID = &optionID
		correct := option.IsCorrect
		step.IsCorrect = &correct

		status := session.Status
		next, err := quizzes.NextPendingStep(ctx, step.SessionID)
		if err != nil {
			if !errors.Is(err, store.ErrQuizStepNotFound) {
				return err
			}
			// Last step answered: the session completes here, atomically
			// with the answer.
			next = nil
			status = domain.QuizStatusCompleted
			if err := quizzes.UpdateSessionStatus(ctx, step.SessionID, status, &now); err != nil {
				return err
			}
		}

		result = &AnswerResult{
			Step:            step,
			Correct:         option.IsCorrect,
			CorrectOptionID: question.CorrectOption().ID,
			Explanation:     question.Explanation,
			NextStep:        next,
			SessionStatus:   status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("quiz step answered",
		slog.String("step_id", stepID.String()),
		slog.Bool("correct", result.Correct),
		slog.String("session_status", string(result.SessionStatus)))
	return result, nil
}

// ResetSession throws away the session's steps, questions and answers and
// recreates the fresh four-step skeleton, all in one transaction. Observers
// see either the old state or the new skeleton, never an in-between.
func (s *Service) ResetSession(ctx context.Context, userID, sessionID uuid.UUID) (*SessionState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var state *SessionState
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		quizzes := s.quizzes.WithTx(tx)

		session, err := s.ownedSession(ctx, quizzes, userID, sessionID)
		if err != nil {
			return err
		}

		if err := quizzes.DeleteSteps(ctx, sessionID); err != nil {
			return err
		}

		steps, err := newStepSkeleton(sessionID)
		if err != nil {
			return err
		}
		if err := quizzes.CreateSteps(ctx, steps); err != nil {
			return err
		}

		if session.Status != domain.QuizStatusActive {
			if err := quizzes.UpdateSessionStatus(ctx, sessionID, domain.QuizStatusActive, nil); err != nil {
				return err
			}
			session.Status = domain.QuizStatusActive
			session.CompletedAt = nil
		}

		state = &SessionState{Session: session, Steps: steps}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("quiz session reset", slog.String("quiz_session_id", sessionID.String()))
	return state, nil
}

// AbandonSession marks the session abandoned regardless of progress.
// Answered steps stay as history. completed_at stays empty: it marks
// completion only, never abandonment.
func (s *Service) AbandonSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	session, err := s.ownedSession(ctx, s.quizzes, userID, sessionID)
	if err != nil {
		return err
	}
	if session.Status != domain.QuizStatusActive {
		return ErrSessionNotActive
	}

	if err := s.quizzes.UpdateSessionStatus(ctx, sessionID, domain.QuizStatusAbandoned, nil); err != nil {
		return err
	}

	log.Info("quiz session abandoned", slog.String("quiz_session_id", sessionID.String()))
	return nil
}

func (s *Service) ownedSession(
	ctx context.Context,
	quizzes store.QuizStore,
	userID, sessionID uuid.UUID,
) (*domain.QuizSession, error) {
	session, err := quizzes.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, service.ErrNotOwner
	}
	return session, nil
}

// newStepSkeleton builds the canonical four steps for a session.
func newStepSkeleton(sessionID uuid.UUID) ([]*domain.QuizStep, error) {
	sequence := domain.QuizStepSequence()
	steps := make([]*domain.QuizStep, 0, len(sequence))
	for i, stepType := range sequence {
		step, err := domain.NewQuizStep(sessionID, stepType, i)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}
