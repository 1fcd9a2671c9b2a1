package mocks

import (
	"context"

	"github.com/google/uuid"

	"github.com/studyowl/studyowl-api/internal/domain"
	"github.com/studyowl/studyowl-api/internal/service/quiz"
)

// MockQuizService implements quiz.QuizService for testing. Each method uses
// its function field when set, otherwise returns the configured default
// value and Err.
type MockQuizService struct {
	CreateSessionFn func(ctx context.Context, userID uuid.UUID, topic, subtopic string,
		difficulty domain.Difficulty, style, explanationType string) (*quiz.SessionState, error)
	GetSessionFn     func(ctx context.Context, userID, sessionID uuid.UUID) (*quiz.SessionState, error)
	GenerateStepFn   func(ctx context.Context, userID, stepID uuid.UUID) (*domain.QuizQuestion, error)
	StepQuestionFn   func(ctx context.Context, userID, stepID uuid.UUID) (*domain.QuizQuestion, error)
	AnswerStepFn     func(ctx context.Context, userID, stepID, optionID uuid.UUID) (*quiz.AnswerResult, error)
	ResetSessionFn   func(ctx context.Context, userID, sessionID uuid.UUID) (*quiz.SessionState, error)
	AbandonSessionFn func(ctx context.Context, userID, sessionID uuid.UUID) error

	State    *quiz.SessionState
	Question *domain.QuizQuestion
	Result   *quiz.AnswerResult
	Err      error
}

var _ quiz.QuizService = (*MockQuizService)(nil)

func (m *MockQuizService) CreateSession(
	ctx context.Context,
	userID uuid.UUID,
	topic, subtopic string,
	difficulty domain.Difficulty,
	style, explanationType string,
) (*quiz.SessionState, error) {
	if m.CreateSessionFn != nil {
		return m.CreateSessionFn(ctx, userID, topic, subtopic, difficulty, style, explanationType)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.State, nil
}

func (m *MockQuizService) GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*quiz.SessionState, error) {
	if m.GetSessionFn != nil {
		return m.GetSessionFn(ctx, userID, sessionID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.State, nil
}

func (m *MockQuizService) GenerateStep(ctx context.Context, userID, stepID uuid.UUID) (*domain.QuizQuestion, error) {
	if m.GenerateStepFn != nil {
		return m.GenerateStepFn(ctx, userID, stepID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Question, nil
}

func (m *MockQuizService) StepQuestion(ctx context.Context, userID, stepID uuid.UUID) (*domain.QuizQuestion, error) {
	if m.StepQuestionFn != nil {
		return m.StepQuestionFn(ctx, userID, stepID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Question, nil
}

func (m *MockQuizService) AnswerStep(ctx context.Context, userID, stepID, optionID uuid.UUID) (*quiz.AnswerResult, error) {
	if m.AnswerStepFn != nil {
		return m.AnswerStepFn(ctx, userID, stepID, optionID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

func (m *MockQuizService) ResetSession(ctx context.Context, userID, sessionID uuid.UUID) (*quiz.SessionState, error) {
	if m.ResetSessionFn != nil {
		return m.ResetSessionFn(ctx, userID, sessionID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.State, nil
}

func (m *MockQuizService) AbandonSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	if m.AbandonSessionFn != nil {
		return m.AbandonSessionFn(ctx, userID, sessionID)
	}
	return m.Err
}
