package mocks

import (
	"context"

	"github.com/google/uuid"

	"github.com/studyowl/studyowl-api/internal/domain"
	"github.com/studyowl/studyowl-api/internal/service/studysession"
)

// MockStudySessionService implements studysession.StudySessionService for
// testing. Each method uses its function field when set, otherwise returns
// the configured default value and Err.
type MockStudySessionService struct {
	StartFn        func(ctx context.Context, userID, deckID uuid.UUID) (*studysession.StartResult, error)
	NextCardFn     func(ctx context.Context, userID, sessionID uuid.UUID) (*domain.Flashcard, error)
	SubmitReviewFn func(ctx context.Context, userID, sessionID, flashcardID uuid.UUID,
		grade, timeToAnswerMs int, notes string) (*studysession.ReviewResult, error)
	SummarizeFn func(ctx context.Context, userID, sessionID uuid.UUID) (*studysession.Summary, error)
	EndFn       func(ctx context.Context, userID, sessionID uuid.UUID) (*studysession.Summary, error)
	DeleteFn    func(ctx context.Context, userID, sessionID uuid.UUID) error

	Session *domain.StudySession
	Card    *domain.Flashcard
	Result  *studysession.ReviewResult
	Summary *studysession.Summary
	Err     error
}

var _ studysession.StudySessionService = (*MockStudySessionService)(nil)

func (m *MockStudySessionService) Start(ctx context.Context, userID, deckID uuid.UUID) (*studysession.StartResult, error) {
	if m.StartFn != nil {
		return m.StartFn(ctx, userID, deckID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return &studysession.StartResult{Session: m.Session, Status: studysession.StartStatusCreated}, nil
}

func (m *MockStudySessionService) NextCard(ctx context.Context, userID, sessionID uuid.UUID) (*domain.Flashcard, error) {
	if m.NextCardFn != nil {
		return m.NextCardFn(ctx, userID, sessionID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Card, nil
}

func (m *MockStudySessionService) SubmitReview(
	ctx context.Context,
	userID, sessionID, flashcardID uuid.UUID,
	grade, timeToAnswerMs int,
	notes string,
) (*studysession.ReviewResult, error) {
	if m.SubmitReviewFn != nil {
		return m.SubmitReviewFn(ctx, userID, sessionID, flashcardID, grade, timeToAnswerMs, notes)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

func (m *MockStudySessionService) SummarizeAndMaybeComplete(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*studysession.Summary, error) {
	if m.SummarizeFn != nil {
		return m.SummarizeFn(ctx, userID, sessionID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Summary, nil
}

func (m *MockStudySessionService) End(ctx context.Context, userID, sessionID uuid.UUID) (*studysession.Summary, error) {
	if m.EndFn != nil {
		return m.EndFn(ctx, userID, sessionID)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Summary, nil
}

func (m *MockStudySessionService) Delete(ctx context.Context, userID, sessionID uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, userID, sessionID)
	}
	return m.Err
}
