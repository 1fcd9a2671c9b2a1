package quiz_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/studyowl/studyowl-api/internal/domain"
	"github.com/studyowl/studyowl-api/internal/generation"
	"github.com/studyowl/studyowl-api/internal/platform/postgres"
	"github.com/studyowl/studyowl-api/internal/service"
	"github.com/studyowl/studyowl-api/internal/service/quiz"
	"github.com/studyowl/studyowl-api/internal/store"
	"github.com/studyowl/studyowl-api/internal/testutils"
)

var testDB *sql.DB

func TestMain(m *testing.M) {
	if !testutils.IsIntegrationTestEnvironment() {
		os.Exit(0)
	}

	var err error
	testDB, err = testutils.GetTestDB()
	if err != nil {
		fmt.Printf("Failed to set up test database: %v\n", err)
		os.Exit(1)
	}

	exitCode := m.Run()

	if err := testDB.Close(); err != nil {
		fmt.Printf("Failed to close test database connection: %v\n", err)
	}

	os.Exit(exitCode)
}

// scriptedGenerator returns a fixed four-option question and counts calls,
// so regeneration guards are observable.
type scriptedGenerator struct {
	calls int
	err   error
}

func (g *scriptedGenerator) GenerateDeckCards(
	ctx context.Context,
	prompt generation.DeckPrompt,
) ([]generation.GeneratedCard, error) {
	return nil, generation.ErrGenerationFailed
}

func (g *scriptedGenerator) GenerateQuizQuestion(
	ctx context.Context,
	prompt generation.QuestionPrompt,
) (*generation.GeneratedQuestion, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &generation.GeneratedQuestion{
		Prompt:      fmt.Sprintf("Question about %s (%s)", prompt.Topic, prompt.StepType),
		Explanation: "Because that is how it works.",
		Options: []generation.GeneratedOption{
			{Label: "Wrong one"},
			{Label: "Right one", IsCorrect: true},
			{Label: "Another wrong one"},
			{Label: "Still wrong"},
		},
	}, nil
}

func newQuizFixture(ctx context.Context, t *testing.T) (*quiz.Service, *scriptedGenerator, uuid.UUID) {
	t.Helper()

	generator := &scriptedGenerator{}
	svc := quiz.NewService(testDB, postgres.NewPostgresQuizStore(testDB, nil), generator, nil)
	userID := testutils.MustInsertUser(ctx, t, testDB, testutils.UniqueEmail("quiz"), bcrypt.MinCost)
	return svc, generator, userID
}

func createSession(ctx context.Context, t *testing.T, svc *quiz.Service, userID uuid.UUID) *quiz.SessionState {
	t.Helper()

	state, err := svc.CreateSession(ctx, userID, "Photosynthesis", "light reactions",
		domain.DifficultyMedium, "socratic", "detailed")
	require.NoError(t, err)
	return state
}

func TestCreateSessionBuildsStepSkeleton(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, userID := newQuizFixture(ctx, t)

	state := createSession(ctx, t, svc, userID)
	assert.Equal(t, domain.QuizStatusActive, state.Session.Status)
	require.Len(t, state.Steps, 4)

	sequence := domain.QuizStepSequence()
	for i, step := range state.Steps {
		assert.Equal(t, sequence[i], step.StepType)
		assert.Equal(t, i, step.Position)
		assert.False(t, step.Answered())
	}

	// Reloading returns the steps in the same canonical order.
	reloaded, err := svc.GetSession(ctx, userID, state.Session.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Steps, 4)
	for i, step := range reloaded.Steps {
		assert.Equal(t, sequence[i], step.StepType)
	}
}

func TestGetSessionOwnership(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, userID := newQuizFixture(ctx, t)

	state := createSession(ctx, t, svc, userID)

	intruder := testutils.MustInsertUser(ctx, t, testDB, testutils.UniqueEmail("quiz-intruder"), bcrypt.MinCost)
	_, err := svc.GetSession(ctx, intruder, state.Session.ID)
	assert.ErrorIs(t, err, service.ErrNotOwner)
}

func TestGenerateStepOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, generator, userID := newQuizFixture(ctx, t)

	state := createSession(ctx, t, svc, userID)
	stepID := state.Steps[0].ID

	question, err := svc.GenerateStep(ctx, userID, stepID)
	require.NoError(t, err)
	assert.Equal(t, 1, generator.calls)
	require.Len(t, question.Options, 4)
	require.NotNil(t, question.CorrectOption())

	// Regeneration is refused without another generator call.
	_, err = svc.GenerateStep(ctx, userID, stepID)
	assert.ErrorIs(t, err, store.ErrQuestionExists)
	assert.Equal(t, 1, generator.calls)

	// The stored question is readable afterwards.
	stored, err := svc.StepQuestion(ctx, userID, stepID)
	require.NoError(t, err)
	assert.Equal(t, question.ID, stored.ID)
}

func TestStepQuestionBeforeGeneration(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, userID := newQuizFixture(ctx, t)

	state := createSession(ctx, t, svc, userID)

	_, err := svc.StepQuestion(ctx, userID, state.Steps[0].ID)
	assert.ErrorIs(t, err, quiz.ErrStepNotGenerated)
}

func TestAnswerStepWalksToCompletion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, userID := newQuizFixture(ctx, t)

	state := createSession(ctx, t, svc, userID)

	for i, step := range state.Steps {
		question, err := svc.GenerateStep(ctx, userID, step.ID)
		require.NoError(t, err)

		result, err := svc.AnswerStep(ctx, userID, step.ID, question.CorrectOption().ID)
		require.NoError(t, err)
		assert.True(t, result.Correct)
		assert.Equal(t, question.CorrectOption().ID, result.CorrectOptionID)

		if i < len(state.Steps)-1 {
			require.NotNil(t, result.NextStep)
			assert.Equal(t, state.Steps[i+1].ID, result.NextStep.ID)
			assert.Equal(t, domain.QuizStatusActive, result.SessionStatus)
		} else {
			assert.Nil(t, result.NextStep)
			assert.Equal(t, domain.QuizStatusCompleted, result.SessionStatus,
				"answering the last step completes the session")
		}
	}

	reloaded, err := svc.GetSession(ctx, userID, state.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuizStatusCompleted, reloaded.Session.Status)
	require.NotNil(t, reloaded.Session.CompletedAt)
}

func TestAnswerStepGuards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, userID := newQuizFixture(ctx, t)

	state := createSession(ctx, t, svc, userID)
	stepID := state.Steps[0].ID

	// Not generated yet.
	_, err := svc.AnswerStep(ctx, userID, stepID, uuid.New())
	assert.ErrorIs(t, err, quiz.ErrStepNotGenerated)

	question, err := svc.GenerateStep(ctx, userID, stepID)
	require.NoError(t, err)

	// Foreign option.
	_, err = svc.AnswerStep(ctx, userID, stepID, uuid.New())
	assert.ErrorIs(t, err, quiz.ErrOptionNotInQuestion)

	// A wrong answer still records, reporting the correct option.
	var wrong *domain.QuizOption
	for i := range question.Options {
		if !question.Options[i].IsCorrect {
			wrong = &question.Options[i]
			break
		}
	}
	require.NotNil(t, wrong)

	result, err := svc.AnswerStep(ctx, userID, stepID, wrong.ID)
	require.NoError(t, err)
	assert.False(t, result.Correct)
	assert.Equal(t, question.CorrectOption().ID, result.CorrectOptionID)

	// Answering twice is refused.
	_, err = svc.AnswerStep(ctx, userID, stepID, wrong.ID)
	assert.ErrorIs(t, err, store.ErrStepAlreadyAnswered)
}

func TestAnswerStepConcurrentSubmissions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, userID := newQuizFixture(ctx, t)

	state := createSession(ctx, t, svc, userID)
	stepID := state.Steps[0].ID

	question, err := svc.GenerateStep(ctx, userID, stepID)
	require.NoError(t, err)
	optionID := question.CorrectOption().ID

	// Two racing submissions for the same step: the answered_at guard lets
	// exactly one through.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AnswerStep(ctx, userID, stepID, optionID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, refused int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, store.ErrStepAlreadyAnswered):
			refused++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, refused)

	step, err := svc.GetSession(ctx, userID, state.Session.ID)
	require.NoError(t, err)
	assert.True(t, step.Steps[0].Answered())
}

func TestResetSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, generator, userID := newQuizFixture(ctx, t)

	state := createSession(ctx, t, svc, userID)

	// Answer the whole quiz so the session completes.
	for _, step := range state.Steps {
		question, err := svc.GenerateStep(ctx, userID, step.ID)
		require.NoError(t, err)
		_, err = svc.AnswerStep(ctx, userID, step.ID, question.CorrectOption().ID)
		require.NoError(t, err)
	}

	fresh, err := svc.ResetSession(ctx, userID, state.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuizStatusActive, fresh.Session.Status)
	assert.Nil(t, fresh.Session.CompletedAt)
	require.Len(t, fresh.Steps, 4)
	for i, step := range fresh.Steps {
		assert.False(t, step.Answered())
		assert.NotEqual(t, state.Steps[i].ID, step.ID, "reset recreates steps, not reuses them")
	}

	// Old steps and their questions are gone; the new skeleton generates
	// from scratch.
	_, err = svc.StepQuestion(ctx, userID, fresh.Steps[0].ID)
	assert.ErrorIs(t, err, quiz.ErrStepNotGenerated)

	callsBefore := generator.calls
	_, err = svc.GenerateStep(ctx, userID, fresh.Steps[0].ID)
	require.NoError(t, err)
	assert.Equal(t, callsBefore+1, generator.calls)
}

func TestAbandonSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, userID := newQuizFixture(ctx, t)

	state := createSession(ctx, t, svc, userID)

	require.NoError(t, svc.AbandonSession(ctx, userID, state.Session.ID))

	reloaded, err := svc.GetSession(ctx, userID, state.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuizStatusAbandoned, reloaded.Session.Status)
	assert.Nil(t, reloaded.Session.CompletedAt, "completed_at marks completion, not abandonment")

	// Abandoned sessions refuse step work and double abandonment.
	_, err = svc.GenerateStep(ctx, userID, state.Steps[0].ID)
	assert.ErrorIs(t, err, quiz.ErrSessionNotActive)

	err = svc.AbandonSession(ctx, userID, state.Session.ID)
	assert.ErrorIs(t, err, quiz.ErrSessionNotActive)
}

func TestGenerateStepPropagatesGeneratorFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, generator, userID := newQuizFixture(ctx, t)
	generator.err = generation.ErrContentBlocked

	state := createSession(ctx, t, svc, userID)

	_, err := svc.GenerateStep(ctx, userID, state.Steps[0].ID)
	assert.ErrorIs(t, err, generation.ErrContentBlocked)

	// Nothing was stored; the step can still generate once the provider
	// recovers.
	generator.err = nil
	_, err = svc.GenerateStep(ctx, userID, state.Steps[0].ID)
	require.NoError(t, err)
}
