package studysession_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/studyowl/studyowl-api/internal/domain"
	"github.com/studyowl/studyowl-api/internal/domain/srs"
	"github.com/studyowl/studyowl-api/internal/platform/postgres"
	"github.com/studyowl/studyowl-api/internal/service"
	"github.com/studyowl/studyowl-api/internal/service/ledger"
	"github.com/studyowl/studyowl-api/internal/service/studysession"
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

// fixture wires a service over the shared test database with its own user,
// deck and card set. Sessions run against real transactions, so rows persist
// in the test database; per-fixture users keep tests independent.
type fixture struct {
	svc    *studysession.Service
	ledger *ledger.Ledger
	userID uuid.UUID
	deck   *domain.Deck
	cards  []*domain.Flashcard
}

func newFixture(ctx context.Context, t *testing.T, allowRestudy bool, cardCount int) *fixture {
	t.Helper()

	deckStore := postgres.NewPostgresDeckStore(testDB, nil)
	cardStore := postgres.NewPostgresFlashcardStore(testDB, nil)
	reviewStore := postgres.NewPostgresReviewStore(testDB, nil)
	sessionStore := postgres.NewPostgresStudySessionStore(testDB, nil)
	led := ledger.NewLedger(postgres.NewPostgresStatsStore(testDB, nil), nil)

	svc := studysession.NewService(
		testDB, sessionStore, deckStore, cardStore, reviewStore,
		led, srs.NewDefaultService(), allowRestudy, nil)

	userID := testutils.MustInsertUser(ctx, t, testDB, testutils.UniqueEmail("study"), bcrypt.MinCost)

	deck, err := domain.NewDeck(userID, "Cell Biology", "", []string{"biology"})
	require.NoError(t, err)
	require.NoError(t, deckStore.Create(ctx, deck))

	cards := make([]*domain.Flashcard, 0, cardCount)
	for i := 0; i < cardCount; i++ {
		card, err := domain.NewFlashcard(
			userID, deck.ID,
			fmt.Sprintf("Question %d", i), fmt.Sprintf("Answer %d", i),
			domain.BloomRemember, domain.DifficultyEasy)
		require.NoError(t, err)
		require.NoError(t, cardStore.Create(ctx, card))
		cards = append(cards, card)
	}

	return &fixture{svc: svc, ledger: led, userID: userID, deck: deck, cards: cards}
}

func startSession(ctx context.Context, t *testing.T, f *fixture) *domain.StudySession {
	t.Helper()

	result, err := f.svc.Start(ctx, f.userID, f.deck.ID)
	require.NoError(t, err)
	return result.Session
}

func TestStartIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(ctx, t, true, 2)

	first, err := f.svc.Start(ctx, f.userID, f.deck.ID)
	require.NoError(t, err)
	assert.Equal(t, studysession.StartStatusCreated, first.Status)

	second, err := f.svc.Start(ctx, f.userID, f.deck.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Session.ID, second.Session.ID, "starting twice must resume the same session")
	assert.Equal(t, studysession.StartStatusActive, second.Status, "a resumed session is flagged as active")
}

func TestStartRejectsForeignDeck(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(ctx, t, true, 1)

	intruder := testutils.MustInsertUser(ctx, t, testDB, testutils.UniqueEmail("intruder"), bcrypt.MinCost)
	_, err := f.svc.Start(ctx, intruder, f.deck.ID)
	assert.ErrorIs(t, err, service.ErrNotOwner)
}

func TestStartRejectsEmptyDeck(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(ctx, t, true, 0)

	_, err := f.svc.Start(ctx, f.userID, f.deck.ID)
	assert.ErrorIs(t, err, service.ErrDeckEmpty)
}

func TestSubmitReviewAdvancesSessionAndCard(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(ctx, t, true, 2)

	session := startSession(ctx, t, f)

	next, err := f.svc.NextCard(ctx, f.userID, session.ID)
	require.NoError(t, err)
	require.NotNil(t, next)

	result, err := f.svc.SubmitReview(ctx, f.userID, session.ID, next.ID, 4, 1500, "")
	require.NoError(t, err)

	assert.Equal(t, 1, result.Session.CorrectCount)
	assert.Equal(t, 1, result.Session.CurrentIndex)
	assert.Equal(t, 1, result.Card.Repetition)
	assert.Equal(t, 1, result.Card.Interval)
	require.NotNil(t, result.Card.NextReviewAt)
	require.NotNil(t, result.NextCard, "one unreviewed card remains")
	assert.NotEqual(t, next.ID, result.NextCard.ID)
}

func TestSubmitReviewRejectsCardFromOtherDeck(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(ctx, t, true, 1)
	other := newFixture(ctx, t, true, 1)

	session := startSession(ctx, t, f)

	_, err := f.svc.SubmitReview(ctx, f.userID, session.ID, other.cards[0].ID, 4, 0, "")
	assert.ErrorIs(t, err, studysession.ErrFlashcardNotInDeck)
}

func TestSummaryCompletesExhaustedSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(ctx, t, true, 2)

	session := startSession(ctx, t, f)

	// Mid-session summary leaves the session open.
	_, err := f.svc.SubmitReview(ctx, f.userID, session.ID, f.cards[0].ID, 5, 0, "")
	require.NoError(t, err)

	summary, err := f.svc.SummarizeAndMaybeComplete(ctx, f.userID, session.ID)
	require.NoError(t, err)
	assert.False(t, summary.Completed)
	assert.Equal(t, 1, summary.Reviewed)
	assert.Equal(t, 2, summary.TotalCards)
	assert.Equal(t, 1, summary.Remaining)
	assert.InDelta(t, 0.5, summary.Progress, 1e-9)
	require.NotNil(t, summary.NextCard, "an open session points at the next card")
	assert.Equal(t, f.cards[1].ID, summary.NextCard.ID)
	assert.Nil(t, summary.EndedAt)

	// Reviewing the last card, then summarizing, completes the session and
	// advances the aggregates.
	_, err = f.svc.SubmitReview(ctx, f.userID, session.ID, f.cards[1].ID, 2, 0, "")
	require.NoError(t, err)

	summary, err = f.svc.SummarizeAndMaybeComplete(ctx, f.userID, session.ID)
	require.NoError(t, err)
	assert.True(t, summary.Completed)
	assert.Equal(t, 1, summary.CorrectCount)
	assert.Equal(t, 1, summary.WrongCount)
	assert.Equal(t, "50.00", summary.Accuracy)
	assert.Equal(t, 0, summary.Remaining)
	assert.InDelta(t, 1.0, summary.Progress, 1e-9)
	assert.Nil(t, summary.NextCard, "completed sessions have no next card")
	require.NotNil(t, summary.EndedAt)

	stats, err := f.ledger.Stats(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.StudiesCompleted)
	assert.Equal(t, 1, stats.TotalCorrectAnswers)
	assert.Equal(t, 1, stats.TotalWrongAnswers)

	// Further reviews against the completed session are rejected.
	_, err = f.svc.SubmitReview(ctx, f.userID, session.ID, f.cards[0].ID, 4, 0, "")
	assert.ErrorIs(t, err, studysession.ErrSessionCompleted)
}

func TestEndForcesCompletion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(ctx, t, true, 3)

	session := startSession(ctx, t, f)

	_, err := f.svc.SubmitReview(ctx, f.userID, session.ID, f.cards[0].ID, 4, 0, "")
	require.NoError(t, err)

	summary, err := f.svc.End(ctx, f.userID, session.ID)
	require.NoError(t, err)
	assert.True(t, summary.Completed)
	assert.Equal(t, 1, summary.Reviewed)
	assert.Equal(t, 2, summary.Remaining)
	require.NotNil(t, summary.EndedAt)

	// Ending again is a no-op; the aggregates must not double-count.
	_, err = f.svc.End(ctx, f.userID, session.ID)
	require.NoError(t, err)

	stats, err := f.ledger.Stats(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.StudiesCompleted)
}

func TestRestudyPolicy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("allowed", func(t *testing.T) {
		t.Parallel()
		f := newFixture(ctx, t, true, 1)

		session := startSession(ctx, t, f)
		_, err := f.svc.End(ctx, f.userID, session.ID)
		require.NoError(t, err)

		fresh, err := f.svc.Start(ctx, f.userID, f.deck.ID)
		require.NoError(t, err)
		assert.NotEqual(t, session.ID, fresh.Session.ID)
		assert.Equal(t, studysession.StartStatusCreated, fresh.Status)
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		f := newFixture(ctx, t, false, 1)

		session := startSession(ctx, t, f)
		_, err := f.svc.End(ctx, f.userID, session.ID)
		require.NoError(t, err)

		_, err = f.svc.Start(ctx, f.userID, f.deck.ID)
		assert.ErrorIs(t, err, studysession.ErrRestudyNotAllowed)
	})
}

func TestDeleteWipesDeckProgress(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(ctx, t, true, 2)

	session := startSession(ctx, t, f)

	result, err := f.svc.SubmitReview(ctx, f.userID, session.ID, f.cards[0].ID, 5, 0, "")
	require.NoError(t, err)
	require.NotNil(t, result.Card.NextReviewAt)

	require.NoError(t, f.svc.Delete(ctx, f.userID, session.ID))

	// The session row is gone.
	_, err = f.svc.NextCard(ctx, f.userID, session.ID)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)

	// The reviewed card is back at scheduler defaults.
	cardStore := postgres.NewPostgresFlashcardStore(testDB, nil)
	card, err := cardStore.GetByID(ctx, f.cards[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultEaseFactor, card.EaseFactor)
	assert.Equal(t, 0, card.Interval)
	assert.Equal(t, 0, card.Repetition)
	assert.Nil(t, card.NextReviewAt)

	// The deck's study counters are zeroed.
	deckStore := postgres.NewPostgresDeckStore(testDB, nil)
	deck, err := deckStore.GetByID(ctx, f.deck.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, deck.ReviewCount)
	assert.Nil(t, deck.LastStudiedAt)
}
