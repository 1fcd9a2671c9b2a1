package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyowl/studyowl-api/internal/api"
	"github.com/studyowl/studyowl-api/internal/api/shared"
	"github.com/studyowl/studyowl-api/internal/domain"
	"github.com/studyowl/studyowl-api/internal/mocks"
	"github.com/studyowl/studyowl-api/internal/service"
	"github.com/studyowl/studyowl-api/internal/service/studysession"
	"github.com/studyowl/studyowl-api/internal/store"
)

// authedJSON runs the handler with an authenticated user, a chi URL
// parameter and an optional JSON body.
func authedJSON(
	t *testing.T,
	handler http.HandlerFunc,
	method string,
	userID uuid.UUID,
	paramName, paramValue string,
	body interface{},
) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, "/", reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(paramName, paramValue)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if userID != uuid.Nil {
		ctx = context.WithValue(ctx, shared.UserIDContextKey, userID)
	}

	rec := httptest.NewRecorder()
	handler(rec, req.WithContext(ctx))
	return rec
}

func TestStudyHandlerStartSession(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	deckID := uuid.New()

	t.Run("created", func(t *testing.T) {
		t.Parallel()

		session, err := domain.NewStudySession(userID, deckID)
		require.NoError(t, err)

		svc := &mocks.MockStudySessionService{
			StartFn: func(ctx context.Context, gotUser, gotDeck uuid.UUID) (*studysession.StartResult, error) {
				assert.Equal(t, userID, gotUser)
				assert.Equal(t, deckID, gotDeck)
				return &studysession.StartResult{
					Session: session,
					Status:  studysession.StartStatusCreated,
				}, nil
			},
		}
		handler := api.NewStudyHandler(svc)

		rec := authedJSON(t, handler.StartSession, http.MethodPost, userID, "deckID", deckID.String(), nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp studysession.StartResult
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, studysession.StartStatusCreated, resp.Status)
		require.NotNil(t, resp.Session)
		assert.Equal(t, session.ID, resp.Session.ID)
		assert.Equal(t, deckID, resp.Session.DeckID)
	})

	t.Run("resumed", func(t *testing.T) {
		t.Parallel()

		session, err := domain.NewStudySession(userID, deckID)
		require.NoError(t, err)

		handler := api.NewStudyHandler(&mocks.MockStudySessionService{
			StartFn: func(ctx context.Context, gotUser, gotDeck uuid.UUID) (*studysession.StartResult, error) {
				return &studysession.StartResult{
					Session: session,
					Status:  studysession.StartStatusActive,
				}, nil
			},
		})

		rec := authedJSON(t, handler.StartSession, http.MethodPost, userID, "deckID", deckID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code, "a resumed session is not a fresh resource")

		var resp studysession.StartResult
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, studysession.StartStatusActive, resp.Status)
		assert.Equal(t, session.ID, resp.Session.ID)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()

		handler := api.NewStudyHandler(&mocks.MockStudySessionService{})
		rec := authedJSON(t, handler.StartSession, http.MethodPost, uuid.Nil, "deckID", deckID.String(), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid deck id", func(t *testing.T) {
		t.Parallel()

		handler := api.NewStudyHandler(&mocks.MockStudySessionService{})
		rec := authedJSON(t, handler.StartSession, http.MethodPost, userID, "deckID", "not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("foreign deck", func(t *testing.T) {
		t.Parallel()

		handler := api.NewStudyHandler(&mocks.MockStudySessionService{Err: service.ErrNotOwner})
		rec := authedJSON(t, handler.StartSession, http.MethodPost, userID, "deckID", deckID.String(), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("empty deck", func(t *testing.T) {
		t.Parallel()

		handler := api.NewStudyHandler(&mocks.MockStudySessionService{Err: service.ErrDeckEmpty})
		rec := authedJSON(t, handler.StartSession, http.MethodPost, userID, "deckID", deckID.String(), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStudyHandlerNextCard(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	sessionID := uuid.New()

	t.Run("card available", func(t *testing.T) {
		t.Parallel()

		card, err := domain.NewFlashcard(uuid.New(), userID, "front", "back",
			domain.BloomRemember, domain.DifficultyEasy)
		require.NoError(t, err)

		handler := api.NewStudyHandler(&mocks.MockStudySessionService{Card: card})
		rec := authedJSON(t, handler.NextCard, http.MethodGet, userID, "sessionID", sessionID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp domain.Flashcard
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, card.ID, resp.ID)
	})

	t.Run("deck exhausted", func(t *testing.T) {
		t.Parallel()

		handler := api.NewStudyHandler(&mocks.MockStudySessionService{})
		rec := authedJSON(t, handler.NextCard, http.MethodGet, userID, "sessionID", sessionID.String(), nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.Bytes())
	})

	t.Run("unknown session", func(t *testing.T) {
		t.Parallel()

		handler := api.NewStudyHandler(&mocks.MockStudySessionService{Err: store.ErrSessionNotFound})
		rec := authedJSON(t, handler.NextCard, http.MethodGet, userID, "sessionID", sessionID.String(), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestStudyHandlerSubmitReview(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	sessionID := uuid.New()
	flashcardID := uuid.New()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		svc := &mocks.MockStudySessionService{
			SubmitReviewFn: func(ctx context.Context, gotUser, gotSession, gotCard uuid.UUID,
				grade, timeToAnswerMs int, notes string) (*studysession.ReviewResult, error) {
				assert.Equal(t, userID, gotUser)
				assert.Equal(t, sessionID, gotSession)
				assert.Equal(t, flashcardID, gotCard)
				assert.Equal(t, 4, grade)
				assert.Equal(t, 1500, timeToAnswerMs)
				assert.Equal(t, "tricky one", notes)
				return &studysession.ReviewResult{}, nil
			},
		}
		handler := api.NewStudyHandler(svc)

		rec := authedJSON(t, handler.SubmitReview, http.MethodPost, userID, "sessionID", sessionID.String(),
			api.SubmitReviewRequest{
				FlashcardID:    flashcardID,
				Grade:          4,
				TimeToAnswerMs: 1500,
				Notes:          "tricky one",
			})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("grade out of range", func(t *testing.T) {
		t.Parallel()

		handler := api.NewStudyHandler(&mocks.MockStudySessionService{})
		rec := authedJSON(t, handler.SubmitReview, http.MethodPost, userID, "sessionID", sessionID.String(),
			map[string]interface{}{"flashcard_id": flashcardID, "grade": 9})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("completed session", func(t *testing.T) {
		t.Parallel()

		handler := api.NewStudyHandler(&mocks.MockStudySessionService{Err: studysession.ErrSessionCompleted})
		rec := authedJSON(t, handler.SubmitReview, http.MethodPost, userID, "sessionID", sessionID.String(),
			api.SubmitReviewRequest{FlashcardID: flashcardID, Grade: 3})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestStudyHandlerGetSummary(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	sessionID := uuid.New()

	summary := &studysession.Summary{
		SessionID:    sessionID,
		DeckID:       uuid.New(),
		Completed:    true,
		CorrectCount: 3,
		WrongCount:   1,
		TotalCards:   4,
		Reviewed:     4,
		Accuracy:     "75.00",
	}

	handler := api.NewStudyHandler(&mocks.MockStudySessionService{Summary: summary})
	rec := authedJSON(t, handler.GetSummary, http.MethodGet, userID, "sessionID", sessionID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp studysession.Summary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Completed)
	assert.Equal(t, "75.00", resp.Accuracy)
}

func TestStudyHandlerEndAndDelete(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	sessionID := uuid.New()

	t.Run("end returns summary", func(t *testing.T) {
		t.Parallel()

		handler := api.NewStudyHandler(&mocks.MockStudySessionService{
			Summary: &studysession.Summary{SessionID: sessionID, Completed: true},
		})
		rec := authedJSON(t, handler.EndSession, http.MethodPost, userID, "sessionID", sessionID.String(), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp studysession.Summary
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.True(t, resp.Completed)
	})

	t.Run("delete responds no content", func(t *testing.T) {
		t.Parallel()

		deleted := false
		handler := api.NewStudyHandler(&mocks.MockStudySessionService{
			DeleteFn: func(ctx context.Context, gotUser, gotSession uuid.UUID) error {
				deleted = true
				return nil
			},
		})
		rec := authedJSON(t, handler.DeleteSession, http.MethodDelete, userID, "sessionID", sessionID.String(), nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, deleted)
	})
}
