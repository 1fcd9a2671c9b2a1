package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyowl/studyowl-api/internal/api/middleware"
	"github.com/studyowl/studyowl-api/internal/mocks"
	"github.com/studyowl/studyowl-api/internal/service/auth"
)

func runAuthenticated(t *testing.T, jwtService *mocks.MockJWTService, header string) (*httptest.ResponseRecorder, *uuid.UUID) {
	t.Helper()

	var captured *uuid.UUID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := middleware.GetUserID(r); ok {
			captured = &id
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/decks", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()

	middleware.NewAuthMiddleware(jwtService).Authenticate(next).ServeHTTP(rec, req)
	return rec, captured
}

func TestAuthenticateValidToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	jwtService := mocks.NewMockJWTService()
	jwtService.ValidateTokenFn = func(ctx context.Context, tokenString string) (*auth.Claims, error) {
		assert.Equal(t, "good-token", tokenString)
		return &auth.Claims{UserID: userID, TokenType: "access"}, nil
	}

	rec, captured := runAuthenticated(t, jwtService, "Bearer good-token")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured, "user ID must reach the next handler")
	assert.Equal(t, userID, *captured)
}

func TestAuthenticateMissingHeader(t *testing.T) {
	t.Parallel()

	rec, captured := runAuthenticated(t, mocks.NewMockJWTService(), "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, captured)
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	t.Parallel()

	for _, header := range []string{"good-token", "Basic dXNlcjpwYXNz", "Bearer"} {
		rec, _ := runAuthenticated(t, mocks.NewMockJWTService(), header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestAuthenticateTokenErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"expired", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"invalid", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"refresh token used as access token", auth.ErrWrongTokenType, http.StatusUnauthorized},
		{"unexpected failure", assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			jwtService := mocks.NewMockJWTService()
			jwtService.Err = tt.err

			rec, captured := runAuthenticated(t, jwtService, "Bearer whatever")
			assert.Equal(t, tt.want, rec.Code)
			assert.Nil(t, captured)
		})
	}
}
