package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyowl/studyowl-api/internal/api"
	"github.com/studyowl/studyowl-api/internal/domain"
	"github.com/studyowl/studyowl-api/internal/mocks"
	"github.com/studyowl/studyowl-api/internal/service/auth"
)

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestAuthHandlerRegister(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		userStore := mocks.NewMockUserStore()
		handler := api.NewAuthHandler(userStore, mocks.NewMockJWTService(), &mocks.MockPasswordVerifier{})

		rec := postJSON(t, handler.Register, "/api/auth/register", api.RegisterRequest{
			Email:    "newuser@example.com",
			Password: "correct horse battery",
		})

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp api.AuthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "test-access-token", resp.AccessToken)
		assert.Equal(t, "test-refresh-token", resp.RefreshToken)
		assert.NotEqual(t, uuid.Nil, resp.UserID)

		stored, ok := userStore.Users["newuser@example.com"]
		require.True(t, ok, "user must be persisted")
		assert.NotEqual(t, "correct horse battery", stored.HashedPassword)
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()

		userStore := mocks.NewMockUserStore()
		existing, err := domain.NewUser("taken@example.com", "already registered")
		require.NoError(t, err)
		userStore.Users[existing.Email] = existing

		handler := api.NewAuthHandler(userStore, mocks.NewMockJWTService(), &mocks.MockPasswordVerifier{})

		rec := postJSON(t, handler.Register, "/api/auth/register", api.RegisterRequest{
			Email:    "taken@example.com",
			Password: "correct horse battery",
		})

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("short password", func(t *testing.T) {
		t.Parallel()

		handler := api.NewAuthHandler(mocks.NewMockUserStore(), mocks.NewMockJWTService(), &mocks.MockPasswordVerifier{})

		rec := postJSON(t, handler.Register, "/api/auth/register", api.RegisterRequest{
			Email:    "short@example.com",
			Password: "tooshort",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthHandlerLogin(t *testing.T) {
	t.Parallel()

	user, err := domain.NewUser("login@example.com", "correct horse battery")
	require.NoError(t, err)

	newStore := func() *mocks.MockUserStore {
		s := mocks.NewMockUserStore()
		s.Users[user.Email] = user
		return s
	}

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		handler := api.NewAuthHandler(newStore(), mocks.NewMockJWTService(), &mocks.MockPasswordVerifier{})

		rec := postJSON(t, handler.Login, "/api/auth/login", api.LoginRequest{
			Email:    "login@example.com",
			Password: "correct horse battery",
		})

		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.AuthResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, user.ID, resp.UserID)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()

		verifier := &mocks.MockPasswordVerifier{Err: auth.ErrInvalidCredentials}
		handler := api.NewAuthHandler(newStore(), mocks.NewMockJWTService(), verifier)

		rec := postJSON(t, handler.Login, "/api/auth/login", api.LoginRequest{
			Email:    "login@example.com",
			Password: "not the password",
		})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		t.Parallel()

		handler := api.NewAuthHandler(mocks.NewMockUserStore(), mocks.NewMockJWTService(), &mocks.MockPasswordVerifier{})

		rec := postJSON(t, handler.Login, "/api/auth/login", api.LoginRequest{
			Email:    "nobody@example.com",
			Password: "anything at all",
		})

		assert.Equal(t, http.StatusUnauthorized, rec.Code,
			"unknown email must look like a bad password")
	})
}

func TestAuthHandlerRefreshToken(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		jwtService := mocks.NewMockJWTService()
		jwtService.ValidateRefreshTokenFn = func(ctx context.Context, tokenString string) (*auth.Claims, error) {
			assert.Equal(t, "valid-refresh", tokenString)
			return &auth.Claims{UserID: userID, TokenType: "refresh"}, nil
		}

		handler := api.NewAuthHandler(mocks.NewMockUserStore(), jwtService, &mocks.MockPasswordVerifier{})

		rec := postJSON(t, handler.RefreshToken, "/api/auth/refresh", api.RefreshTokenRequest{
			RefreshToken: "valid-refresh",
		})

		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.RefreshTokenResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "test-access-token", resp.AccessToken)
		assert.Equal(t, "test-refresh-token", resp.RefreshToken)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		t.Parallel()

		jwtService := mocks.NewMockJWTService()
		jwtService.Err = auth.ErrExpiredRefreshToken

		handler := api.NewAuthHandler(mocks.NewMockUserStore(), jwtService, &mocks.MockPasswordVerifier{})

		rec := postJSON(t, handler.RefreshToken, "/api/auth/refresh", api.RefreshTokenRequest{
			RefreshToken: "stale",
		})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
