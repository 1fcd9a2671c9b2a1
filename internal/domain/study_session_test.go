package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyowl/studyowl-api/internal/domain"
)

func TestNewStudySession(t *testing.T) {
	t.Parallel()

	session, err := domain.NewStudySession(uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.False(t, session.Completed)
	assert.Equal(t, 0, session.CurrentIndex)
	assert.Nil(t, session.EndedAt)

	_, err = domain.NewStudySession(uuid.Nil, uuid.New())
	assert.ErrorIs(t, err, domain.ErrSessionUserIDEmpty)

	_, err = domain.NewStudySession(uuid.New(), uuid.Nil)
	assert.ErrorIs(t, err, domain.ErrSessionDeckIDEmpty)
}

func TestStudySessionRecordAnswer(t *testing.T) {
	t.Parallel()

	session, err := domain.NewStudySession(uuid.New(), uuid.New())
	require.NoError(t, err)

	session.RecordAnswer(true)
	session.RecordAnswer(true)
	session.RecordAnswer(false)

	assert.Equal(t, 2, session.CorrectCount)
	assert.Equal(t, 1, session.WrongCount)
	assert.Equal(t, 3, session.CurrentIndex)
}

func TestStudySessionAccuracy(t *testing.T) {
	t.Parallel()

	session, err := domain.NewStudySession(uuid.New(), uuid.New())
	require.NoError(t, err)

	assert.Zero(t, session.Accuracy(), "no answers yet")

	session.RecordAnswer(true)
	session.RecordAnswer(false)
	session.RecordAnswer(true)
	session.RecordAnswer(true)

	assert.InDelta(t, 0.75, session.Accuracy(), 0.0001)
}

func TestStudySessionComplete(t *testing.T) {
	t.Parallel()

	session, err := domain.NewStudySession(uuid.New(), uuid.New())
	require.NoError(t, err)

	first := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	session.Complete(first)
	assert.True(t, session.Completed)
	require.NotNil(t, session.EndedAt)
	assert.Equal(t, first, *session.EndedAt)

	session.Complete(first.Add(time.Hour))
	assert.Equal(t, first, *session.EndedAt, "completing twice must not move the end time")
}
