package task

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyowl/studyowl-api/internal/events"
	"github.com/studyowl/studyowl-api/internal/generation"
	"github.com/studyowl/studyowl-api/internal/service"
)

type stubGenerator struct{}

func (g *stubGenerator) GenerateDeckCards(
	ctx context.Context,
	prompt generation.DeckPrompt,
) ([]generation.GeneratedCard, error) {
	return nil, nil
}

func (g *stubGenerator) GenerateQuizQuestion(
	ctx context.Context,
	prompt generation.QuestionPrompt,
) (*generation.GeneratedQuestion, error) {
	return &generation.GeneratedQuestion{}, nil
}

func mustPayload(t *testing.T, payload DeckGenerationPayload) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return raw
}

func TestNewDeckGenerationTask(t *testing.T) {
	t.Parallel()

	deckService := &service.DeckService{}
	generator := &stubGenerator{}

	t.Run("valid payload", func(t *testing.T) {
		t.Parallel()
		raw := mustPayload(t, DeckGenerationPayload{
			UserID:    uuid.New(),
			DeckID:    uuid.New(),
			CardCount: 10,
		})

		task, err := NewDeckGenerationTask(raw, deckService, generator, nil)
		require.NoError(t, err)
		assert.Equal(t, TaskTypeDeckGeneration, task.Type())
		assert.Equal(t, TaskStatusPending, task.Status())
		assert.Equal(t, raw, task.Payload())
		assert.NotEqual(t, uuid.Nil, task.ID())
	})

	t.Run("malformed payload", func(t *testing.T) {
		t.Parallel()
		_, err := NewDeckGenerationTask([]byte("{not json"), deckService, generator, nil)
		assert.Error(t, err)
	})

	t.Run("missing IDs", func(t *testing.T) {
		t.Parallel()
		raw := mustPayload(t, DeckGenerationPayload{CardCount: 10})
		_, err := NewDeckGenerationTask(raw, deckService, generator, nil)
		assert.Error(t, err)
	})

	t.Run("nil dependencies", func(t *testing.T) {
		t.Parallel()
		raw := mustPayload(t, DeckGenerationPayload{UserID: uuid.New(), DeckID: uuid.New()})

		_, err := NewDeckGenerationTask(raw, nil, generator, nil)
		assert.Error(t, err)

		_, err = NewDeckGenerationTask(raw, deckService, nil, nil)
		assert.Error(t, err)
	})
}

func TestTaskRequestEventHandler(t *testing.T) {
	t.Parallel()

	deckService := &service.DeckService{}
	generator := &stubGenerator{}

	t.Run("deck generation event is enqueued", func(t *testing.T) {
		t.Parallel()

		queue := NewTaskQueue(1, nil)
		defer queue.Close()
		handler := NewTaskRequestEventHandler(queue, deckService, generator, nil)

		event, err := events.NewTaskRequestEvent(TaskTypeDeckGeneration, DeckGenerationPayload{
			UserID:    uuid.New(),
			DeckID:    uuid.New(),
			CardCount: 5,
		})
		require.NoError(t, err)

		require.NoError(t, handler.HandleEvent(context.Background(), event))

		queued := <-queue.GetChannel()
		assert.Equal(t, TaskTypeDeckGeneration, queued.Type())
	})

	t.Run("unknown event type", func(t *testing.T) {
		t.Parallel()

		queue := NewTaskQueue(1, nil)
		defer queue.Close()
		handler := NewTaskRequestEventHandler(queue, deckService, generator, nil)

		event, err := events.NewTaskRequestEvent("mystery", nil)
		require.NoError(t, err)

		assert.Error(t, handler.HandleEvent(context.Background(), event))
	})

	t.Run("full queue surfaces the error", func(t *testing.T) {
		t.Parallel()

		queue := NewTaskQueue(0, nil)
		defer queue.Close()
		handler := NewTaskRequestEventHandler(queue, deckService, generator, nil)

		event, err := events.NewTaskRequestEvent(TaskTypeDeckGeneration, DeckGenerationPayload{
			UserID: uuid.New(),
			DeckID: uuid.New(),
		})
		require.NoError(t, err)

		assert.ErrorIs(t, handler.HandleEvent(context.Background(), event), ErrQueueFull)
	})
}
