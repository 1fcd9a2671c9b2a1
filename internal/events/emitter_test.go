package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	events []*TaskRequestEvent
	err    error
}

func (h *recordingHandler) HandleEvent(ctx context.Context, event *TaskRequestEvent) error {
	h.events = append(h.events, event)
	return h.err
}

func TestNewTaskRequestEvent(t *testing.T) {
	t.Parallel()

	event, err := NewTaskRequestEvent("deck_generation", map[string]int{"card_count": 5})
	require.NoError(t, err)
	assert.Equal(t, "deck_generation", event.Type)
	assert.False(t, event.CreatedAt.IsZero())

	var payload struct {
		CardCount int `json:"card_count"`
	}
	require.NoError(t, event.UnmarshalPayload(&payload))
	assert.Equal(t, 5, payload.CardCount)
}

func TestNewTaskRequestEventUnserializablePayload(t *testing.T) {
	t.Parallel()

	_, err := NewTaskRequestEvent("deck_generation", make(chan int))
	assert.Error(t, err)
}

func TestEmitEventDispatchesToAllHandlers(t *testing.T) {
	t.Parallel()

	emitter := NewInMemoryEventEmitter(nil)
	first := &recordingHandler{}
	second := &recordingHandler{}
	emitter.RegisterHandler(first)
	emitter.RegisterHandler(second)

	event, err := NewTaskRequestEvent("deck_generation", nil)
	require.NoError(t, err)

	require.NoError(t, emitter.EmitEvent(context.Background(), event))
	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	assert.Equal(t, event.ID, first.events[0].ID)
}

func TestEmitEventReturnsFirstError(t *testing.T) {
	t.Parallel()

	errFirst := errors.New("first handler failed")

	emitter := NewInMemoryEventEmitter(nil)
	failing := &recordingHandler{err: errFirst}
	trailing := &recordingHandler{err: errors.New("second handler failed")}
	emitter.RegisterHandler(failing)
	emitter.RegisterHandler(trailing)

	event, err := NewTaskRequestEvent("deck_generation", nil)
	require.NoError(t, err)

	got := emitter.EmitEvent(context.Background(), event)
	assert.Equal(t, errFirst, got)
	assert.Len(t, trailing.events, 1, "a failing handler must not stop delivery")
}

func TestEmitEventNoHandlers(t *testing.T) {
	t.Parallel()

	emitter := NewInMemoryEventEmitter(nil)
	event, err := NewTaskRequestEvent("deck_generation", nil)
	require.NoError(t, err)

	assert.NoError(t, emitter.EmitEvent(context.Background(), event))
}
