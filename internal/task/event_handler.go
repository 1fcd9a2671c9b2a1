package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/studyowl/studyowl-api/internal/events"
	"github.com/studyowl/studyowl-api/internal/generation"
	"github.com/studyowl/studyowl-api/internal/service"
)

// TaskRequestEventHandler turns TaskRequestEvents into queued tasks. It is
// the bridge between the event emitter the services publish to and the
// worker pool that executes the work.
type TaskRequestEventHandler struct {
	queue       TaskQueueWriter
	deckService *service.DeckService
	generator   generation.Generator
	logger      *slog.Logger
}

// Ensure TaskRequestEventHandler implements events.EventHandler
var _ events.EventHandler = (*TaskRequestEventHandler)(nil)

// NewTaskRequestEventHandler creates an event handler that enqueues tasks
// built from incoming events.
func NewTaskRequestEventHandler(
	queue TaskQueueWriter,
	deckService *service.DeckService,
	generator generation.Generator,
	logger *slog.Logger,
) *TaskRequestEventHandler {
	if queue == nil {
		panic("queue cannot be nil")
	}
	if deckService == nil {
		panic("deck service cannot be nil")
	}
	if generator == nil {
		panic("generator cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskRequestEventHandler{
		queue:       queue,
		deckService: deckService,
		generator:   generator,
		logger:      logger.With(slog.String("component", "task_event_handler")),
	}
}

// HandleEvent implements events.EventHandler. Unknown event types are an
// error so misrouted events surface instead of vanishing.
func (h *TaskRequestEventHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	switch event.Type {
	case TaskTypeDeckGeneration:
		t, err := NewDeckGenerationTask(event.Payload, h.deckService, h.generator, h.logger)
		if err != nil {
			h.logger.Error("failed to build deck generation task",
				"error", err,
				"event_id", event.ID)
			return err
		}

		if err := h.queue.Enqueue(t); err != nil {
			h.logger.Error("failed to enqueue deck generation task",
				"error", err,
				"event_id", event.ID,
				"task_id", t.ID())
			return err
		}

		h.logger.Info("deck generation task enqueued",
			"event_id", event.ID,
			"task_id", t.ID())
		return nil

	default:
		return fmt.Errorf("unknown task event type: %s", event.Type)
	}
}
