package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/studyowl/studyowl-api/internal/domain"
	"github.com/studyowl/studyowl-api/internal/generation"
	"github.com/studyowl/studyowl-api/internal/service"
)

// DeckGenerationPayload is the JSON payload of a deck generation task.
type DeckGenerationPayload struct {
	UserID    uuid.UUID `json:"user_id"`
	DeckID    uuid.UUID `json:"deck_id"`
	CardCount int       `json:"card_count"`
}

// DeckGenerationTask regenerates a deck's entire card set: it asks the
// generator for new cards and swaps them in through the deck service's
// bulk-replace, which handles review-history invalidation and ledger
// bookkeeping.
type DeckGenerationTask struct {
	id          uuid.UUID
	payload     DeckGenerationPayload
	rawPayload  []byte
	deckService *service.DeckService
	generator   generation.Generator
	logger      *slog.Logger

	mu     sync.Mutex
	status TaskStatus
}

// Ensure DeckGenerationTask implements the Task interface
var _ Task = (*DeckGenerationTask)(nil)

// NewDeckGenerationTask creates a deck generation task from a raw event
// payload.
func NewDeckGenerationTask(
	rawPayload []byte,
	deckService *service.DeckService,
	generator generation.Generator,
	logger *slog.Logger,
) (*DeckGenerationTask, error) {
	if deckService == nil {
		return nil, errors.New("deck service cannot be nil")
	}
	if generator == nil {
		return nil, errors.New("generator cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var payload DeckGenerationPayload
	if err := json.Unmarshal(rawPayload, &payload); err != nil {
		return nil, fmt.Errorf("invalid deck generation payload: %w", err)
	}
	if payload.UserID == uuid.Nil || payload.DeckID == uuid.Nil {
		return nil, errors.New("deck generation payload needs user and deck IDs")
	}

	return &DeckGenerationTask{
		id:          uuid.New(),
		payload:     payload,
		rawPayload:  rawPayload,
		deckService: deckService,
		generator:   generator,
		logger:      logger.With(slog.String("component", "deck_generation_task")),
		status:      TaskStatusPending,
	}, nil
}

// ID implements Task.ID
func (t *DeckGenerationTask) ID() uuid.UUID {
	return t.id
}

// Type implements Task.Type
func (t *DeckGenerationTask) Type() string {
	return TaskTypeDeckGeneration
}

// Payload implements Task.Payload
func (t *DeckGenerationTask) Payload() []byte {
	return t.rawPayload
}

// Status implements Task.Status
func (t *DeckGenerationTask) Status() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *DeckGenerationTask) setStatus(status TaskStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
}

// Execute implements Task.Execute
func (t *DeckGenerationTask) Execute(ctx context.Context) error {
	log := t.logger.With(
		slog.String("task_id", t.id.String()),
		slog.String("deck_id", t.payload.DeckID.String()))

	t.setStatus(TaskStatusProcessing)

	deck, err := t.deckService.GetDeck(ctx, t.payload.UserID, t.payload.DeckID)
	if err != nil {
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("failed to load deck for generation: %w", err)
	}

	generated, err := t.generator.GenerateDeckCards(ctx, generation.DeckPrompt{
		Title:       deck.Title,
		Description: deck.Description,
		Tags:        deck.Tags,
		CardCount:   t.payload.CardCount,
	})
	if err != nil {
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("card generation failed: %w", err)
	}

	cards := make([]*domain.Flashcard, 0, len(generated))
	for _, g := range generated {
		card, err := domain.NewFlashcard(
			t.payload.UserID, t.payload.DeckID,
			g.Front, g.Back, g.BloomLevel, g.Difficulty,
		)
		if err != nil {
			log.Warn("skipping invalid generated card",
				slog.String("error", err.Error()))
			continue
		}
		cards = append(cards, card)
	}
	if len(cards) == 0 {
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("%w: generator produced no usable cards", generation.ErrInvalidResponse)
	}

	if err := t.deckService.ReplaceDeckCards(ctx, t.payload.UserID, t.payload.DeckID, cards); err != nil {
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("failed to replace deck cards: %w", err)
	}

	t.setStatus(TaskStatusCompleted)
	log.Info("deck generation completed", slog.Int("cards", len(cards)))
	return nil
}
