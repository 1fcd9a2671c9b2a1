package api

import (
	"net/http"

	"github.com/studyowl/studyowl-api/internal/api/shared"
	"github.com/studyowl/studyowl-api/internal/events"
	"github.com/studyowl/studyowl-api/internal/service"
	"github.com/studyowl/studyowl-api/internal/task"
)

// DeckHandler handles deck and flashcard management endpoints.
type DeckHandler struct {
	deckService      *service.DeckService
	eventEmitter     events.EventEmitter
	defaultCardCount int
}

// NewDeckHandler creates a new DeckHandler. defaultCardCount is used when a
// generation request does not name a count.
func NewDeckHandler(
	deckService *service.DeckService,
	eventEmitter events.EventEmitter,
	defaultCardCount int,
) *DeckHandler {
	return &DeckHandler{
		deckService:      deckService,
		eventEmitter:     eventEmitter,
		defaultCardCount: defaultCardCount,
	}
}

// CreateDeck handles POST /decks.
func (h *DeckHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateDeckRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	deck, err := h.deckService.CreateDeck(r.Context(), userID, req.Title, req.Description, req.Tags)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, deck)
}

// ListDecks handles GET /decks. Trashed decks are not listed.
func (h *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	decks, err := h.deckService.ListDecks(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, decks)
}

// GetDeck handles GET /decks/{deckID}.
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := authedRequest(w, r, "deckID")
	if !ok {
		return
	}

	deck, err := h.deckService.GetDeck(r.Context(), userID, deckID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, deck)
}

// UpdateDeck handles PUT /decks/{deckID}.
func (h *DeckHandler) UpdateDeck(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := authedRequest(w, r, "deckID")
	if !ok {
		return
	}

	var req UpdateDeckRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	deck, err := h.deckService.UpdateDeck(r.Context(), userID, deckID, req.Title, req.Description, req.Tags)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, deck)
}

// TrashDeck handles POST /decks/{deckID}/trash.
func (h *DeckHandler) TrashDeck(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := authedRequest(w, r, "deckID")
	if !ok {
		return
	}

	if err := h.deckService.TrashDeck(r.Context(), userID, deckID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RestoreDeck handles POST /decks/{deckID}/restore.
func (h *DeckHandler) RestoreDeck(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := authedRequest(w, r, "deckID")
	if !ok {
		return
	}

	if err := h.deckService.RestoreDeck(r.Context(), userID, deckID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteDeck handles DELETE /decks/{deckID}. The deck and everything under
// it are permanently removed.
func (h *DeckHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := authedRequest(w, r, "deckID")
	if !ok {
		return
	}

	if err := h.deckService.DeleteDeck(r.Context(), userID, deckID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListCards handles GET /decks/{deckID}/cards.
func (h *DeckHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := authedRequest(w, r, "deckID")
	if !ok {
		return
	}

	cards, err := h.deckService.ListCards(r.Context(), userID, deckID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cards)
}

// CreateCard handles POST /decks/{deckID}/cards.
func (h *DeckHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := authedRequest(w, r, "deckID")
	if !ok {
		return
	}

	var req CreateFlashcardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	card, err := h.deckService.CreateFlashcard(
		r.Context(), userID, deckID, req.Front, req.Back, req.BloomLevel, req.Difficulty)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, card)
}

// UpdateCard handles PUT /cards/{cardID}.
func (h *DeckHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	userID, cardID, ok := authedRequest(w, r, "cardID")
	if !ok {
		return
	}

	var req UpdateFlashcardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	card, err := h.deckService.UpdateFlashcard(
		r.Context(), userID, cardID, req.Front, req.Back, req.BloomLevel, req.Difficulty)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, card)
}

// DeleteCard handles DELETE /cards/{cardID}.
func (h *DeckHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	userID, cardID, ok := authedRequest(w, r, "cardID")
	if !ok {
		return
	}

	if err := h.deckService.DeleteFlashcard(r.Context(), userID, cardID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GenerateDeck handles POST /decks/{deckID}/generate. The request is
// acknowledged immediately; generation runs in the background and replaces
// the deck's entire card set when it lands.
func (h *DeckHandler) GenerateDeck(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := authedRequest(w, r, "deckID")
	if !ok {
		return
	}

	var req GenerateDeckRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	// Ownership and trash state are checked up front so the client gets a
	// synchronous error instead of a silently failing background task.
	deck, err := h.deckService.GetDeck(r.Context(), userID, deckID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if deck.IsTrashed() {
		respondServiceError(w, r, service.ErrDeckTrashed)
		return
	}

	cardCount := req.CardCount
	if cardCount == 0 {
		cardCount = h.defaultCardCount
	}

	event, err := events.NewTaskRequestEvent(task.TaskTypeDeckGeneration, task.DeckGenerationPayload{
		UserID:    userID,
		DeckID:    deckID,
		CardCount: cardCount,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to queue generation", err)
		return
	}

	if err := h.eventEmitter.EmitEvent(r.Context(), event); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to queue generation", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, GenerateDeckResponse{
		DeckID:  deckID,
		EventID: event.ID,
		Status:  "queued",
	})
}
