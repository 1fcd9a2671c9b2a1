// Package service contains the deck and flashcard orchestration layer:
// ownership checks, transaction boundaries, and the counter-ledger
// bookkeeping that keeps per-user aggregates in sync with the card tables.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/studyowl/studyowl-api/internal/domain"
	"github.com/studyowl/studyowl-api/internal/platform/logger"
	"github.com/studyowl/studyowl-api/internal/service/ledger"
	"github.com/studyowl/studyowl-api/internal/store"
)

// DeckService manages deck and flashcard lifecycle. Every mutation that
// touches more than one table runs inside a single transaction, with the
// counter ledger applied through the same transaction.
//
// Changing a deck's card set (creating, deleting or bulk-replacing cards)
// invalidates the deck's review history: all reviews for the deck are
// removed, every card returns to the scheduler defaults, and the deck's
// study counters are zeroed. The history describes a card set that no
// longer exists, so it is discarded rather than reinterpreted.
type DeckService struct {
	db      *sql.DB
	decks   store.DeckStore
	cards   store.FlashcardStore
	reviews store.ReviewStore
	ledger  *ledger.Ledger
	logger  *slog.Logger
}

// NewDeckService creates a new DeckService.
// If logger is nil, a default logger will be used.
func NewDeckService(
	db *sql.DB,
	decks store.DeckStore,
	cards store.FlashcardStore,
	reviews store.ReviewStore,
	ledger *ledger.Ledger,
	logger *slog.Logger,
) *DeckService {
	if db == nil {
		panic("db cannot be nil")
	}
	if decks == nil {
		panic("decks store cannot be nil")
	}
	if cards == nil {
		panic("cards store cannot be nil")
	}
	if reviews == nil {
		panic("reviews store cannot be nil")
	}
	if ledger == nil {
		panic("ledger cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &DeckService{
		db:      db,
		decks:   decks,
		cards:   cards,
		reviews: reviews,
		ledger:  ledger,
		logger:  logger.With(slog.String("component", "deck_service")),
	}
}

// CreateDeck creates a new deck for the user and bumps the deck counter.
func (s *DeckService) CreateDeck(
	ctx context.Context,
	userID uuid.UUID,
	title, description string,
	tags []string,
) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deck, err := domain.NewDeck(userID, title, description, tags)
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.decks.WithTx(tx).Create(ctx, deck); err != nil {
			return err
		}
		return s.ledger.WithTx(tx).ApplyDeckCreated(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create deck: %w", err)
	}

	log.Info("deck created",
		slog.String("deck_id", deck.ID.String()),
		slog.String("user_id", userID.String()))
	return deck, nil
}

// GetDeck retrieves a deck after verifying ownership.
func (s *DeckService) GetDeck(ctx context.Context, userID, deckID uuid.UUID) (*domain.Deck, error) {
	return s.ownedDeck(ctx, s.decks, userID, deckID)
}

// ListDecks returns the user's live decks; trashed decks are hidden.
func (s *DeckService) ListDecks(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error) {
	return s.decks.ListByUser(ctx, userID, false)
}

// ListCards returns a deck's flashcards after verifying ownership.
func (s *DeckService) ListCards(ctx context.Context, userID, deckID uuid.UUID) ([]*domain.Flashcard, error) {
	if _, err := s.ownedDeck(ctx, s.decks, userID, deckID); err != nil {
		return nil, err
	}
	return s.cards.ListByDeck(ctx, deckID)
}

// UpdateDeck changes a deck's title, description and tags. A tag change
// moves every card's tag counters from the removed tags to the added ones
// in the same transaction.
func (s *DeckService) UpdateDeck(
	ctx context.Context,
	userID, deckID uuid.UUID,
	title, description string,
	tags []string,
) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Deck
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		decks := s.decks.WithTx(tx)

		deck, err := s.ownedDeck(ctx, decks, userID, deckID)
		if err != nil {
			return err
		}

		added, removed := diffTags(deck.Tags, tags)

		deck.Title = title
		deck.Description = description
		deck.Tags = tags
		deck.UpdatedAt = time.Now().UTC()

		if err := decks.Update(ctx, deck); err != nil {
			return err
		}

		// Tag counters count (card, tag) pairs, so a deck-level tag change
		// is applied once per card. Skipped entirely for trashed decks,
		// whose cards are not counted.
		if !deck.IsTrashed() && (len(added) > 0 || len(removed) > 0) {
			count, err := s.cards.WithTx(tx).CountByDeck(ctx, deckID)
			if err != nil {
				return err
			}

			led := s.ledger.WithTx(tx)
			for i := 0; i < count; i++ {
				for _, tag := range removed {
					if err := led.DecrementTag(ctx, userID, tag); err != nil {
						return err
					}
				}
				for _, tag := range added {
					if err := led.IncrementTag(ctx, userID, tag); err != nil {
						return err
					}
				}
			}
		}

		updated = deck
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("deck updated", slog.String("deck_id", deckID.String()))
	return updated, nil
}

// TrashDeck moves a deck to the trash. The deck disappears from listings and
// its cards leave the user's counters; restore reverses both.
func (s *DeckService) TrashDeck(ctx context.Context, userID, deckID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		decks := s.decks.WithTx(tx)

		deck, err := s.ownedDeck(ctx, decks, userID, deckID)
		if err != nil {
			return err
		}
		if deck.IsTrashed() {
			return ErrDeckTrashed
		}

		now := time.Now().UTC()
		deck.TrashedAt = &now
		deck.UpdatedAt = now
		if err := decks.Update(ctx, deck); err != nil {
			return err
		}

		return s.removeDeckFromLedger(ctx, tx, deck)
	})
	if err != nil {
		return err
	}

	log.Info("deck trashed", slog.String("deck_id", deckID.String()))
	return nil
}

// RestoreDeck brings a trashed deck back, re-counting its cards.
func (s *DeckService) RestoreDeck(ctx context.Context, userID, deckID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		decks := s.decks.WithTx(tx)

		deck, err := s.ownedDeck(ctx, decks, userID, deckID)
		if err != nil {
			return err
		}
		if !deck.IsTrashed() {
			return ErrDeckNotTrashed
		}

		deck.TrashedAt = nil
		deck.UpdatedAt = time.Now().UTC()
		if err := decks.Update(ctx, deck); err != nil {
			return err
		}

		return s.addDeckToLedger(ctx, tx, deck)
	})
	if err != nil {
		return err
	}

	log.Info("deck restored", slog.String("deck_id", deckID.String()))
	return nil
}

// DeleteDeck permanently removes a deck and everything hanging off it.
// A live deck's cards leave the counters first; a trashed deck's already did.
func (s *DeckService) DeleteDeck(ctx context.Context, userID, deckID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		decks := s.decks.WithTx(tx)

		deck, err := s.ownedDeck(ctx, decks, userID, deckID)
		if err != nil {
			return err
		}

		if !deck.IsTrashed() {
			if err := s.removeDeckFromLedger(ctx, tx, deck); err != nil {
				return err
			}
		}

		return decks.Delete(ctx, deckID)
	})
	if err != nil {
		return err
	}

	log.Info("deck deleted", slog.String("deck_id", deckID.String()))
	return nil
}

// CreateFlashcard adds a card to a deck. The deck's review history is
// invalidated: the old history graded a different card set.
func (s *DeckService) CreateFlashcard(
	ctx context.Context,
	userID, deckID uuid.UUID,
	front, back string,
	bloom domain.BloomLevel,
	difficulty domain.Difficulty,
) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var card *domain.Flashcard
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		deck, err := s.ownedDeck(ctx, s.decks.WithTx(tx), userID, deckID)
		if err != nil {
			return err
		}
		if deck.IsTrashed() {
			return ErrDeckTrashed
		}

		card, err = domain.NewFlashcard(userID, deckID, front, back, bloom, difficulty)
		if err != nil {
			return err
		}

		if err := s.cards.WithTx(tx).Create(ctx, card); err != nil {
			return err
		}

		if err := s.ledger.WithTx(tx).ApplyFlashcardCreated(ctx, userID, deck.Tags, bloom); err != nil {
			return err
		}

		return s.invalidateHistory(ctx, tx, deckID)
	})
	if err != nil {
		return nil, err
	}

	log.Info("flashcard created",
		slog.String("flashcard_id", card.ID.String()),
		slog.String("deck_id", deckID.String()))
	return card, nil
}

// UpdateFlashcard edits a card's content. A bloom-level change moves the
// card between bloom buckets; content edits do not invalidate history.
func (s *DeckService) UpdateFlashcard(
	ctx context.Context,
	userID, cardID uuid.UUID,
	front, back string,
	bloom domain.BloomLevel,
	difficulty domain.Difficulty,
) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Flashcard
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		cards := s.cards.WithTx(tx)

		card, err := cards.GetByID(ctx, cardID)
		if err != nil {
			return err
		}
		if card.UserID != userID {
			return ErrNotOwner
		}

		oldBloom := card.BloomLevel

		card.Front = front
		card.Back = back
		card.BloomLevel = bloom
		card.Difficulty = difficulty
		card.UpdatedAt = time.Now().UTC()

		if err := cards.Update(ctx, card); err != nil {
			return err
		}

		if err := s.ledger.WithTx(tx).ApplyBloomChanged(ctx, userID, oldBloom, bloom); err != nil {
			return err
		}

		updated = card
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("flashcard updated", slog.String("flashcard_id", cardID.String()))
	return updated, nil
}

// DeleteFlashcard removes a card, reverses its counters and invalidates the
// deck's review history.
func (s *DeckService) DeleteFlashcard(ctx context.Context, userID, cardID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		cards := s.cards.WithTx(tx)

		card, err := cards.GetByID(ctx, cardID)
		if err != nil {
			return err
		}
		if card.UserID != userID {
			return ErrNotOwner
		}

		deck, err := s.decks.WithTx(tx).GetByID(ctx, card.DeckID)
		if err != nil {
			return err
		}

		if err := cards.Delete(ctx, cardID); err != nil {
			return err
		}

		if !deck.IsTrashed() {
			err := s.ledger.WithTx(tx).ApplyFlashcardDeleted(ctx, userID, deck.Tags, card.BloomLevel)
			if err != nil {
				return err
			}
		}

		return s.invalidateHistory(ctx, tx, card.DeckID)
	})
	if err != nil {
		return err
	}

	log.Info("flashcard deleted", slog.String("flashcard_id", cardID.String()))
	return nil
}

// ReplaceDeckCards swaps a deck's entire card set for newCards in one
// transaction: old counters out, old cards and their reviews gone, new cards
// in at scheduler defaults, new counters in, deck study counters zeroed.
// Used by bulk regeneration.
func (s *DeckService) ReplaceDeckCards(
	ctx context.Context,
	userID, deckID uuid.UUID,
	newCards []*domain.Flashcard,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		decks := s.decks.WithTx(tx)
		cards := s.cards.WithTx(tx)
		led := s.ledger.WithTx(tx)

		deck, err := s.ownedDeck(ctx, decks, userID, deckID)
		if err != nil {
			return err
		}
		if deck.IsTrashed() {
			return ErrDeckTrashed
		}

		oldCards, err := cards.ListByDeck(ctx, deckID)
		if err != nil {
			return err
		}

		if err := led.ApplyCards(ctx, userID, oldCards, deck.Tags, -1); err != nil {
			return err
		}

		if err := s.reviews.WithTx(tx).DeleteByDeck(ctx, deckID); err != nil {
			return err
		}
		if err := cards.DeleteByDeck(ctx, deckID); err != nil {
			return err
		}

		if err := cards.CreateMultiple(ctx, newCards); err != nil {
			return err
		}
		if err := led.ApplyCards(ctx, userID, newCards, deck.Tags, 1); err != nil {
			return err
		}

		return decks.ResetStudyCounters(ctx, deckID)
	})
	if err != nil {
		return err
	}

	log.Info("deck cards replaced",
		slog.String("deck_id", deckID.String()),
		slog.Int("cards", len(newCards)))
	return nil
}

// removeDeckFromLedger reverses a deck's contribution to the user's counters
// inside tx: the deck count and every card's created/bloom/tag buckets.
func (s *DeckService) removeDeckFromLedger(ctx context.Context, tx *sql.Tx, deck *domain.Deck) error {
	cards, err := s.cards.WithTx(tx).ListByDeck(ctx, deck.ID)
	if err != nil {
		return err
	}

	led := s.ledger.WithTx(tx)
	if err := led.ApplyCards(ctx, deck.UserID, cards, deck.Tags, -1); err != nil {
		return err
	}
	return led.ApplyDeckRemoved(ctx, deck.UserID)
}

// addDeckToLedger restores a deck's contribution to the user's counters
// inside tx.
func (s *DeckService) addDeckToLedger(ctx context.Context, tx *sql.Tx, deck *domain.Deck) error {
	cards, err := s.cards.WithTx(tx).ListByDeck(ctx, deck.ID)
	if err != nil {
		return err
	}

	led := s.ledger.WithTx(tx)
	if err := led.ApplyCards(ctx, deck.UserID, cards, deck.Tags, 1); err != nil {
		return err
	}
	return led.ApplyDeckCreated(ctx, deck.UserID)
}

// ownedDeck fetches a deck and verifies ownership against the given store
// binding, which may be transactional.
func (s *DeckService) ownedDeck(
	ctx context.Context,
	decks store.DeckStore,
	userID, deckID uuid.UUID,
) (*domain.Deck, error) {
	deck, err := decks.GetByID(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if deck.UserID != userID {
		return nil, ErrNotOwner
	}
	return deck, nil
}

// invalidateHistory discards the deck's review history inside tx: reviews
// deleted, every card back to scheduler defaults, deck study counters zeroed.
func (s *DeckService) invalidateHistory(ctx context.Context, tx *sql.Tx, deckID uuid.UUID) error {
	now := time.Now().UTC()

	if err := s.reviews.WithTx(tx).DeleteByDeck(ctx, deckID); err != nil {
		return err
	}
	if err := s.cards.WithTx(tx).ResetSchedulingByDeck(ctx, deckID, now); err != nil {
		return err
	}
	return s.decks.WithTx(tx).ResetStudyCounters(ctx, deckID)
}

// diffTags returns the tags present only in next (added) and only in prev
// (removed).
func diffTags(prev, next []string) (added, removed []string) {
	prevSet := make(map[string]struct{}, len(prev))
	for _, t := range prev {
		prevSet[t] = struct{}{}
	}
	nextSet := make(map[string]struct{}, len(next))
	for _, t := range next {
		nextSet[t] = struct{}{}
	}

	for _, t := range next {
		if _, ok := prevSet[t]; !ok {
			added = append(added, t)
		}
	}
	for _, t := range prev {
		if _, ok := nextSet[t]; !ok {
			removed = append(removed, t)
		}
	}
	return added, removed
}
