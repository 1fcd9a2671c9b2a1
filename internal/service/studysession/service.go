// Package studysession implements the flashcard study session lifecycle:
// starting or resuming a session, grading reviews through the spaced
// repetition scheduler, summarizing progress, and ending or abandoning a run.
package studysession

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/studyowl/studyowl-api/internal/domain"
	"github.com/studyowl/studyowl-api/internal/domain/srs"
	"github.com/studyowl/studyowl-api/internal/platform/logger"
	"github.com/studyowl/studyowl-api/internal/service"
	"github.com/studyowl/studyowl-api/internal/service/ledger"
	"github.com/studyowl/studyowl-api/internal/store"
)

// Session lifecycle errors.
var (
	// ErrSessionCompleted is returned when a review is submitted against a
	// session that already finished.
	ErrSessionCompleted = errors.New("study session already completed")

	// ErrFlashcardNotInDeck is returned when the graded flashcard belongs to
	// a different deck than the session.
	ErrFlashcardNotInDeck = errors.New("flashcard does not belong to the session's deck")

	// ErrRestudyNotAllowed is returned when restudying a completed deck is
	// disabled by configuration.
	ErrRestudyNotAllowed = errors.New("deck was already studied and restudy is disabled")
)

// Start status values reported to clients.
const (
	StartStatusCreated = "created"
	StartStatusActive  = "active"
)

// StartResult is Start's outcome: the session plus whether it was freshly
// created or an incomplete one was resumed.
type StartResult struct {
	Session *domain.StudySession `json:"session"`
	Status  string               `json:"status"`
}

// ReviewResult is what SubmitReview hands back: the updated session, the
// card with its new schedule, and the next card to show (nil when the
// session's deck is exhausted).
type ReviewResult struct {
	Session  *domain.StudySession `json:"session"`
	Card     *domain.Flashcard    `json:"card"`
	NextCard *domain.Flashcard    `json:"next_card,omitempty"`
}

// Summary reports a session's progress. Requesting a summary is the one read
// with a deliberate side effect: when every card has been reviewed, the
// session is completed as part of producing the summary.
type Summary struct {
	SessionID    uuid.UUID         `json:"session_id"`
	DeckID       uuid.UUID         `json:"deck_id"`
	Completed    bool              `json:"completed"`
	CorrectCount int               `json:"correct_count"`
	WrongCount   int               `json:"wrong_count"`
	TotalCards   int               `json:"total_cards"`
	Reviewed     int               `json:"reviewed"`
	Remaining    int               `json:"remaining"`
	Progress     float64           `json:"progress"`
	Accuracy     string            `json:"accuracy"`
	NextCard     *domain.Flashcard `json:"next_card"`
	EndedAt      *time.Time        `json:"ended_at"`
}

// StudySessionService is the study session behavior the HTTP layer depends
// on. *Service is the production implementation.
type StudySessionService interface {
	// Start opens a session for the deck, resuming an incomplete one
	// instead of creating a duplicate.
	Start(ctx context.Context, userID, deckID uuid.UUID) (*StartResult, error)

	// NextCard returns the next card to review, nil when the session's
	// deck is exhausted.
	NextCard(ctx context.Context, userID, sessionID uuid.UUID) (*domain.Flashcard, error)

	// SubmitReview grades a card, reschedules it and advances the session.
	SubmitReview(ctx context.Context, userID, sessionID, flashcardID uuid.UUID,
		grade, timeToAnswerMs int, notes string) (*ReviewResult, error)

	// SummarizeAndMaybeComplete reports progress, completing the session
	// when every card has been reviewed.
	SummarizeAndMaybeComplete(ctx context.Context, userID, sessionID uuid.UUID) (*Summary, error)

	// End completes the session regardless of progress.
	End(ctx context.Context, userID, sessionID uuid.UUID) (*Summary, error)

	// Delete removes the session and wipes the deck's study progress.
	Delete(ctx context.Context, userID, sessionID uuid.UUID) error
}

// Service drives study sessions. All multi-table mutations run in a single
// transaction.
type Service struct {
	db           *sql.DB
	sessions     store.StudySessionStore
	decks        store.DeckStore
	cards        store.FlashcardStore
	reviews      store.ReviewStore
	ledger       *ledger.Ledger
	scheduler    srs.Service
	allowRestudy bool
	logger       *slog.Logger
}

var _ StudySessionService = (*Service)(nil)

// NewService creates a study session service. allowRestudy controls whether
// a deck whose latest session completed can be studied again.
// If logger is nil, a default logger will be used.
func NewService(
	db *sql.DB,
	sessions store.StudySessionStore,
	decks store.DeckStore,
	cards store.FlashcardStore,
	reviews store.ReviewStore,
	ledger *ledger.Ledger,
	scheduler srs.Service,
	allowRestudy bool,
	logger *slog.Logger,
) *Service {
	if db == nil {
		panic("db cannot be nil")
	}
	if sessions == nil {
		panic("sessions store cannot be nil")
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
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		db:           db,
		sessions:     sessions,
		decks:        decks,
		cards:        cards,
		reviews:      reviews,
		ledger:       ledger,
		scheduler:    scheduler,
		allowRestudy: allowRestudy,
		logger:       logger.With(slog.String("component", "study_session_service")),
	}
}

// Start begins a study session for the deck, or resumes the user's
// incomplete session for it unchanged. Starting is idempotent: two Start
// calls without intervening completion return the same session, the second
// flagged as resumed through the result's Status.
func (s *Service) Start(ctx context.Context, userID, deckID uuid.UUID) (*StartResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deck, err := s.decks.GetByID(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if deck.UserID != userID {
		return nil, service.ErrNotOwner
	}
	if deck.IsTrashed() {
		return nil, service.ErrDeckTrashed
	}

	existing, err := s.sessions.FindIncomplete(ctx, userID, deckID)
	if err == nil {
		log.Debug("resuming incomplete study session",
			slog.String("session_id", existing.ID.String()),
			slog.String("deck_id", deckID.String()))
		return &StartResult{Session: existing, Status: StartStatusActive}, nil
	}
	if !errors.Is(err, store.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to look up incomplete session: %w", err)
	}

	if !s.allowRestudy {
		latest, err := s.sessions.FindLatest(ctx, userID, deckID)
		if err == nil && latest.Completed {
			log.Warn("restudy refused",
				slog.String("deck_id", deckID.String()),
				slog.String("previous_session_id", latest.ID.String()))
			return nil, ErrRestudyNotAllowed
		}
		if err != nil && !errors.Is(err, store.ErrSessionNotFound) {
			return nil, fmt.Errorf("failed to look up latest session: %w", err)
		}
	}

	count, err := s.cards.CountByDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, service.ErrDeckEmpty
	}

	session, err := domain.NewStudySession(userID, deckID)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		// A concurrent Start may have won; hand back its session.
		if errors.Is(err, store.ErrDuplicate) {
			winner, err := s.sessions.FindIncomplete(ctx, userID, deckID)
			if err != nil {
				return nil, err
			}
			return &StartResult{Session: winner, Status: StartStatusActive}, nil
		}
		return nil, err
	}

	log.Info("study session started",
		slog.String("session_id", session.ID.String()),
		slog.String("deck_id", deckID.String()))
	return &StartResult{Session: session, Status: StartStatusCreated}, nil
}

// NextCard returns the session's next unreviewed flashcard, or nil when
// every card has a review in this session.
func (s *Service) NextCard(ctx context.Context, userID, sessionID uuid.UUID) (*domain.Flashcard, error) {
	session, err := s.ownedSession(ctx, s.sessions, userID, sessionID)
	if err != nil {
		return nil, err
	}

	card, err := s.cards.NextUnreviewed(ctx, session.DeckID, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrFlashcardNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return card, nil
}

// SubmitReview grades one flashcard inside the session: the review is
// appended, the card's schedule advances through the scheduler, the session
// counters move, and the deck's study counters are stamped, all in one
// transaction.
func (s *Service) SubmitReview(
	ctx context.Context,
	userID, sessionID, flashcardID uuid.UUID,
	grade, timeToAnswerMs int,
	notes string,
) (*ReviewResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var result *ReviewResult
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		sessions := s.sessions.WithTx(tx)
		cards := s.cards.WithTx(tx)
		reviews := s.reviews.WithTx(tx)

		session, err := s.ownedSession(ctx, sessions, userID, sessionID)
		if err != nil {
			return err
		}
		if session.Completed {
			log.Warn("review submitted against completed session",
				slog.String("session_id", sessionID.String()))
			return ErrSessionCompleted
		}

		card, err := cards.GetByID(ctx, flashcardID)
		if err != nil {
			return err
		}
		if card.DeckID != session.DeckID {
			log.Warn("flashcard outside session deck",
				slog.String("flashcard_id", flashcardID.String()),
				slog.String("session_deck_id", session.DeckID.String()))
			return ErrFlashcardNotInDeck
		}

		review, err := domain.NewFlashcardReview(flashcardID, sessionID, grade, timeToAnswerMs, notes)
		if err != nil {
			return err
		}
		if err := reviews.Create(ctx, review); err != nil {
			return err
		}

		// The window query runs after the insert so the fresh grade is part
		// of the rolling average.
		recent, err := reviews.RecentGrades(ctx, flashcardID, srs.NewDefaultParams().PerformanceWindow)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		updated, err := s.scheduler.ApplyReview(card, grade, recent, now)
		if err != nil {
			return err
		}
		if err := cards.UpdateScheduling(ctx, updated); err != nil {
			return err
		}

		session.RecordAnswer(review.IsCorrect())
		if err := sessions.Update(ctx, session); err != nil {
			return err
		}

		if err := s.decks.WithTx(tx).IncrementReviewCount(ctx, session.DeckID, now); err != nil {
			return err
		}

		next, err := cards.NextUnreviewed(ctx, session.DeckID, sessionID)
		if err != nil && !errors.Is(err, store.ErrFlashcardNotFound) {
			return err
		}

		result = &ReviewResult{Session: session, Card: updated, NextCard: next}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("review submitted",
		slog.String("session_id", sessionID.String()),
		slog.String("flashcard_id", flashcardID.String()),
		slog.Int("grade", grade))
	return result, nil
}

// SummarizeAndMaybeComplete reports the session's progress. When every card
// in the deck has been reviewed and the session is still open, it is
// completed here and the user's study aggregates advance, in the same
// transaction that produced the summary.
func (s *Service) SummarizeAndMaybeComplete(
	ctx context.Context,
	userID, sessionID uuid.UUID,
) (*Summary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var summary *Summary
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		sessions := s.sessions.WithTx(tx)

		session, err := s.ownedSession(ctx, sessions, userID, sessionID)
		if err != nil {
			return err
		}

		total, err := s.cards.WithTx(tx).CountByDeck(ctx, session.DeckID)
		if err != nil {
			return err
		}
		reviewed, err := s.reviews.WithTx(tx).CountBySession(ctx, sessionID)
		if err != nil {
			return err
		}

		if !session.Completed && total > 0 && reviewed >= total {
			session.Complete(time.Now().UTC())
			if err := sessions.Update(ctx, session); err != nil {
				return err
			}
			err := s.ledger.WithTx(tx).ApplyStudyCompleted(ctx, userID,
				session.CorrectCount, session.WrongCount)
			if err != nil {
				return err
			}
			log.Info("study session completed via summary",
				slog.String("session_id", sessionID.String()))
		}

		var nextCard *domain.Flashcard
		if !session.Completed {
			card, err := s.cards.WithTx(tx).NextUnreviewed(ctx, session.DeckID, sessionID)
			if err != nil && !errors.Is(err, store.ErrFlashcardNotFound) {
				return err
			}
			if err == nil {
				nextCard = card
			}
		}

		summary = buildSummary(session, total, reviewed, nextCard)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// End forces the session to completion regardless of progress and advances
// the user's study aggregates. Ending an already-completed session is a
// no-op that returns its summary.
func (s *Service) End(ctx context.Context, userID, sessionID uuid.UUID) (*Summary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var summary *Summary
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		sessions := s.sessions.WithTx(tx)

		session, err := s.ownedSession(ctx, sessions, userID, sessionID)
		if err != nil {
			return err
		}

		total, err := s.cards.WithTx(tx).CountByDeck(ctx, session.DeckID)
		if err != nil {
			return err
		}
		reviewed, err := s.reviews.WithTx(tx).CountBySession(ctx, sessionID)
		if err != nil {
			return err
		}

		if !session.Completed {
			session.Complete(time.Now().UTC())
			if err := sessions.Update(ctx, session); err != nil {
				return err
			}
			err := s.ledger.WithTx(tx).ApplyStudyCompleted(ctx, userID,
				session.CorrectCount, session.WrongCount)
			if err != nil {
				return err
			}
		}

		summary = buildSummary(session, total, reviewed, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("study session ended", slog.String("session_id", sessionID.String()))
	return summary, nil
}

// Delete abandons the session and wipes the deck's study progress: the
// deck's reviews are removed, every card returns to the scheduler defaults,
// the deck's study counters are zeroed, and the session row is deleted.
func (s *Service) Delete(ctx context.Context, userID, sessionID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		sessions := s.sessions.WithTx(tx)

		session, err := s.ownedSession(ctx, sessions, userID, sessionID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := s.reviews.WithTx(tx).DeleteByDeck(ctx, session.DeckID); err != nil {
			return err
		}
		if err := s.cards.WithTx(tx).ResetSchedulingByDeck(ctx, session.DeckID, now); err != nil {
			return err
		}
		if err := s.decks.WithTx(tx).ResetStudyCounters(ctx, session.DeckID); err != nil {
			return err
		}

		return sessions.Delete(ctx, sessionID)
	})
	if err != nil {
		return err
	}

	log.Info("study session deleted, deck progress wiped",
		slog.String("session_id", sessionID.String()))
	return nil
}

func (s *Service) ownedSession(
	ctx context.Context,
	sessions store.StudySessionStore,
	userID, sessionID uuid.UUID,
) (*domain.StudySession, error) {
	session, err := sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, service.ErrNotOwner
	}
	return session, nil
}

// buildSummary formats accuracy as a percentage with two decimals, e.g.
// "66.67" for 2 of 3 correct. nextCard is nil for completed sessions and
// for exhausted decks.
func buildSummary(session *domain.StudySession, total, reviewed int, nextCard *domain.Flashcard) *Summary {
	remaining := total - reviewed
	if remaining < 0 {
		remaining = 0
	}
	progress := 0.0
	if total > 0 {
		progress = float64(reviewed) / float64(total)
		if progress > 1 {
			progress = 1
		}
	}

	return &Summary{
		SessionID:    session.ID,
		DeckID:       session.DeckID,
		Completed:    session.Completed,
		CorrectCount: session.CorrectCount,
		WrongCount:   session.WrongCount,
		TotalCards:   total,
		Reviewed:     reviewed,
		Remaining:    remaining,
		Progress:     progress,
		Accuracy:     fmt.Sprintf("%.2f", session.Accuracy()*100),
		NextCard:     nextCard,
		EndedAt:      session.EndedAt,
	}
}
