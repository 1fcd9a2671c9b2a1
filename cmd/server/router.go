package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/studyowl/studyowl-api/internal/api"
	apiMiddleware "github.com/studyowl/studyowl-api/internal/api/middleware"
)

// setupRouter builds the router with all middleware and routes.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.userStore, app.jwtService, app.passwordVerifier)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	deckHandler := api.NewDeckHandler(app.deckService, app.eventEmitter, app.config.LLM.DefaultCardCount)
	studyHandler := api.NewStudyHandler(app.studyService)
	quizHandler := api.NewQuizHandler(app.quizService)
	statsHandler := api.NewStatsHandler(app.ledger)

	r.Route("/api", func(r chi.Router) {
		// Public authentication endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.RefreshToken)

		// Everything else requires a valid access token
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/stats", statsHandler.GetStats)

			// Deck lifecycle
			r.Post("/decks", deckHandler.CreateDeck)
			r.Get("/decks", deckHandler.ListDecks)
			r.Get("/decks/{deckID}", deckHandler.GetDeck)
			r.Put("/decks/{deckID}", deckHandler.UpdateDeck)
			r.Delete("/decks/{deckID}", deckHandler.DeleteDeck)
			r.Post("/decks/{deckID}/trash", deckHandler.TrashDeck)
			r.Post("/decks/{deckID}/restore", deckHandler.RestoreDeck)
			r.Post("/decks/{deckID}/generate", deckHandler.GenerateDeck)

			// Flashcards
			r.Get("/decks/{deckID}/cards", deckHandler.ListCards)
			r.Post("/decks/{deckID}/cards", deckHandler.CreateCard)
			r.Put("/cards/{cardID}", deckHandler.UpdateCard)
			r.Delete("/cards/{cardID}", deckHandler.DeleteCard)

			// Study sessions
			r.Post("/decks/{deckID}/study", studyHandler.StartSession)
			r.Get("/study/{sessionID}/next", studyHandler.NextCard)
			r.Get("/study/{sessionID}/summary", studyHandler.GetSummary)
			r.Post("/study/{sessionID}/review", studyHandler.SubmitReview)
			r.Post("/study/{sessionID}/end", studyHandler.EndSession)
			r.Delete("/study/{sessionID}", studyHandler.DeleteSession)

			// Guided quizzes
			r.Post("/quiz", quizHandler.CreateSession)
			r.Get("/quiz/{sessionID}", quizHandler.GetSession)
			r.Post("/quiz/{sessionID}/reset", quizHandler.ResetSession)
			r.Post("/quiz/{sessionID}/abandon", quizHandler.AbandonSession)
			r.Post("/quiz/steps/{stepID}/generate", quizHandler.GenerateStep)
			r.Get("/quiz/steps/{stepID}/question", quizHandler.GetStepQuestion)
			r.Post("/quiz/steps/{stepID}/answer", quizHandler.AnswerStep)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
