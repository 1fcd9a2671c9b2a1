package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/studyowl/studyowl-api/internal/config"
	"github.com/studyowl/studyowl-api/internal/domain/srs"
	"github.com/studyowl/studyowl-api/internal/events"
	"github.com/studyowl/studyowl-api/internal/generation"
	"github.com/studyowl/studyowl-api/internal/platform/gemini"
	"github.com/studyowl/studyowl-api/internal/platform/postgres"
	"github.com/studyowl/studyowl-api/internal/service"
	"github.com/studyowl/studyowl-api/internal/service/auth"
	"github.com/studyowl/studyowl-api/internal/service/ledger"
	"github.com/studyowl/studyowl-api/internal/service/quiz"
	"github.com/studyowl/studyowl-api/internal/service/studysession"
	"github.com/studyowl/studyowl-api/internal/store"
	"github.com/studyowl/studyowl-api/internal/task"
)

// application holds the shared dependencies so setup, routing and shutdown
// all work from one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	userStore store.UserStore

	// Services
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	generator        generation.Generator
	ledger           *ledger.Ledger
	deckService      *service.DeckService
	studyService     *studysession.Service
	quizService      *quiz.Service

	// Background work
	eventEmitter events.EventEmitter
	taskQueue    *task.TaskQueue
	workerPool   *task.WorkerPool
}

// newApplication wires every dependency. The caller owns the database
// connection; everything else is constructed here.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	app.passwordVerifier = auth.NewBcryptVerifier()

	// Stores
	app.userStore = postgres.NewPostgresUserStore(db, logger)
	deckStore := postgres.NewPostgresDeckStore(db, logger)
	cardStore := postgres.NewPostgresFlashcardStore(db, logger)
	reviewStore := postgres.NewPostgresReviewStore(db, logger)
	sessionStore := postgres.NewPostgresStudySessionStore(db, logger)
	statsStore := postgres.NewPostgresStatsStore(db, logger)
	quizStore := postgres.NewPostgresQuizStore(db, logger)

	// Generation
	app.generator, err = gemini.NewGeminiGenerator(
		ctx,
		logger.With(slog.String("component", "llm_generator")),
		cfg.LLM,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
	}

	// Services
	app.ledger = ledger.NewLedger(statsStore, logger)
	app.deckService = service.NewDeckService(db, deckStore, cardStore, reviewStore, app.ledger, logger)
	app.studyService = studysession.NewService(
		db, sessionStore, deckStore, cardStore, reviewStore,
		app.ledger, srs.NewDefaultService(), cfg.Study.AllowRestudy, logger)
	app.quizService = quiz.NewService(db, quizStore, app.generator, logger)

	// Background task plumbing: handlers emit events, the event handler
	// turns them into queued tasks, the worker pool drains the queue.
	app.taskQueue = task.NewTaskQueue(cfg.Task.QueueSize, logger)
	app.workerPool = task.NewWorkerPool(app.taskQueue, cfg.Task.WorkerCount, logger)
	app.workerPool.Start()

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(task.NewTaskRequestEventHandler(
		app.taskQueue, app.deckService, app.generator, logger))
	app.eventEmitter = emitter

	logger.Info("application initialized")
	return app, nil
}

// Run starts the HTTP server and blocks until shutdown.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases the application's resources in reverse dependency order.
func (app *application) cleanup() {
	if app.workerPool != nil {
		app.workerPool.Stop()
	}
	if app.taskQueue != nil {
		app.taskQueue.Close()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}
	app.logger.Info("application shutdown completed")
}
