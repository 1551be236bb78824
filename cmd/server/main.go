package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	h "github.com/gorilla/handlers"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/workfin/practice-api/internal/config"
	"github.com/workfin/practice-api/internal/handlers"
	"github.com/workfin/practice-api/internal/middleware"
	"github.com/workfin/practice-api/internal/migration"
	"github.com/workfin/practice-api/internal/notification"
	"github.com/workfin/practice-api/internal/repository"
	"github.com/workfin/practice-api/internal/routes"
	"github.com/workfin/practice-api/internal/source/lake"
	"github.com/workfin/practice-api/internal/source/xero"
	"github.com/workfin/practice-api/internal/syncer"
	"github.com/workfin/practice-api/internal/temporal"
	"github.com/workfin/practice-api/internal/temporal/activities"
	"github.com/workfin/practice-api/internal/temporal/workflows"

	_ "github.com/lib/pq" // PostgreSQL driver
	tc "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"google.golang.org/api/option"
)

type application struct {
	config         *config.Config
	db             *sql.DB
	temporalClient tc.Client
	logger         zerolog.Logger
	notifications  notification.Service
	orchestrator   *syncer.Orchestrator
	tokens         *xero.TokenManager
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	temporalLogger := temporal.NewTemporalAdapter(logger)

	gooseAdapter := migration.NewGooseAdapter(logger)
	goose.SetLogger(gooseAdapter)

	// Load configuration.
	cfg := config.Load()

	// Initialize database connection.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Run database migrations.
	migration.RunMigrations(cfg.DatabaseURL, logger)

	// Initialize notification service.
	notificationRepo := repository.NewNotificationRepository(db)
	notificationService := notification.NewService(notificationRepo, logger)

	// Initialize Temporal client.
	temporalClient, err := tc.Dial(tc.Options{
		HostPort:  cfg.Worker.TemporalHostPort,
		Namespace: cfg.Worker.TemporalNamespace,
		Logger:    temporalLogger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Unable to create Temporal client")
	}
	defer temporalClient.Close()

	// Create the application instance.
	app := &application{
		config:         cfg,
		db:             db,
		temporalClient: temporalClient,
		logger:         logger,
		notifications:  notificationService,
	}
	app.orchestrator = app.buildOrchestrator(logger)

	// Start the Temporal worker in a separate goroutine.
	temporalWorker := app.startTemporalWorker(logger)

	// Initialize the HTTP router and middleware.
	router := app.initRouter(logger)
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins([]string{"http://localhost:3000"}),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler, temporalWorker, logger)

	logger.Info().Msg("Application terminated.")
}

// buildOrchestrator wires the sync pipeline: repositories, source adapters,
// advisory locks, notifications.
func (app *application) buildOrchestrator(logger zerolog.Logger) *syncer.Orchestrator {
	connRepo := repository.NewConnectionRepository(app.db)
	historyRepo := repository.NewHistoryRepository(app.db)
	catalogRepo := repository.NewCatalogRepository(app.db)
	accountingRepo := repository.NewAccountingRepository(app.db)
	practiceRepo := repository.NewPracticeRepository(app.db)
	tokenRepo := repository.NewTokenRepository(app.db)

	// Lake store is optional; API-only deployments leave the bucket unset.
	var store lake.BlobStore
	if app.config.Lake.Bucket != "" {
		var opts []option.ClientOption
		if app.config.Lake.CredentialsKey != "" {
			opts = append(opts, option.WithCredentialsFile(app.config.Lake.CredentialsKey))
		}
		gcsClient, err := storage.NewClient(context.Background(), opts...)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create Cloud Storage client")
		}
		store = lake.NewGCSStore(gcsClient, app.config.Lake.Bucket)
	}

	app.tokens = xero.NewTokenManager(tokenRepo, xero.OAuthConfig{
		ClientID:     app.config.Xero.ClientID,
		ClientSecret: app.config.Xero.ClientSecret,
		AuthorizeURL: app.config.Xero.AuthorizeURL,
		TokenURL:     app.config.Xero.TokenURL,
		RedirectURI:  app.config.Xero.RedirectURI,
		Scopes:       app.config.Xero.Scopes,
	}, nil)
	sources := syncer.NewSourceFactory(store, app.config.Lake.Prefix, app.tokens, app.config.Xero.APIBaseURL, logger)

	// Distributed locks when Redis is configured, in-process locks otherwise.
	var locker syncer.Locker
	if app.config.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     app.config.Redis.Addr,
			Password: app.config.Redis.Password,
			DB:       app.config.Redis.DB,
		})
		locker = syncer.NewRedisLocker(rdb)
	}

	return syncer.NewOrchestrator(
		connRepo,
		historyRepo,
		catalogRepo,
		accountingRepo,
		practiceRepo,
		app.notifications,
		sources,
		locker,
		app.config.Worker.LockTTL,
		logger,
	)
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter(logger zerolog.Logger) http.Handler {
	// Repositories
	connRepo := repository.NewConnectionRepository(app.db)
	historyRepo := repository.NewHistoryRepository(app.db)
	catalogRepo := repository.NewCatalogRepository(app.db)

	// Handlers
	connHandler := handlers.NewConnectionHandler(connRepo, app.orchestrator, logger)
	syncHandler := handlers.NewSyncHandler(connRepo, historyRepo, catalogRepo, app.temporalClient, logger)
	oauthHandler := handlers.NewOAuthHandler(connRepo, app.tokens, logger)
	notificationHandler := handlers.NewNotificationHandler(app.notifications, logger)

	return routes.NewRouter(app.config.JWTSecret, connHandler, syncHandler, oauthHandler, notificationHandler)
}

func (app *application) startTemporalWorker(logger zerolog.Logger) worker.Worker {
	activityImpl := &activities.Activities{
		Orchestrator: app.orchestrator,
	}

	w := worker.New(app.temporalClient, temporal.TaskQueueName, worker.Options{})

	w.RegisterWorkflow(workflows.SyncWorkflow)
	w.RegisterWorkflow(workflows.CatalogWorkflow)
	w.RegisterActivity(activityImpl)

	// Start the worker in a goroutine so it doesn't block.
	go func() {
		logger.Info().Msg("Starting Temporal worker...")
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Fatal().Err(err).Msg("Unable to start worker")
		}
	}()

	return w
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, temporalWorker worker.Worker, logger zerolog.Logger) {
	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}

	// Stop the Temporal worker.
	logger.Info().Msg("Stopping Temporal worker...")
	temporalWorker.Stop()
	logger.Info().Msg("Temporal worker stopped.")
}
