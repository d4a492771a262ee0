// Package main provides the toolcast server executable with HTTP API and background dispatcher.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/coregx/toolcast"
	"github.com/coregx/toolcast/adapters/memory"
	"github.com/coregx/toolcast/adapters/relica"
	"github.com/coregx/toolcast/cmd/toolcast-server/internal/api"
	"github.com/coregx/toolcast/cmd/toolcast-server/internal/config"
	"github.com/coregx/toolcast/cmd/toolcast-server/internal/logging"
	"github.com/coregx/toolcast/pacing"
	"github.com/coregx/toolcast/render"
	"github.com/coregx/toolcast/transport"
)

// repositories is the storage backend selected by configuration.
type repositories struct {
	catalog    toolcast.CatalogRepository
	submission toolcast.SubmissionRepository
	review     toolcast.ReviewRepository
	subscriber toolcast.SubscriberRepository
	close      func() error
}

func main() {
	log.Println("🚀 Starting Toolcast Server " + api.Version + "...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.LogLevel)

	logger.Info("📝 Configuration loaded:")
	logger.Infof("   Server: %s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("   Database: %s (%s:%d)", cfg.Database.Driver, cfg.Database.Host, cfg.Database.Port)
	logger.Infof("   Dispatch: batch size %d, pause %v", cfg.Dispatch.BatchSize, cfg.Dispatch.InterBatchDelay())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repos, err := openRepositories(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer func() {
		if closeErr := repos.close(); closeErr != nil {
			logger.Errorf("Failed to close database: %v", closeErr)
		}
	}()
	logger.Infof("✅ Repositories initialized (%s)", cfg.Database.Driver)

	var notificationService toolcast.NotificationService
	if cfg.Dispatch.EnableNotifications {
		notificationService = toolcast.NewLoggingNotificationService(logger)
	} else {
		notificationService = &toolcast.NoOpNotificationService{}
	}

	bus := toolcast.NewEventBus(cfg.Dispatch.EventBuffer, toolcast.ComponentLogger(logger, "bus"))

	catalogOpts := []toolcast.CatalogOption{
		toolcast.WithCatalogRepository(repos.catalog),
		toolcast.WithCatalogEvents(bus),
		toolcast.WithCatalogLogger(toolcast.ComponentLogger(logger, "catalog")),
	}
	if cfg.Site.PublicURL != "" {
		catalogOpts = append(catalogOpts, toolcast.WithPublicURLBase(cfg.Site.PublicURL))
	}
	if cfg.Dispatch.ForwardOnlyStatus {
		catalogOpts = append(catalogOpts, toolcast.WithTransitionPolicy(toolcast.ForwardOnlyTransitions))
	}
	catalog, err := toolcast.NewCatalogService(catalogOpts...)
	if err != nil {
		log.Fatalf("Failed to create catalog service: %v", err)
	}

	submissions, err := toolcast.NewSubmissionService(
		toolcast.WithSubmissionRepository(repos.submission),
		toolcast.WithSubmissionLogger(toolcast.ComponentLogger(logger, "submissions")),
	)
	if err != nil {
		log.Fatalf("Failed to create submission service: %v", err)
	}

	reviews, err := toolcast.NewReviewService(
		toolcast.WithReviewRepository(repos.review),
		toolcast.WithToolNameResolver(catalog),
		toolcast.WithReviewLogger(toolcast.ComponentLogger(logger, "reviews")),
	)
	if err != nil {
		log.Fatalf("Failed to create review service: %v", err)
	}

	subscribers, err := toolcast.NewSubscriberManager(
		toolcast.WithSubscriberRepository(repos.subscriber),
		toolcast.WithSubscriberManagerLogger(toolcast.ComponentLogger(logger, "subscribers")),
		toolcast.WithSubscriberNotifications(notificationService),
	)
	if err != nil {
		log.Fatalf("Failed to create subscriber manager: %v", err)
	}
	logger.Info("✅ Services created")

	renderer, err := render.New(
		render.WithSiteName(cfg.Site.Name),
		render.WithUnsubscribeURL(cfg.Site.UnsubscribeURL),
	)
	if err != nil {
		log.Fatalf("Failed to create renderer: %v", err)
	}

	relay, err := newTransport(cfg.Relay, logger)
	if err != nil {
		log.Fatalf("Failed to create transport: %v", err)
	}

	dispatcher, err := toolcast.NewDispatcher(
		toolcast.WithRecipients(repos.subscriber),
		toolcast.WithTransport(relay),
		toolcast.WithRenderer(renderer),
		toolcast.WithLogger(toolcast.ComponentLogger(logger, "dispatcher")),
		toolcast.WithThrottle(pacing.Throttle{
			BatchSize:       cfg.Dispatch.BatchSize,
			InterBatchDelay: cfg.Dispatch.InterBatchDelay(),
		}),
		toolcast.WithNotifications(notificationService),
	)
	if err != nil {
		log.Fatalf("Failed to create dispatcher: %v", err)
	}
	logger.Info("✅ Dispatcher created")

	var dispatcherDone sync.WaitGroup
	dispatcherDone.Add(1)
	go func() {
		defer dispatcherDone.Done()
		dispatcher.Run(ctx, bus.Events())
	}()

	handler := api.NewHandler(catalog, submissions, reviews, subscribers, bus, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("🌐 HTTP server listening on %s", addr)
		logger.Info("✅ Toolcast Server is ready!")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	// No new events after the API is down; the dispatcher drains what is buffered.
	bus.Close()
	dispatcherDone.Wait()

	logger.Info("✅ Server stopped gracefully")
}

// openRepositories connects to the configured database and applies migrations.
func openRepositories(ctx context.Context, cfg config.DatabaseConfig) (*repositories, error) {
	if !cfg.UsesSQL() {
		mem := memory.NewRepositories()
		return &repositories{
			catalog:    mem.Catalog,
			submission: mem.Submission,
			review:     mem.Review,
			subscriber: mem.Subscriber,
			close:      func() error { return nil },
		}, nil
	}

	db, err := sql.Open(cfg.Driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := toolcast.ApplyMigrations(ctx, db, cfg.Driver); err != nil {
		_ = db.Close()
		return nil, err
	}

	var repos *relica.Repositories
	if cfg.Prefix != "" {
		repos = relica.NewRepositoriesWithPrefix(db, cfg.Driver, cfg.Prefix)
	} else {
		repos = relica.NewRepositories(db, cfg.Driver)
	}

	return &repositories{
		catalog:    repos.Catalog,
		submission: repos.Submission,
		review:     repos.Review,
		subscriber: repos.Subscriber,
		close:      db.Close,
	}, nil
}

// newTransport returns the HTTP relay, or a logging transport when no relay is configured.
func newTransport(cfg config.RelayConfig, logger toolcast.Logger) (toolcast.Transport, error) {
	if cfg.Endpoint == "" {
		logger.Warnf("No relay endpoint configured, notifications are logged only")
		return transport.NewLogTransport(logger), nil
	}

	opts := []transport.HTTPOption{
		transport.WithSender(cfg.Sender),
		transport.WithTimeout(cfg.Timeout()),
	}
	if cfg.Token != "" {
		opts = append(opts, transport.WithBearerToken(cfg.Token))
	}
	return transport.NewHTTPRelay(cfg.Endpoint, opts...)
}
