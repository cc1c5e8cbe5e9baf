package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "amicale-intake-backend/internal/api/http"
	"amicale-intake-backend/internal/config"
	"amicale-intake-backend/internal/jobs"
	"amicale-intake-backend/internal/logger"
	"amicale-intake-backend/internal/notification"
	"amicale-intake-backend/internal/repository/postgres"
	"amicale-intake-backend/internal/scheduler"
	"amicale-intake-backend/internal/security"
	"amicale-intake-backend/internal/service"
	"amicale-intake-backend/internal/storage"

	_ "github.com/lib/pq"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	withScheduler := flag.Bool("scheduler", true, "Run outbox maintenance jobs in-process")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Amicale Intake Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "url_set", cfg.Database.URL != "")
	logger.Info("SendGrid configuration", "configured", cfg.SendGrid.APIKey != "", "from", cfg.SendGrid.From)

	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	if err := postgres.Migrate(context.Background(), db); err != nil {
		logger.Error("Failed to apply migrations", "error", err)
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Document Store
	docs, err := storage.NewLocalDocumentStore(storage.Config{
		UploadDir:         cfg.Storage.UploadDir,
		AllowedExtensions: cfg.Storage.AllowedExtensions,
		MaxFileBytes:      cfg.MaxUploadBytes(),
	})
	if err != nil {
		logger.Error("Failed to initialize document store", "error", err, "upload_dir", cfg.Storage.UploadDir)
		log.Fatalf("Failed to initialize document store: %v", err)
	}
	logger.Info("Document store ready", "upload_dir", docs.UploadDir())

	// Initialize Notifications
	dispatcher := notification.NewSendGridDispatcher(notification.SendGridConfig{
		APIKey:  cfg.SendGrid.APIKey,
		From:    cfg.SendGrid.From,
		Host:    cfg.SendGrid.Host,
		Timeout: time.Duration(cfg.SendGrid.TimeoutSeconds) * time.Second,
	})
	if !dispatcher.Configured() {
		logger.Warn("SendGrid is not configured; notifications will be retried until dead-lettered")
	}

	queue := notification.NewQueue(dispatcher, store.NotificationJobRepository, notification.QueueConfig{
		Workers:        cfg.Queue.Workers,
		Size:           cfg.Queue.Size,
		MaxRetries:     cfg.Queue.MaxRetries,
		InitialBackoff: time.Duration(cfg.Queue.InitialBackoffMs) * time.Millisecond,
	})
	queue.Start()

	// Pick up jobs left queued by a previous process
	if n, err := queue.Redeliver(context.Background(), time.Now().UTC(), cfg.Queue.Size); err != nil {
		logger.Error("Failed to recover queued notifications", "error", err)
	} else if n > 0 {
		logger.Info("Recovered queued notifications", "count", n)
	}

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.Admin.JWTSecret, time.Duration(cfg.Admin.SessionMinutes)*time.Minute)

	// Initialize Services
	authSvc := service.NewAuthService(cfg.Admin.Username, cfg.Admin.Password, tokenManager)
	validator := service.NewValidator(cfg.Intake.DefaultRegion, cfg.Storage.AllowedExtensions)
	membershipSvc := service.NewMembershipService(store.MembershipRequestRepository, docs, queue)
	bulkSvc := service.NewBulkMessagingService(store.MembershipRequestRepository, queue, service.BulkConfig{
		MaxRecipients: cfg.Bulk.MaxRecipients,
		Pause:         time.Duration(cfg.Bulk.PauseMs) * time.Millisecond,
	})

	// Initialize HTTP handlers
	intakeHandler := httpapi.NewIntakeHandler(validator, membershipSvc, cfg.MaxUploadBytes())
	adminHandler := httpapi.NewAdminHandler(
		membershipSvc,
		bulkSvc,
		authSvc,
		docs,
		dispatcher,
		store.MembershipRequestRepository,
		httpapi.AdminOptions{
			CookieSecure:       cfg.Admin.CookieSecure,
			UploadDir:          docs.UploadDir(),
			SendGridConfigured: dispatcher.Configured(),
			Sender:             dispatcher.Sender(),
		},
	)
	healthHandler := httpapi.NewHealthHandler(store.MembershipRequestRepository)

	router := httpapi.NewRouter(intakeHandler, adminHandler, healthHandler, authSvc, cfg.RateLimit)

	// Outbox maintenance
	var cronScheduler *scheduler.Scheduler
	if *withScheduler {
		jobRunner := jobs.NewJobRunner(store.NotificationJobRepository, queue, cfg)
		cronScheduler = scheduler.NewScheduler(jobRunner)
		cronScheduler.Start()
	}

	srv := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	if cronScheduler != nil {
		cronScheduler.Stop()
	}
	if err := queue.Stop(ctx); err != nil {
		logger.Warn("Notification queue did not drain before timeout", "error", err, "pending", queue.Length())
	}
	logger.Info("Server stopped. Goodbye!")
}
