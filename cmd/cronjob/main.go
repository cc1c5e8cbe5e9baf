package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"amicale-intake-backend/internal/config"
	"amicale-intake-backend/internal/jobs"
	"amicale-intake-backend/internal/logger"
	"amicale-intake-backend/internal/notification"
	"amicale-intake-backend/internal/repository/postgres"
	"amicale-intake-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'requeue-stalled-notifications', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Amicale Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
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

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Redelivered jobs need workers of their own in this process
	dispatcher := notification.NewSendGridDispatcher(notification.SendGridConfig{
		APIKey:  cfg.SendGrid.APIKey,
		From:    cfg.SendGrid.From,
		Host:    cfg.SendGrid.Host,
		Timeout: time.Duration(cfg.SendGrid.TimeoutSeconds) * time.Second,
	})
	queue := notification.NewQueue(dispatcher, store.NotificationJobRepository, notification.QueueConfig{
		Workers:        cfg.Queue.Workers,
		Size:           cfg.Queue.Size,
		MaxRetries:     cfg.Queue.MaxRetries,
		InitialBackoff: time.Duration(cfg.Queue.InitialBackoffMs) * time.Millisecond,
	})
	queue.Start()
	defer stopQueue(queue)

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(store.NotificationJobRepository, queue, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if !runJobOnce(jobRunner, *runOnce) {
			stopQueue(queue)
			os.Exit(1)
		}
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

func stopQueue(queue *notification.Queue) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := queue.Stop(ctx); err != nil {
		logger.Warn("Notification queue did not drain", "error", err)
	}
}

// runJobOnce runs a specific job once. It reports false for an unknown job name.
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) bool {
	switch jobName {
	case "requeue-stalled-notifications":
		jobRunner.RequeueStalledNotifications()
	case "purge-delivered-notifications":
		jobRunner.PurgeDeliveredNotifications()
	case "report-dead-letters":
		jobRunner.ReportDeadLetters()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - requeue-stalled-notifications\n")
		fmt.Printf("  - purge-delivered-notifications\n")
		fmt.Printf("  - report-dead-letters\n")
		fmt.Printf("  - all\n")
		return false
	}
	return true
}
