package jobs

import (
	"context"
	"time"

	"amicale-intake-backend/internal/config"
	"amicale-intake-backend/internal/logger"
	"amicale-intake-backend/internal/repository"
)

const (
	stalledAfter       = time.Minute
	redeliverBatchSize = 200
	sentRetention      = 30 * 24 * time.Hour
)

// Redeliverer re-submits queued outbox jobs to the workers
type Redeliverer interface {
	Redeliver(ctx context.Context, olderThan time.Time, limit int) (int, error)
}

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	outbox repository.NotificationJobRepository
	queue  Redeliverer
	config *config.Config
	now    func() time.Time
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(outbox repository.NotificationJobRepository, queue Redeliverer, cfg *config.Config) *JobRunner {
	return &JobRunner{
		outbox: outbox,
		queue:  queue,
		config: cfg,
		now:    time.Now,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.RequeueStalledNotifications()
	jr.PurgeDeliveredNotifications()
	jr.ReportDeadLetters()
}
