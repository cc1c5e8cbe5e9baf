package scheduler

import (
	"time"

	"amicale-intake-backend/internal/jobs"
	"amicale-intake-backend/internal/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner
func NewScheduler(jobRunner *jobs.JobRunner) *Scheduler {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	s.registerJobs()
	return s
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() {
	cfg := s.jobs.Config().Scheduler

	// Outbox redelivery
	_, err := s.cron.AddFunc(cfg.RequeueStalledNotifications, s.jobs.RequeueStalledNotifications)
	if err != nil {
		logger.Error("Failed to register RequeueStalledNotifications job", "error", err)
	}

	// Outbox housekeeping
	_, err = s.cron.AddFunc(cfg.PurgeDeliveredNotifications, s.jobs.PurgeDeliveredNotifications)
	if err != nil {
		logger.Error("Failed to register PurgeDeliveredNotifications job", "error", err)
	}

	_, err = s.cron.AddFunc(cfg.ReportDeadLetters, s.jobs.ReportDeadLetters)
	if err != nil {
		logger.Error("Failed to register ReportDeadLetters job", "error", err)
	}

	logger.Info("All cron jobs registered", "count", len(s.cron.Entries()))
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has registered jobs
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}

// EntryCount returns the number of registered jobs
func (s *Scheduler) EntryCount() int {
	return len(s.cron.Entries())
}
