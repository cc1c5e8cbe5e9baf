package jobs

import (
	"context"

	"amicale-intake-backend/internal/domain"
	"amicale-intake-backend/internal/logger"
)

// RequeueStalledNotifications hands queued outbox jobs that nobody has touched for a
// minute back to the workers. This covers jobs dropped on a full buffer and jobs
// left behind by a restart.
func (jr *JobRunner) RequeueStalledNotifications() {
	jr.runWithRecovery("RequeueStalledNotifications", func() {
		ctx := context.Background()

		count, err := jr.queue.Redeliver(ctx, jr.now().UTC().Add(-stalledAfter), redeliverBatchSize)
		if err != nil {
			logger.Error("Failed to requeue stalled notifications", "error", err)
			return
		}
		logger.Info("Requeued stalled notifications", "count", count)
	})
}

// PurgeDeliveredNotifications deletes sent jobs older than the retention window
func (jr *JobRunner) PurgeDeliveredNotifications() {
	jr.runWithRecovery("PurgeDeliveredNotifications", func() {
		ctx := context.Background()

		deleted, err := jr.outbox.DeleteSentBefore(ctx, jr.now().UTC().Add(-sentRetention))
		if err != nil {
			logger.Error("Failed to purge delivered notifications", "error", err)
			return
		}
		logger.Info("Purged delivered notifications", "count", deleted)
	})
}

// ReportDeadLetters logs how many notifications exhausted their retries
func (jr *JobRunner) ReportDeadLetters() {
	jr.runWithRecovery("ReportDeadLetters", func() {
		ctx := context.Background()

		dead, err := jr.outbox.CountByState(ctx, domain.NotificationStateDead)
		if err != nil {
			logger.Error("Failed to count dead notifications", "error", err)
			return
		}
		if dead > 0 {
			logger.Warn("Notifications in dead-letter state need attention", "count", dead)
			return
		}
		logger.Info("No dead notifications")
	})
}
