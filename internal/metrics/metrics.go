package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Request lifecycle metrics
	RequestsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "intake_requests_submitted_total",
		Help: "Total number of membership requests committed",
	})
	RequestsRejectedAtIntake = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_requests_invalid_total",
		Help: "Total number of submissions refused, by reason kind",
	}, []string{"reason"})
	StatusTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_status_transitions_total",
		Help: "Total number of status updates, by previous and new status",
	}, []string{"from", "to"})

	// Notification metrics
	NotificationsQueued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "intake_notifications_queued_total",
		Help: "Total number of notification jobs accepted by the queue",
	})
	NotificationsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "intake_notifications_sent_total",
		Help: "Total number of notifications delivered to the email provider",
	})
	NotificationsRetried = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "intake_notifications_retry_scheduled_total",
		Help: "Total number of failed sends scheduled for retry",
	})
	NotificationsDead = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "intake_notifications_dead_total",
		Help: "Total number of notifications moved to the dead-letter state",
	})
	NotificationsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "intake_notifications_dropped_total",
		Help: "Total number of jobs not handed to a worker because the queue was full or stopping",
	})
	ProviderRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_email_provider_requests_total",
		Help: "Email provider calls, by outcome",
	}, []string{"outcome"})
	BulkSends = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_bulk_sends_total",
		Help: "Bulk messaging runs, by selector",
	}, []string{"selector"})
)

func init() {
	prometheus.MustRegister(RequestsSubmitted)
	prometheus.MustRegister(RequestsRejectedAtIntake)
	prometheus.MustRegister(StatusTransitions)
	prometheus.MustRegister(NotificationsQueued)
	prometheus.MustRegister(NotificationsSent)
	prometheus.MustRegister(NotificationsRetried)
	prometheus.MustRegister(NotificationsDead)
	prometheus.MustRegister(NotificationsDropped)
	prometheus.MustRegister(ProviderRequests)
	prometheus.MustRegister(BulkSends)
}

// Handler returns the HTTP handler exposing the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
