package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"amicale-intake-backend/internal/domain"
	"amicale-intake-backend/internal/logger"
	"amicale-intake-backend/internal/metrics"
	"amicale-intake-backend/internal/repository"

	"github.com/google/uuid"
)

const maxBackoff = 30 * time.Minute

var ErrQueueStopped = errors.New("notification queue is shutting down")

// Enqueuer accepts messages for background delivery
type Enqueuer interface {
	Enqueue(ctx context.Context, msg domain.Message) error
}

// QueueConfig configures the background dispatch queue
type QueueConfig struct {
	Workers        int
	Size           int
	MaxRetries     int // retries after the first attempt
	InitialBackoff time.Duration
}

// Queue delivers messages off the request path. Every job is written to the
// outbox before it is handed to a worker, so a job that is dropped, still
// waiting for a retry, or lost to a restart stays "queued" and is picked up
// again by Redeliver. Jobs that exhaust their retries are marked dead.
type Queue struct {
	dispatcher Dispatcher
	jobs       repository.NotificationJobRepository
	cfg        QueueConfig
	items      chan *domain.NotificationJob
	log        *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewQueue(dispatcher Dispatcher, jobs repository.NotificationJobRepository, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Size <= 0 {
		cfg.Size = 100
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		dispatcher: dispatcher,
		jobs:       jobs,
		cfg:        cfg,
		items:      make(chan *domain.NotificationJob, cfg.Size),
		log:        logger.WithComponent("notification_queue"),
		inFlight:   make(map[string]struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}

	q.log.Info("Initializing notification queue",
		"workers", cfg.Workers,
		"size", cfg.Size,
		"maxRetries", cfg.MaxRetries,
		"initialBackoff", cfg.InitialBackoff)
	return q
}

// Start launches the worker goroutines
func (q *Queue) Start() {
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.log.Info("Notification queue workers started", "workers", q.cfg.Workers)
}

// Enqueue persists msg as a queued job and hands it to a worker without blocking
func (q *Queue) Enqueue(ctx context.Context, msg domain.Message) error {
	if msg.Recipient == "" {
		return fmt.Errorf("cannot enqueue notification without recipient")
	}

	select {
	case <-q.ctx.Done():
		metrics.NotificationsDropped.Inc()
		return ErrQueueStopped
	default:
	}

	now := time.Now().UTC()
	job := &domain.NotificationJob{
		ID:        uuid.NewString(),
		Message:   msg,
		State:     domain.NotificationStateQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := q.jobs.Create(ctx, job); err != nil {
		return fmt.Errorf("failed to persist notification job: %w", err)
	}
	metrics.NotificationsQueued.Inc()

	q.submit(job)
	return nil
}

// Redeliver re-submits queued outbox jobs last touched before olderThan.
// Jobs already held by this process are skipped.
func (q *Queue) Redeliver(ctx context.Context, olderThan time.Time, limit int) (int, error) {
	jobs, err := q.jobs.ListQueued(ctx, olderThan, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list queued notifications: %w", err)
	}

	count := 0
	for i := range jobs {
		if q.submit(&jobs[i]) {
			count++
		}
	}
	if count > 0 {
		q.log.Info("Redelivered queued notifications", "count", count)
	}
	return count, nil
}

// submit hands job to the workers. It reports false when the job was already
// in flight, the queue is stopping, or the buffer is full.
func (q *Queue) submit(job *domain.NotificationJob) bool {
	q.mu.Lock()
	if _, held := q.inFlight[job.ID]; held {
		q.mu.Unlock()
		return false
	}
	q.inFlight[job.ID] = struct{}{}
	q.mu.Unlock()

	if q.push(job) {
		return true
	}
	q.release(job.ID)
	return false
}

// push places an already tracked job on the channel
func (q *Queue) push(job *domain.NotificationJob) bool {
	select {
	case <-q.ctx.Done():
		metrics.NotificationsDropped.Inc()
		return false
	default:
	}

	select {
	case q.items <- job:
		return true
	default:
		metrics.NotificationsDropped.Inc()
		q.log.Warn("Notification queue is full, job left for redelivery",
			"id", job.ID,
			"size", q.cfg.Size)
		return false
	}
}

func (q *Queue) release(id string) {
	q.mu.Lock()
	delete(q.inFlight, id)
	q.mu.Unlock()
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("panic in notification worker recovered", "worker", id, "panic", r)
			if q.ctx.Err() == nil {
				q.wg.Add(1)
				go q.worker(id)
			}
		}
	}()

	for {
		select {
		case <-q.ctx.Done():
			q.drain()
			return
		case job := <-q.items:
			q.process(job)
		}
	}
}

// drain processes whatever is still buffered when the queue stops
func (q *Queue) drain() {
	for {
		select {
		case job := <-q.items:
			q.process(job)
		default:
			return
		}
	}
}

func (q *Queue) process(job *domain.NotificationJob) {
	job.Attempts++

	// In-flight sends are not cancelled by Stop; the dispatcher bounds them with its own timeout.
	err := q.dispatcher.Send(context.Background(), job.Message)
	if err == nil {
		metrics.NotificationsSent.Inc()
		q.log.Info("Notification sent",
			"id", job.ID,
			"recipient", job.Message.Recipient,
			"attempt", job.Attempts)
		if err := q.jobs.MarkSent(context.Background(), job.ID, job.Attempts); err != nil {
			q.log.Error("Failed to mark notification sent", "id", job.ID, "error", err)
		}
		q.release(job.ID)
		return
	}

	dead := job.Attempts > q.cfg.MaxRetries
	if markErr := q.jobs.MarkFailed(context.Background(), job.ID, job.Attempts, err.Error(), dead); markErr != nil {
		q.log.Error("Failed to record notification failure", "id", job.ID, "error", markErr)
	}

	if dead {
		metrics.NotificationsDead.Inc()
		q.log.Error("Notification moved to dead letter after all retries",
			"id", job.ID,
			"recipient", job.Message.Recipient,
			"attempts", job.Attempts,
			"error", err)
		q.release(job.ID)
		return
	}

	backoff := q.backoff(job.Attempts)
	metrics.NotificationsRetried.Inc()
	q.log.Warn("Notification send failed, scheduling retry",
		"id", job.ID,
		"attempt", job.Attempts,
		"retryIn", backoff,
		"error", err)
	time.AfterFunc(backoff, func() {
		if !q.push(job) {
			q.release(job.ID)
		}
	})
}

// backoff doubles from the initial delay per attempt, capped at 30 minutes
func (q *Queue) backoff(attempt int) time.Duration {
	d := time.Duration(float64(q.cfg.InitialBackoff) * math.Pow(2, float64(attempt-1)))
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}
	return d
}

// Stop stops accepting jobs, drains the buffer, and waits for workers to exit
func (q *Queue) Stop(ctx context.Context) error {
	q.log.Info("Stopping notification queue")
	q.cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.log.Info("Notification queue stopped gracefully")
		return nil
	case <-ctx.Done():
		q.log.Warn("Notification queue shutdown timed out, remaining jobs stay queued in the outbox")
		return ctx.Err()
	}
}

// Length returns the number of buffered jobs
func (q *Queue) Length() int {
	return len(q.items)
}
