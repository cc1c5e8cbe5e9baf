package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"amicale-intake-backend/internal/domain"
	"amicale-intake-backend/internal/logger"
	"amicale-intake-backend/internal/repository"
)

type notificationJobRepository struct {
	db *sql.DB
}

func NewNotificationJobRepository(db *sql.DB) repository.NotificationJobRepository {
	return &notificationJobRepository{db: db}
}

func (r *notificationJobRepository) Create(ctx context.Context, job *domain.NotificationJob) error {
	query := `INSERT INTO notification_jobs (id, recipient, subject, body, state, attempts, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	logger.DatabaseCall("INSERT", "notification_jobs", "jobID", job.ID, "recipient", job.Message.Recipient)
	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.Message.Recipient, job.Message.Subject, job.Message.Body,
		job.State, job.Attempts, job.CreatedAt, job.UpdatedAt,
	)
	logger.DatabaseResult("INSERT", 1, err, "jobID", job.ID)
	return err
}

func (r *notificationJobRepository) MarkSent(ctx context.Context, id string, attempts int) error {
	query := `UPDATE notification_jobs SET state = $1, attempts = $2, last_error = NULL, updated_at = $3 WHERE id = $4`
	return r.exec(ctx, query, domain.NotificationStateSent, attempts, time.Now().UTC(), id)
}

func (r *notificationJobRepository) MarkFailed(ctx context.Context, id string, attempts int, lastError string, dead bool) error {
	state := domain.NotificationStateQueued
	if dead {
		state = domain.NotificationStateDead
	}
	query := `UPDATE notification_jobs SET state = $1, attempts = $2, last_error = $3, updated_at = $4 WHERE id = $5`
	return r.exec(ctx, query, state, attempts, lastError, time.Now().UTC(), id)
}

func (r *notificationJobRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("notification job not found")
	}
	return nil
}

func (r *notificationJobRepository) ListQueued(ctx context.Context, olderThan time.Time, limit int) ([]domain.NotificationJob, error) {
	query := `SELECT id, recipient, subject, body, state, attempts, COALESCE(last_error, ''), created_at, updated_at
	          FROM notification_jobs WHERE state = $1 AND updated_at < $2 ORDER BY created_at LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, domain.NotificationStateQueued, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.NotificationJob
	for rows.Next() {
		var job domain.NotificationJob
		if err := rows.Scan(
			&job.ID, &job.Message.Recipient, &job.Message.Subject, &job.Message.Body,
			&job.State, &job.Attempts, &job.LastError, &job.CreatedAt, &job.UpdatedAt,
		); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *notificationJobRepository) CountByState(ctx context.Context, state domain.NotificationState) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notification_jobs WHERE state = $1`
	err := r.db.QueryRowContext(ctx, query, state).Scan(&count)
	return count, err
}

func (r *notificationJobRepository) DeleteSentBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM notification_jobs WHERE state = $1 AND updated_at < $2`
	logger.DatabaseCall("DELETE", "notification_jobs", "before", before)
	result, err := r.db.ExecContext(ctx, query, domain.NotificationStateSent, before)
	if err != nil {
		logger.DatabaseResult("DELETE", 0, err)
		return 0, err
	}
	rows, err := result.RowsAffected()
	logger.DatabaseResult("DELETE", rows, err)
	return rows, err
}
