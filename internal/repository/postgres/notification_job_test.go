package postgres_test

import (
	"context"
	"testing"
	"time"

	"amicale-intake-backend/internal/domain"
	"amicale-intake-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationJobRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := postgres.NewNotificationJobRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	t.Run("Create", func(t *testing.T) {
		job := &domain.NotificationJob{
			ID:        "job-1",
			Message:   domain.Message{Recipient: "a@example.com", Subject: "s", Body: "b"},
			State:     domain.NotificationStateQueued,
			CreatedAt: now,
			UpdatedAt: now,
		}
		mock.ExpectExec("INSERT INTO notification_jobs").
			WithArgs("job-1", "a@example.com", "s", "b", domain.NotificationStateQueued, 0, now, now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(ctx, job))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MarkSent", func(t *testing.T) {
		mock.ExpectExec("UPDATE notification_jobs SET state").
			WithArgs(domain.NotificationStateSent, 1, sqlmock.AnyArg(), "job-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.MarkSent(ctx, "job-1", 1))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MarkFailed keeps job queued", func(t *testing.T) {
		mock.ExpectExec("UPDATE notification_jobs SET state").
			WithArgs(domain.NotificationStateQueued, 2, "status 500", sqlmock.AnyArg(), "job-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.MarkFailed(ctx, "job-1", 2, "status 500", false))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MarkFailed dead letter", func(t *testing.T) {
		mock.ExpectExec("UPDATE notification_jobs SET state").
			WithArgs(domain.NotificationStateDead, 6, "status 500", sqlmock.AnyArg(), "job-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.MarkFailed(ctx, "job-1", 6, "status 500", true))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MarkSent unknown job", func(t *testing.T) {
		mock.ExpectExec("UPDATE notification_jobs SET state").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.MarkSent(ctx, "missing", 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ListQueued", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "recipient", "subject", "body", "state", "attempts", "last_error", "created_at", "updated_at"}).
			AddRow("job-1", "a@example.com", "s", "b", "queued", 1, "status 500", now, now).
			AddRow("job-2", "b@example.com", "s", "b", "queued", 0, "", now, now)
		mock.ExpectQuery("SELECT (.+) FROM notification_jobs WHERE state").
			WithArgs(domain.NotificationStateQueued, now, 50).
			WillReturnRows(rows)

		jobs, err := repo.ListQueued(ctx, now, 50)
		require.NoError(t, err)
		require.Len(t, jobs, 2)
		assert.Equal(t, "job-1", jobs[0].ID)
		assert.Equal(t, domain.NotificationStateQueued, jobs[0].State)
		assert.Equal(t, "status 500", jobs[0].LastError)
		assert.Equal(t, "b@example.com", jobs[1].Message.Recipient)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CountByState", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs(domain.NotificationStateDead).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		count, err := repo.CountByState(ctx, domain.NotificationStateDead)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DeleteSentBefore", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM notification_jobs").
			WithArgs(domain.NotificationStateSent, now).
			WillReturnResult(sqlmock.NewResult(0, 4))

		deleted, err := repo.DeleteSentBefore(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(4), deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
