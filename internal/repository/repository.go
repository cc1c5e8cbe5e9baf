package repository

import (
	"context"
	"time"

	"amicale-intake-backend/internal/domain"
)

// MembershipRequestRepository persists membership requests.
// Creation is two-phase: Reserve assigns the identity inside an open
// transaction, the caller stores documents keyed by that identity, then
// Commit finalizes the record or Rollback discards it.
type MembershipRequestRepository interface {
	Reserve(ctx context.Context, req *domain.MembershipRequest) (Reservation, error)
	GetByID(ctx context.Context, id int64) (*domain.MembershipRequest, error)
	UpdateStatus(ctx context.Context, req *domain.MembershipRequest) error
	List(ctx context.Context) ([]domain.MembershipRequest, error)
	ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.MembershipRequest, error)
	ListByIDs(ctx context.Context, ids []int64) ([]domain.MembershipRequest, error)
	CountByStatus(ctx context.Context) (map[domain.RequestStatus]int, error)
	Ping(ctx context.Context) error
}

// Reservation is an uncommitted request record holding an assigned identity
type Reservation interface {
	ID() int64
	Commit(ctx context.Context, docs domain.Documents) error
	Rollback() error
}

// NotificationJobRepository is the durable outbox behind the notification queue
type NotificationJobRepository interface {
	Create(ctx context.Context, job *domain.NotificationJob) error
	MarkSent(ctx context.Context, id string, attempts int) error
	MarkFailed(ctx context.Context, id string, attempts int, lastError string, dead bool) error
	ListQueued(ctx context.Context, olderThan time.Time, limit int) ([]domain.NotificationJob, error)
	CountByState(ctx context.Context, state domain.NotificationState) (int, error)
	DeleteSentBefore(ctx context.Context, before time.Time) (int64, error)
}
