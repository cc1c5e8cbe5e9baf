package service

import (
	"context"
	"time"

	"amicale-intake-backend/internal/domain"
)

type MembershipService interface {
	Create(ctx context.Context, sub *Submission) (*domain.MembershipRequest, error)
	SetStatus(ctx context.Context, id int64, status domain.RequestStatus, notes string) (*domain.MembershipRequest, error)
	Get(ctx context.Context, id int64) (*domain.MembershipRequest, error)
	List(ctx context.Context) ([]domain.MembershipRequest, error)
	ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.MembershipRequest, error)
	Stats(ctx context.Context) (*domain.RequestStats, error)
}

type BulkMessagingService interface {
	Send(ctx context.Context, req BulkRequest) (*BulkResult, error)
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiresAt
	Authenticate(ctx context.Context, token string) (string, error)                  // username
}
