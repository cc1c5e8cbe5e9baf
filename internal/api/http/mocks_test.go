package http_test

import (
	"context"

	"amicale-intake-backend/internal/domain"
	"amicale-intake-backend/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockMembershipService
type MockMembershipService struct {
	mock.Mock
}

func (m *MockMembershipService) Create(ctx context.Context, sub *service.Submission) (*domain.MembershipRequest, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MembershipRequest), args.Error(1)
}

func (m *MockMembershipService) SetStatus(ctx context.Context, id int64, status domain.RequestStatus, notes string) (*domain.MembershipRequest, error) {
	args := m.Called(ctx, id, status, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MembershipRequest), args.Error(1)
}

func (m *MockMembershipService) Get(ctx context.Context, id int64) (*domain.MembershipRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MembershipRequest), args.Error(1)
}

func (m *MockMembershipService) List(ctx context.Context) ([]domain.MembershipRequest, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.MembershipRequest), args.Error(1)
}

func (m *MockMembershipService) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.MembershipRequest, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.MembershipRequest), args.Error(1)
}

func (m *MockMembershipService) Stats(ctx context.Context) (*domain.RequestStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RequestStats), args.Error(1)
}

// MockBulkService
type MockBulkService struct {
	mock.Mock
}

func (m *MockBulkService) Send(ctx context.Context, req service.BulkRequest) (*service.BulkResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BulkResult), args.Error(1)
}

// MockDispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Send(ctx context.Context, msg domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// stubPinger
type stubPinger struct {
	err error
}

func (p stubPinger) Ping(ctx context.Context) error {
	return p.err
}
