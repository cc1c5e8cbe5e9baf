package service_test

import (
	"context"
	"io"
	"time"

	"amicale-intake-backend/internal/domain"
	"amicale-intake-backend/internal/repository"
	"amicale-intake-backend/internal/security"

	"github.com/stretchr/testify/mock"
)

// MockRequestRepo
type MockRequestRepo struct {
	mock.Mock
}

func (m *MockRequestRepo) Reserve(ctx context.Context, req *domain.MembershipRequest) (repository.Reservation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.Reservation), args.Error(1)
}

func (m *MockRequestRepo) GetByID(ctx context.Context, id int64) (*domain.MembershipRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MembershipRequest), args.Error(1)
}

func (m *MockRequestRepo) UpdateStatus(ctx context.Context, req *domain.MembershipRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockRequestRepo) List(ctx context.Context) ([]domain.MembershipRequest, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.MembershipRequest), args.Error(1)
}

func (m *MockRequestRepo) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.MembershipRequest, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]domain.MembershipRequest), args.Error(1)
}

func (m *MockRequestRepo) ListByIDs(ctx context.Context, ids []int64) ([]domain.MembershipRequest, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]domain.MembershipRequest), args.Error(1)
}

func (m *MockRequestRepo) CountByStatus(ctx context.Context) (map[domain.RequestStatus]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.RequestStatus]int), args.Error(1)
}

func (m *MockRequestRepo) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockReservation
type MockReservation struct {
	mock.Mock
	id int64
}

func (m *MockReservation) ID() int64 {
	return m.id
}

func (m *MockReservation) Commit(ctx context.Context, docs domain.Documents) error {
	args := m.Called(ctx, docs)
	return args.Error(0)
}

func (m *MockReservation) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockDocumentStore
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Save(ctx context.Context, requestID int64, slot domain.DocumentSlot, filename string, content io.Reader) (string, error) {
	args := m.Called(ctx, requestID, slot, filename, content)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentStore) Exists(ctx context.Context, name string) (bool, int64, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Get(1).(int64), args.Error(2)
}

func (m *MockDocumentStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockDocumentStore) Remove(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// MockEnqueuer
type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) Enqueue(ctx context.Context, msg domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockTokenManager
type MockTokenManager struct {
	mock.Mock
}

func (m *MockTokenManager) GenerateAdminToken(username string) (string, time.Time, error) {
	args := m.Called(username)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockTokenManager) ValidateToken(tokenString string) (*security.AdminClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*security.AdminClaims), args.Error(1)
}
