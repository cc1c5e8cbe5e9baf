package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"amicale-intake-backend/internal/domain"
	"amicale-intake-backend/internal/logger"
	"amicale-intake-backend/internal/metrics"
	"amicale-intake-backend/internal/notification"
	"amicale-intake-backend/internal/repository"
	"amicale-intake-backend/internal/storage"
)

type membershipService struct {
	repo     repository.MembershipRequestRepository
	docs     storage.DocumentStore
	notifier notification.Enqueuer
	now      func() time.Time
}

func NewMembershipService(
	repo repository.MembershipRequestRepository,
	docs storage.DocumentStore,
	notifier notification.Enqueuer,
) MembershipService {
	return &membershipService{
		repo:     repo,
		docs:     docs,
		notifier: notifier,
		now:      time.Now,
	}
}

// Create stores the record and its five documents together. Any failure after the
// identity is reserved removes the files already written and rolls the record back.
func (s *membershipService) Create(ctx context.Context, sub *Submission) (*domain.MembershipRequest, error) {
	logger.EnterMethod("membershipService.Create", "email", sub.Email)

	for _, slot := range domain.DocumentSlots {
		if up, ok := sub.Uploads[slot]; !ok || up.Content == nil {
			err := &domain.ValidationError{Field: string(slot), Reason: fmt.Sprintf("Le fichier %s est requis", slot.Label())}
			logger.ExitMethodWithError("membershipService.Create", err)
			return nil, err
		}
	}

	req := &domain.MembershipRequest{
		LastName:    sub.LastName,
		FirstName:   sub.FirstName,
		Address:     sub.Address,
		Phone:       sub.Phone,
		Email:       sub.Email,
		Region:      sub.Region,
		Status:      domain.RequestStatusPending,
		SubmittedAt: s.now().UTC(),
	}

	res, err := s.repo.Reserve(ctx, req)
	if err != nil {
		logger.ExitMethodWithError("membershipService.Create", err)
		return nil, &domain.PersistenceError{Op: "reserve request", Err: err}
	}
	req.ID = res.ID()

	docs := make(domain.Documents, len(domain.DocumentSlots))
	for _, slot := range domain.DocumentSlots {
		up := sub.Uploads[slot]
		name, err := s.docs.Save(ctx, req.ID, slot, up.Filename, up.Content)
		if err != nil {
			s.abort(ctx, res, docs)
			logger.ExitMethodWithError("membershipService.Create", err, "id", req.ID, "slot", slot)
			return nil, &domain.PersistenceError{Op: fmt.Sprintf("store %s", slot), Err: err}
		}
		docs[slot] = name
	}

	if err := res.Commit(ctx, docs); err != nil {
		s.abort(ctx, res, docs)
		logger.ExitMethodWithError("membershipService.Create", err, "id", req.ID)
		return nil, &domain.PersistenceError{Op: "commit request", Err: err}
	}
	req.Documents = docs
	metrics.RequestsSubmitted.Inc()

	s.notify(ctx, ConfirmationMessage(req), req.ID)

	logger.ExitMethod("membershipService.Create", "id", req.ID)
	return req, nil
}

// abort removes written files and discards the reserved record
func (s *membershipService) abort(ctx context.Context, res repository.Reservation, docs domain.Documents) {
	for slot, name := range docs {
		if err := s.docs.Remove(ctx, name); err != nil {
			logger.Warn("Failed to remove document after aborted creation", "slot", slot, "file", name, "error", err)
		}
	}
	if err := res.Rollback(); err != nil {
		logger.Warn("Failed to roll back reserved request", "id", res.ID(), "error", err)
	}
}

func (s *membershipService) SetStatus(ctx context.Context, id int64, status domain.RequestStatus, notes string) (*domain.MembershipRequest, error) {
	logger.EnterMethod("membershipService.SetStatus", "id", id, "status", status)

	req, err := s.Get(ctx, id)
	if err != nil {
		logger.ExitMethodWithError("membershipService.SetStatus", err, "id", id)
		return nil, err
	}
	if !status.Valid() {
		err := fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
		logger.ExitMethodWithError("membershipService.SetStatus", err, "id", id)
		return nil, err
	}

	previous := req.Status
	processedAt := s.now().UTC()
	req.Status = status
	req.AdminNotes = notes
	req.ProcessedAt = &processedAt

	if err := s.repo.UpdateStatus(ctx, req); err != nil {
		logger.ExitMethodWithError("membershipService.SetStatus", err, "id", id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, &domain.PersistenceError{Op: "update status", Err: err}
	}
	metrics.StatusTransitions.WithLabelValues(string(previous), string(status)).Inc()

	if previous != status {
		s.notify(ctx, StatusMessage(req, notes), req.ID)
	}

	logger.ExitMethod("membershipService.SetStatus", "id", id, "from", previous, "to", status)
	return req, nil
}

// notify enqueues msg; failures are logged and never reach the caller
func (s *membershipService) notify(ctx context.Context, msg domain.Message, id int64) {
	if msg.Recipient == "" {
		return
	}
	if err := s.notifier.Enqueue(ctx, msg); err != nil {
		logger.Error("Failed to enqueue notification", "id", id, "recipient", msg.Recipient, "error", err)
	}
}

func (s *membershipService) Get(ctx context.Context, id int64) (*domain.MembershipRequest, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, &domain.PersistenceError{Op: "get request", Err: err}
	}
	return req, nil
}

func (s *membershipService) List(ctx context.Context) ([]domain.MembershipRequest, error) {
	reqs, err := s.repo.List(ctx)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list requests", Err: err}
	}
	return reqs, nil
}

func (s *membershipService) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.MembershipRequest, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}
	reqs, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list requests by status", Err: err}
	}
	return reqs, nil
}

func (s *membershipService) Stats(ctx context.Context) (*domain.RequestStats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "count requests", Err: err}
	}

	stats := &domain.RequestStats{
		Pending:  counts[domain.RequestStatusPending],
		Approved: counts[domain.RequestStatusApproved],
		Rejected: counts[domain.RequestStatusRejected],
	}
	stats.Total = stats.Pending + stats.Approved + stats.Rejected
	return stats, nil
}
