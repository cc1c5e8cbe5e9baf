package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"amicale-intake-backend/internal/domain"
	"amicale-intake-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func applicant(id int64, status domain.RequestStatus, email string) domain.MembershipRequest {
	return domain.MembershipRequest{
		ID:          id,
		LastName:    "Fall",
		FirstName:   fmt.Sprintf("Student%d", id),
		Email:       email,
		Status:      status,
		SubmittedAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
	}
}

func newBulk(repo *MockRequestRepo, notifier *MockEnqueuer) service.BulkMessagingService {
	return service.NewBulkMessagingService(repo, notifier, service.BulkConfig{MaxRecipients: 10})
}

func TestBulkMessagingService_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("ApprovedOnlyWithPlaceholders", func(t *testing.T) {
		repo := new(MockRequestRepo)
		notifier := new(MockEnqueuer)
		svc := newBulk(repo, notifier)

		repo.On("ListByStatus", ctx, domain.RequestStatusApproved).Return([]domain.MembershipRequest{
			applicant(1, domain.RequestStatusApproved, "one@example.sn"),
			applicant(2, domain.RequestStatusApproved, "two@example.sn"),
		}, nil).Once()
		notifier.On("Enqueue", ctx, domain.Message{
			Recipient: "one@example.sn",
			Subject:   "Assemblée générale",
			Body:      "Bonjour Student1 Fall (1), inscrit le 05/03/2024",
		}).Return(nil).Once()
		notifier.On("Enqueue", ctx, domain.Message{
			Recipient: "two@example.sn",
			Subject:   "Assemblée générale",
			Body:      "Bonjour Student2 Fall (2), inscrit le 05/03/2024",
		}).Return(nil).Once()

		result, err := svc.Send(ctx, service.BulkRequest{
			Selector: service.SelectorApproved,
			Subject:  " Assemblée générale ",
			Message:  "Bonjour {prenom} {nom} ({id}), inscrit le {date}",
		})
		require.NoError(t, err)
		assert.Equal(t, &service.BulkResult{SentCount: 2, TotalCount: 2}, result)

		notifier.AssertExpectations(t)
		repo.AssertNotCalled(t, "List", mock.Anything)
	})

	t.Run("CapsAtTen", func(t *testing.T) {
		repo := new(MockRequestRepo)
		notifier := new(MockEnqueuer)
		svc := newBulk(repo, notifier)

		var all []domain.MembershipRequest
		for i := int64(1); i <= 15; i++ {
			all = append(all, applicant(i, domain.RequestStatusPending, fmt.Sprintf("s%d@example.sn", i)))
		}
		repo.On("List", ctx).Return(all, nil).Once()
		notifier.On("Enqueue", ctx, mock.Anything).Return(nil)

		result, err := svc.Send(ctx, service.BulkRequest{Selector: service.SelectorAll, Subject: "s", Message: "m"})
		require.NoError(t, err)
		assert.Equal(t, 10, result.TotalCount)
		assert.Equal(t, 10, result.SentCount)
		notifier.AssertNumberOfCalls(t, "Enqueue", 10)
	})

	t.Run("CustomAddressesUnmodified", func(t *testing.T) {
		repo := new(MockRequestRepo)
		notifier := new(MockEnqueuer)
		svc := newBulk(repo, notifier)

		notifier.On("Enqueue", ctx, domain.Message{Recipient: "guest@example.org", Subject: "Hi", Body: "Hello {prenom}"}).Return(nil).Once()

		result, err := svc.Send(ctx, service.BulkRequest{
			Selector:     service.SelectorCustom,
			Subject:      "Hi",
			Message:      "Hello {prenom}",
			CustomEmails: []string{" guest@example.org ", "", "not-an-address", "guest@example.org"},
		})
		require.NoError(t, err)
		assert.Equal(t, &service.BulkResult{SentCount: 1, TotalCount: 1}, result)
		repo.AssertNotCalled(t, "List", mock.Anything)
	})

	t.Run("SelectedIDs", func(t *testing.T) {
		repo := new(MockRequestRepo)
		notifier := new(MockEnqueuer)
		svc := newBulk(repo, notifier)

		repo.On("ListByIDs", ctx, []int64{4, 9}).Return([]domain.MembershipRequest{
			applicant(4, domain.RequestStatusRejected, "four@example.sn"),
		}, nil).Once()
		notifier.On("Enqueue", ctx, mock.MatchedBy(func(m domain.Message) bool {
			return m.Recipient == "four@example.sn" && m.Body == "id 4"
		})).Return(nil).Once()

		result, err := svc.Send(ctx, service.BulkRequest{Selector: service.SelectorSelected, Subject: "s", Message: "id {id}", SelectedIDs: []int64{4, 9}})
		require.NoError(t, err)
		assert.Equal(t, 1, result.SentCount)
	})

	t.Run("EmptySelectionFallsBackToAll", func(t *testing.T) {
		repo := new(MockRequestRepo)
		notifier := new(MockEnqueuer)
		svc := newBulk(repo, notifier)

		repo.On("List", ctx).Return([]domain.MembershipRequest{applicant(1, domain.RequestStatusPending, "a@example.sn")}, nil).Once()
		notifier.On("Enqueue", ctx, mock.Anything).Return(nil).Once()

		_, err := svc.Send(ctx, service.BulkRequest{Selector: service.SelectorSelected, Subject: "s", Message: "m"})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("UnknownSelectorFallsBackToAll", func(t *testing.T) {
		repo := new(MockRequestRepo)
		notifier := new(MockEnqueuer)
		svc := newBulk(repo, notifier)

		repo.On("List", ctx).Return([]domain.MembershipRequest{applicant(1, domain.RequestStatusPending, "a@example.sn")}, nil).Once()
		notifier.On("Enqueue", ctx, mock.Anything).Return(nil).Once()

		_, err := svc.Send(ctx, service.BulkRequest{Selector: "alumni", Subject: "s", Message: "m"})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("SubjectAndMessageRequired", func(t *testing.T) {
		svc := newBulk(new(MockRequestRepo), new(MockEnqueuer))

		_, err := svc.Send(ctx, service.BulkRequest{Subject: "  ", Message: "m"})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "Sujet et message sont requis", verr.Reason)
	})

	t.Run("NoValidRecipients", func(t *testing.T) {
		repo := new(MockRequestRepo)
		svc := newBulk(repo, new(MockEnqueuer))

		repo.On("ListByStatus", ctx, domain.RequestStatusRejected).Return([]domain.MembershipRequest{
			applicant(1, domain.RequestStatusRejected, ""),
			applicant(2, domain.RequestStatusRejected, "broken"),
		}, nil).Once()

		_, err := svc.Send(ctx, service.BulkRequest{Selector: service.SelectorRejected, Subject: "s", Message: "m"})
		assert.ErrorIs(t, err, domain.ErrNoRecipients)
	})

	t.Run("EnqueueFailureCountsOnlySuccesses", func(t *testing.T) {
		repo := new(MockRequestRepo)
		notifier := new(MockEnqueuer)
		svc := newBulk(repo, notifier)

		repo.On("ListByStatus", ctx, domain.RequestStatusPending).Return([]domain.MembershipRequest{
			applicant(1, domain.RequestStatusPending, "a@example.sn"),
			applicant(2, domain.RequestStatusPending, "b@example.sn"),
		}, nil).Once()
		notifier.On("Enqueue", ctx, mock.MatchedBy(func(m domain.Message) bool { return m.Recipient == "a@example.sn" })).
			Return(errors.New("outbox down")).Once()
		notifier.On("Enqueue", ctx, mock.MatchedBy(func(m domain.Message) bool { return m.Recipient == "b@example.sn" })).
			Return(nil).Once()

		result, err := svc.Send(ctx, service.BulkRequest{Selector: service.SelectorPending, Subject: "s", Message: "m"})
		require.NoError(t, err)
		assert.Equal(t, &service.BulkResult{SentCount: 1, TotalCount: 2}, result)
	})

	t.Run("PausesBetweenSubmissions", func(t *testing.T) {
		repo := new(MockRequestRepo)
		notifier := new(MockEnqueuer)
		svc := service.NewBulkMessagingService(repo, notifier, service.BulkConfig{MaxRecipients: 10, Pause: 20 * time.Millisecond})

		repo.On("List", ctx).Return([]domain.MembershipRequest{
			applicant(1, domain.RequestStatusPending, "a@example.sn"),
			applicant(2, domain.RequestStatusPending, "b@example.sn"),
			applicant(3, domain.RequestStatusPending, "c@example.sn"),
		}, nil).Once()
		notifier.On("Enqueue", ctx, mock.Anything).Return(nil)

		start := time.Now()
		result, err := svc.Send(ctx, service.BulkRequest{Subject: "s", Message: "m"})
		require.NoError(t, err)
		assert.Equal(t, 3, result.SentCount)
		assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	})
}
