package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"amicale-intake-backend/internal/domain"
	"amicale-intake-backend/internal/logger"
	"amicale-intake-backend/internal/metrics"
	"amicale-intake-backend/internal/notification"
	"amicale-intake-backend/internal/repository"
)

type RecipientSelector string

const (
	SelectorAll      RecipientSelector = "all"
	SelectorPending  RecipientSelector = "pending"
	SelectorApproved RecipientSelector = "approved"
	SelectorRejected RecipientSelector = "rejected"
	SelectorSelected RecipientSelector = "selected"
	SelectorCustom   RecipientSelector = "custom"
)

// BulkRequest is an admin broadcast. Message may use {nom}, {prenom}, {id} and {date}.
type BulkRequest struct {
	Selector     RecipientSelector
	Subject      string
	Message      string
	CustomEmails []string
	SelectedIDs  []int64
}

type BulkResult struct {
	SentCount  int `json:"sent_count"`
	TotalCount int `json:"total_count"`
}

type BulkConfig struct {
	MaxRecipients int
	Pause         time.Duration // between two submissions
}

type recipient struct {
	email string
	req   *domain.MembershipRequest // nil for custom addresses
}

type bulkMessagingService struct {
	repo     repository.MembershipRequestRepository
	notifier notification.Enqueuer
	cfg      BulkConfig
}

func NewBulkMessagingService(repo repository.MembershipRequestRepository, notifier notification.Enqueuer, cfg BulkConfig) BulkMessagingService {
	if cfg.MaxRecipients <= 0 {
		cfg.MaxRecipients = 10
	}
	if cfg.Pause < 0 {
		cfg.Pause = 0
	}
	return &bulkMessagingService{repo: repo, notifier: notifier, cfg: cfg}
}

func (s *bulkMessagingService) Send(ctx context.Context, req BulkRequest) (*BulkResult, error) {
	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.Message)
	if subject == "" || message == "" {
		return nil, &domain.ValidationError{Field: "subject", Reason: "Sujet et message sont requis"}
	}

	selector := effectiveSelector(req)
	logger.EnterMethod("bulkMessagingService.Send", "selector", selector)

	candidates, err := s.resolve(ctx, selector, req)
	if err != nil {
		logger.ExitMethodWithError("bulkMessagingService.Send", err)
		return nil, &domain.PersistenceError{Op: "resolve recipients", Err: err}
	}

	recipients := filterRecipients(candidates, s.cfg.MaxRecipients)
	if len(recipients) == 0 {
		logger.ExitMethodWithError("bulkMessagingService.Send", domain.ErrNoRecipients)
		return nil, domain.ErrNoRecipients
	}
	metrics.BulkSends.WithLabelValues(string(selector)).Inc()

	result := &BulkResult{TotalCount: len(recipients)}
	for i, r := range recipients {
		if i > 0 && s.cfg.Pause > 0 {
			select {
			case <-ctx.Done():
				logger.Warn("Bulk send interrupted", "sent", result.SentCount, "total", result.TotalCount)
				return result, nil
			case <-time.After(s.cfg.Pause):
			}
		}

		msg := domain.Message{Recipient: r.email, Subject: subject, Body: personalize(message, r.req)}
		if err := s.notifier.Enqueue(ctx, msg); err != nil {
			logger.Error("Failed to enqueue bulk message", "recipient", r.email, "error", err)
			continue
		}
		result.SentCount++
	}

	logger.ExitMethod("bulkMessagingService.Send", "sent", result.SentCount, "total", result.TotalCount)
	return result, nil
}

// effectiveSelector falls back to all for unknown selectors and for
// selected/custom without a list
func effectiveSelector(req BulkRequest) RecipientSelector {
	switch req.Selector {
	case SelectorPending, SelectorApproved, SelectorRejected:
		return req.Selector
	case SelectorSelected:
		if len(req.SelectedIDs) > 0 {
			return SelectorSelected
		}
	case SelectorCustom:
		if len(req.CustomEmails) > 0 {
			return SelectorCustom
		}
	}
	return SelectorAll
}

func (s *bulkMessagingService) resolve(ctx context.Context, selector RecipientSelector, req BulkRequest) ([]recipient, error) {
	var reqs []domain.MembershipRequest
	var err error

	switch selector {
	case SelectorCustom:
		out := make([]recipient, 0, len(req.CustomEmails))
		for _, email := range req.CustomEmails {
			out = append(out, recipient{email: strings.TrimSpace(email)})
		}
		return out, nil
	case SelectorSelected:
		reqs, err = s.repo.ListByIDs(ctx, req.SelectedIDs)
	case SelectorPending, SelectorApproved, SelectorRejected:
		reqs, err = s.repo.ListByStatus(ctx, domain.RequestStatus(selector))
	default:
		reqs, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, err
	}

	out := make([]recipient, 0, len(reqs))
	for i := range reqs {
		out = append(out, recipient{email: strings.TrimSpace(reqs[i].Email), req: &reqs[i]})
	}
	return out, nil
}

// filterRecipients drops invalid and repeated addresses and applies the cap
func filterRecipients(candidates []recipient, limit int) []recipient {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]recipient, 0, limit)
	for _, r := range candidates {
		if r.email == "" || !ValidEmail(r.email) {
			continue
		}
		key := strings.ToLower(r.email)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out
}

// personalize fills placeholders from the request; custom addresses get the template as-is
func personalize(template string, req *domain.MembershipRequest) string {
	if req == nil {
		return template
	}
	return strings.NewReplacer(
		"{nom}", req.LastName,
		"{prenom}", req.FirstName,
		"{id}", strconv.FormatInt(req.ID, 10),
		"{date}", req.SubmittedAt.Format("02/01/2006"),
	).Replace(template)
}
