package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"amicale-intake-backend/internal/domain"
	"amicale-intake-backend/internal/logger"
	"amicale-intake-backend/internal/metrics"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendEndpoint   = "/v3/mail/send"
	defaultTimeout = 30 * time.Second
)

var (
	ErrNotConfigured = errors.New("email provider not configured")
	ErrTimeout       = errors.New("email provider timed out")
)

// Dispatcher delivers one message to one recipient
type Dispatcher interface {
	Send(ctx context.Context, msg domain.Message) error
}

// SendGridConfig configures the transactional email provider
type SendGridConfig struct {
	APIKey  string
	From    string
	Host    string // empty means the public SendGrid API
	Timeout time.Duration
}

// SendGridDispatcher sends plain-text mail through the SendGrid v3 API.
// Every failure comes back as a *domain.NotificationError; Send never panics.
type SendGridDispatcher struct {
	cfg SendGridConfig
}

func NewSendGridDispatcher(cfg SendGridConfig) *SendGridDispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &SendGridDispatcher{cfg: cfg}
}

// Configured reports whether both the API key and the sender are set
func (d *SendGridDispatcher) Configured() bool {
	return d.cfg.APIKey != "" && d.cfg.From != ""
}

// Sender returns the configured from address
func (d *SendGridDispatcher) Sender() string {
	return d.cfg.From
}

func (d *SendGridDispatcher) Send(ctx context.Context, msg domain.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.NotificationError{Recipient: msg.Recipient, Err: fmt.Errorf("panic during send: %v", r)}
		}
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		metrics.ProviderRequests.WithLabelValues(outcome).Inc()
		logger.ExternalServiceResult("sendgrid", "mail.send", err, "recipient", msg.Recipient)
	}()

	if d.cfg.APIKey == "" {
		return &domain.NotificationError{Recipient: msg.Recipient, Err: fmt.Errorf("%w: api key missing", ErrNotConfigured)}
	}
	if d.cfg.From == "" {
		return &domain.NotificationError{Recipient: msg.Recipient, Err: fmt.Errorf("%w: sender missing", ErrNotConfigured)}
	}

	request := sendgrid.GetRequest(d.cfg.APIKey, sendEndpoint, d.cfg.Host)
	request.Method = rest.Post
	request.Body = mail.GetRequestBody(buildMail(d.cfg.From, msg))

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	logger.ExternalServiceCall("sendgrid", "mail.send", "recipient", msg.Recipient)
	resp, err := sendgrid.MakeRequestWithContext(ctx, request)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = ErrTimeout
		}
		return &domain.NotificationError{Recipient: msg.Recipient, Err: err}
	}

	switch resp.StatusCode {
	case 200, 202:
		return nil
	default:
		return &domain.NotificationError{
			Recipient:  msg.Recipient,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", truncate(resp.Body, 200)),
		}
	}
}

// buildMail renders the v3 body: subject on the personalization, a single text/plain content
func buildMail(from string, msg domain.Message) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail("", from))

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", msg.Recipient))
	p.Subject = msg.Subject
	m.AddPersonalizations(p)

	m.AddContent(mail.NewContent("text/plain", msg.Body))
	return m
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
