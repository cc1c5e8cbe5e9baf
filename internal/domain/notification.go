package domain

import "time"

// Message is a single plain-text email to one recipient
type Message struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

type NotificationState string

const (
	NotificationStateQueued NotificationState = "queued"
	NotificationStateSent   NotificationState = "sent"
	NotificationStateDead   NotificationState = "dead"
)

// NotificationJob is the durable record of a queued message
type NotificationJob struct {
	ID        string            `json:"id"`
	Message   Message           `json:"message"`
	State     NotificationState `json:"state"`
	Attempts  int               `json:"attempts"`
	LastError string            `json:"last_error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
