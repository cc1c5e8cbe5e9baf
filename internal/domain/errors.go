package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("membership request not found")
	ErrInvalidStatus = errors.New("invalid status")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNoRecipients  = errors.New("no valid recipient found")
)

// ValidationError reports the first rejected field of a submission.
// Reason is shown to the submitter as-is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// PersistenceError wraps a storage or database fault
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NotificationError reports a failed email delivery attempt
type NotificationError struct {
	Recipient  string
	StatusCode int
	Err        error
}

func (e *NotificationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("notification to %s failed with status %d: %v", e.Recipient, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("notification to %s failed: %v", e.Recipient, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}
