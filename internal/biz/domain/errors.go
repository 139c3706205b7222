package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrMalformedConversation is returned for snapshots missing required fields
	ErrMalformedConversation = errors.New("malformed conversation")

	// ErrPassInProgress is returned when a pass is triggered while another one runs
	ErrPassInProgress = errors.New("pipeline pass already in progress")

	// ErrPendingNotFound is returned for unknown pending reply IDs
	ErrPendingNotFound = errors.New("pending reply not found")

	// ErrAlreadyReplied is returned when approving a draft whose inbound message was already answered
	ErrAlreadyReplied = errors.New("message already replied to")

	// ErrSendRejected is returned when the client reports an unsuccessful send
	ErrSendRejected = errors.New("send not confirmed by client")
)

// BackendError wraps a completion backend failure with its HTTP status, if any.
// StatusCode is 0 for transport level failures.
type BackendError struct {
	StatusCode int
	Err        error
}

func (e *BackendError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("completion backend: %v", e.Err)
	}
	return fmt.Sprintf("completion backend: status %d: %v", e.StatusCode, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt may succeed
func (e *BackendError) Retryable() bool {
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == 408, e.StatusCode == 409, e.StatusCode == 425, e.StatusCode == 429:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// IsTransient classifies an error returned by a completion backend.
// Unknown errors are treated as transient; only explicit client errors are fatal.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be.Retryable()
	}
	// Timeouts, resets and anything else not carrying a status are worth another try.
	return true
}
