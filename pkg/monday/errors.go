package monday

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrAuthentication indicates a missing or rejected API token. The client
// fails fast before any page request when the token is absent, and never
// retries a 401/403.
var ErrAuthentication = errors.New("monday: authentication failed")

// PaginationExhaustedError is returned when a board keeps reporting more
// pages past the configured fail-safe bound. It is fatal for the fetch but
// must never crash the serving process.
type PaginationExhaustedError struct {
	Board string
	Pages int
}

func (e *PaginationExhaustedError) Error() string {
	return fmt.Sprintf("monday: pagination bound exceeded for board %s after %d pages", e.Board, e.Pages)
}

// APIError describes a failed request against the Monday API, identifying
// the board and the cursor position reached so partial progress is visible
// in diagnostics.
type APIError struct {
	Board      string
	Cursor     string
	StatusCode int
	Message    string
	transient  bool
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("monday: request failed for board %s", e.Board)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Cursor != "" {
		msg += fmt.Sprintf(" at cursor %s", e.Cursor)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Transient reports whether the failure was a network error or 5xx/429
// response, i.e. a candidate for bounded retry of the idempotent read.
func (e *APIError) Transient() bool {
	return e.transient
}

// IsTransient reports whether err wraps a transient APIError.
func IsTransient(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Transient()
}
