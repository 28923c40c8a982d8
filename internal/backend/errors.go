package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured means the backend URL is missing. Fatal at startup.
	ErrNotConfigured = errors.New("backend: url not configured")
	// ErrMissingURL means the resolver response had no url field.
	ErrMissingURL = errors.New("backend: response is missing url")
	// ErrNotFound means a point read matched no row.
	ErrNotFound = errors.New("backend: record not found")
)

// StatusError is a non-2xx response, kept with enough context to surface to
// the caller.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: unexpected status %d: %s", e.Status, e.Body)
}

// Creation error kinds, so the UI can show an actionable message.
const (
	CreationNetwork  = "network"
	CreationTimeout  = "timeout"
	CreationRejected = "rejected"
)

// CreationError distinguishes how a generation request failed.
type CreationError struct {
	Kind    string
	Message string
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("backend: creation failed (%s): %s", e.Kind, e.Message)
}
