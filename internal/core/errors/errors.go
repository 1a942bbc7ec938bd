// Package errors holds the sentinel errors shared across packages. Wrap them
// with fmt.Errorf("...: %w", ErrX) and test with errors.Is.
package errors

import "errors"

// Channel resolution errors.
var (
	// ErrChannelUnresolvable indicates a channel key could not be resolved to a live channel.
	ErrChannelUnresolvable = errors.New("channel unresolvable")

	// ErrNotAChannel indicates the resolved peer is not a channel.
	ErrNotAChannel = errors.New("entity is not a channel")
)

// Reference data errors.
var (
	// ErrDanglingDrugReference indicates an argot term points at a drug id that does not exist.
	ErrDanglingDrugReference = errors.New("argot references missing drug")

	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")
)

// Persistence errors.
var (
	// ErrDuplicate indicates a record with the same natural key already exists.
	ErrDuplicate = errors.New("duplicate record")
)

// Session errors.
var (
	// ErrManagerClosed indicates the session manager no longer accepts work.
	ErrManagerClosed = errors.New("session manager closed")

	// ErrManagerNotStarted indicates the session loop was never started.
	ErrManagerNotStarted = errors.New("session manager not started")

	// ErrTaskPanicked indicates a scheduled task panicked; the panic value is in the message.
	ErrTaskPanicked = errors.New("session task panicked")

	// ErrUnsupportedMedia indicates an attachment handle the session cannot download.
	ErrUnsupportedMedia = errors.New("unsupported media")
)

// Response and parsing errors.
var (
	// ErrEmptyResponse indicates an empty response was received.
	ErrEmptyResponse = errors.New("empty response")

	// ErrUnexpectedType indicates an unexpected type was encountered.
	ErrUnexpectedType = errors.New("unexpected type")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates configuration failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
