package schedule

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced task does not exist.
	ErrNotFound = errors.New("task not found")
	// ErrStaleVersion is returned when the caller's base version no longer
	// matches the stored version. The concrete error is a *ConflictError.
	ErrStaleVersion = errors.New("stale task version")
	// ErrSetMismatch is returned when a proposed ordering does not contain
	// exactly the tasks currently in the list. The concrete error is a
	// *SetMismatchError.
	ErrSetMismatch = errors.New("ordering does not match list membership")
	// ErrMalformedInput is returned for structurally invalid requests.
	ErrMalformedInput = errors.New("malformed input")
	// ErrInvalidTransition is returned for an illegal pending-edit transition.
	ErrInvalidTransition = errors.New("invalid edit transition")
)

// ConflictError reports an optimistic lock failure. Current is the stored
// snapshot at the time the conflict was detected; its Version is the base a
// caller must submit to overwrite.
type ConflictError struct {
	Current     Task
	BaseVersion int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("task %d: base version %d is stale (current version %d)",
		e.Current.ID, e.BaseVersion, e.Current.Version)
}

func (e *ConflictError) Unwrap() error { return ErrStaleVersion }

// SetMismatchError describes how a proposed ordering differs from the list.
type SetMismatchError struct {
	Date       Date
	Missing    []int64 // in the list but not in the proposal
	Unexpected []int64 // in the proposal but not in the list
	Detail     string
}

func (e *SetMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing %v", e.Missing))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, fmt.Sprintf("unexpected %v", e.Unexpected))
	}
	if e.Detail != "" {
		parts = append(parts, e.Detail)
	}
	return fmt.Sprintf("ordering for %s does not match list: %s", e.Date, strings.Join(parts, ", "))
}

func (e *SetMismatchError) Unwrap() error { return ErrSetMismatch }

// MalformedError returns an error wrapping ErrMalformedInput.
func MalformedError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, fmt.Sprintf(format, args...))
}
