package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/chatdom/internal/transcript"
)

// ErrStopped is returned by Submit after the engine has stopped.
var ErrStopped = errors.New("engine stopped")

// RuntimeError is a command failure detected by the engine.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Seq is the logical position of the failed command, 0 if unassigned.
	Seq int64

	// Kind is the command kind.
	Kind string

	// Violations lists broken invariants for ErrCodeInvariant.
	Violations []transcript.Violation

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeInvalidCommand indicates an unknown kind or a missing field.
	ErrCodeInvalidCommand RuntimeErrorCode = "INVALID_COMMAND"

	// ErrCodeParse indicates malformed markup or an invalid selector.
	ErrCodeParse RuntimeErrorCode = "PARSE_ERROR"

	// ErrCodeLayout indicates a group whose layout could not be determined.
	ErrCodeLayout RuntimeErrorCode = "AMBIGUOUS_LAYOUT"

	// ErrCodeNoPlaceholder indicates a promotion shell without a placeholder.
	ErrCodeNoPlaceholder RuntimeErrorCode = "NO_PLACEHOLDER"

	// ErrCodeUnresolved indicates an event target with no message ancestor.
	ErrCodeUnresolved RuntimeErrorCode = "UNRESOLVED_TARGET"

	// ErrCodeInvariant indicates the tree broke an invariant after a command.
	ErrCodeInvariant RuntimeErrorCode = "INVARIANT_VIOLATED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := e.Message
	if len(e.Violations) > 0 {
		parts := make([]string, len(e.Violations))
		for i, v := range e.Violations {
			parts[i] = v.String()
		}
		msg += ": " + strings.Join(parts, "; ")
	}
	if e.Seq != 0 {
		return fmt.Sprintf("%s: %s (seq=%d, kind=%s)", e.Code, msg, e.Seq, e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsInvariantError reports whether err is an invariant violation.
func IsInvariantError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeInvariant
	}
	return false
}

// ErrorCode returns the code of a RuntimeError in err's chain, or "".
func ErrorCode(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// classify wraps an error returned by a transcript operation.
func classify(seq int64, kind string, err error) *RuntimeError {
	code := ErrCodeParse
	switch {
	case errors.Is(err, transcript.ErrAmbiguousLayout):
		code = ErrCodeLayout
	case errors.Is(err, transcript.ErrNoPlaceholder):
		code = ErrCodeNoPlaceholder
	case errors.Is(err, transcript.ErrNoMessageAncestor):
		code = ErrCodeUnresolved
	}
	return &RuntimeError{
		Code:    code,
		Message: err.Error(),
		Seq:     seq,
		Kind:    kind,
		Err:     err,
	}
}

// newInvariantError reports the violations found after a command.
func newInvariantError(seq int64, kind string, violations []transcript.Violation) *RuntimeError {
	return &RuntimeError{
		Code:       ErrCodeInvariant,
		Message:    fmt.Sprintf("%d invariant violations", len(violations)),
		Seq:        seq,
		Kind:       kind,
		Violations: violations,
	}
}
