package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Command failures, invariant violations, failed scenarios, non-deterministic replay
	ExitCommandError = 2 // Bad input (unreadable files, missing database, invalid flags)
)

// Error codes reported in JSON responses.
const (
	CodeCommandFailed = "E_COMMAND"
	CodeInvariant     = "E_INVARIANT"
	CodeDeterminism   = "E_DETERMINISM"
	CodeScenario      = "E_SCENARIO"
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the JSON envelope written by every command in json format.
type Response struct {
	Status string         `json:"status"` // "ok" or "error"
	Data   any            `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

// ResponseError describes why a command reported failure.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Output writes command results as text or JSON.
type Output struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; keeps JSON on Writer clean
	Verbose   bool
}

// Emit writes data. In text format the text callback renders it.
func (o *Output) Emit(data any, text func(w io.Writer)) error {
	if o.Format == "json" {
		return o.encode(Response{Status: "ok", Data: data})
	}
	text(o.Writer)
	return nil
}

// Fail writes data like Emit, marks the response as failed and returns an
// ExitError with ExitFailure.
func (o *Output) Fail(code, message string, data any, text func(w io.Writer)) error {
	if o.Format == "json" {
		err := o.encode(Response{
			Status: "error",
			Data:   data,
			Error:  &ResponseError{Code: code, Message: message},
		})
		if err != nil {
			return err
		}
	} else {
		text(o.Writer)
	}
	return NewExitError(ExitFailure, message)
}

// Verbosef writes a diagnostic line when verbose output is on.
func (o *Output) Verbosef(format string, args ...any) {
	if !o.Verbose {
		return
	}
	w := o.ErrWriter
	if w == nil {
		w = o.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

func (o *Output) encode(resp Response) error {
	enc := json.NewEncoder(o.Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}
