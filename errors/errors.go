// Package errors provides the error taxonomy for spawning and reaping child
// processes. Every failure carries a machine-readable code, a numeric status
// from a range disjoint from process exit codes, and retryable detection.
package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified error type returned by procspawn packages.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Status is the numeric outcome: the child's exit code for EXIT_NON_ZERO,
	// otherwise a reserved value >= 10000.
	Status int `json:"status"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is matches another *AppError by code, so sentinel-style comparisons work:
//
//	errors.Is(err, &AppError{Code: ErrCodeWaitSignaled})
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable and status detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
		Status:    StatusForCode(code),
	}
}

// --- Launch ---

// PipeFailed creates a new AppError for a pipe that could not be created for stream.
func PipeFailed(stream string, cause error) *AppError {
	return New(ErrCodePipeFailed, fmt.Sprintf("cannot create pipe for %s", stream)).
		WithDetail("stream", stream).
		WithCause(cause)
}

// ForkFailed creates a new AppError for a process that could not be created.
func ForkFailed(program string, cause error) *AppError {
	return New(ErrCodeForkFailed, fmt.Sprintf("cannot fork %s", program)).
		WithDetail("program", program).
		WithCause(cause)
}

// ExecFailed creates a new AppError for a program that could not be executed.
func ExecFailed(program string, cause error) *AppError {
	return New(ErrCodeExecFailed, fmt.Sprintf("exec %s failed", program)).
		WithDetail("program", program).
		WithCause(cause)
}

// --- Join ---

// WaitFailed creates a new AppError for a failed wait call.
func WaitFailed(pid int, cause error) *AppError {
	return New(ErrCodeWaitFailed, fmt.Sprintf("waitpid %d failed", pid)).
		WithDetail("pid", pid).
		WithCause(cause)
}

// WaitWrongChild creates a new AppError for wait returning an unexpected process.
func WaitWrongChild(want, got int) *AppError {
	return New(ErrCodeWaitWrongChild, fmt.Sprintf("waitpid %d returned pid %d", want, got)).
		WithDetails(map[string]any{"pid": want, "got_pid": got})
}

// WaitSignaled creates a new AppError for a child killed by a signal.
func WaitSignaled(pid int, signal string) *AppError {
	return New(ErrCodeWaitSignaled, fmt.Sprintf("process %d died of signal %s", pid, signal)).
		WithDetails(map[string]any{"pid": pid, "signal": signal})
}

// WaitNoExit creates a new AppError for a child that stopped without exiting.
func WaitNoExit(pid int) *AppError {
	return New(ErrCodeWaitNoExit, fmt.Sprintf("process %d did not exit normally", pid)).
		WithDetail("pid", pid)
}

// ExitNonZero creates a new AppError for a child that exited with code.
func ExitNonZero(pid, code int) *AppError {
	e := New(ErrCodeExitNonZero, fmt.Sprintf("process %d exited with code %d", pid, code)).
		WithDetails(map[string]any{"pid": pid, "exit_code": code})
	e.Status = code
	return e
}

// AsyncWaitFailed creates a new AppError for an async producer that did not
// finish successfully. The underlying wait outcome is kept only as text.
func AsyncWaitFailed(producer string, reason error) *AppError {
	e := New(ErrCodeAsyncWaitFailed, fmt.Sprintf("waitpid (async %s) failed", producer)).
		WithDetail("producer", producer)
	if reason != nil {
		e.WithDetail("reason", reason.Error())
	}
	return e
}

// --- Configuration ---

// InvalidCommand creates a new AppError for an unusable command description.
func InvalidCommand(reason string) *AppError {
	return New(ErrCodeInvalidCommand, reason)
}

// Validation creates a new AppError for configuration validation errors.
func Validation(message string) *AppError {
	return New(ErrCodeConfigInvalid, message)
}

// --- Inspection ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsRetryable reports whether err is an AppError marked retryable.
func IsRetryable(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Retryable
}

// StatusOf maps err to a single integer: 0 for nil, the child's exit code for
// EXIT_NON_ZERO, the reserved status for other AppErrors, and StatusExecFailed
// for foreign errors.
func StatusOf(err error) int {
	if err == nil {
		return 0
	}
	if appErr, ok := AsAppError(err); ok && appErr.Status != 0 {
		return appErr.Status
	}
	return StatusExecFailed
}
