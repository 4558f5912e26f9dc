package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// AppError is the unified execkit error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
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

// Is matches another *AppError by code, so errors.Is(err, &AppError{Code: c}) works.
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

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// --- Constructors ---

// MissingVariable creates an AppError for a placeholder absent from the substitution map.
func MissingVariable(name string) *AppError {
	return &AppError{
		Code: ErrCodeMissingVariable, Message: fmt.Sprintf("no value for variable ${%s}", name),
		Details: map[string]any{"variable": name},
	}
}

// MalformedCommand creates an AppError for a command line that cannot be built.
func MalformedCommand(reason string) *AppError {
	return &AppError{Code: ErrCodeMalformedCommand, Message: reason}
}

// SpawnFailure creates an AppError for a process the operating system could not start.
func SpawnFailure(executable string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeSpawnFailure, Message: fmt.Sprintf("cannot start %s", executable),
		Details: map[string]any{"executable": executable}, Cause: cause,
	}
}

// UnacceptableExitCode creates an AppError for a process that exited with an unexpected code.
func UnacceptableExitCode(exitCode int) *AppError {
	return &AppError{
		Code: ErrCodeUnacceptableExitCode, Message: fmt.Sprintf("process exited with code %d", exitCode),
		Details: map[string]any{"exit_code": exitCode},
	}
}

// WatchdogTermination creates an AppError for a process killed after exceeding timeout.
func WatchdogTermination(timeout time.Duration) *AppError {
	return &AppError{
		Code: ErrCodeWatchdogTermination, Message: fmt.Sprintf("process killed after exceeding timeout of %s", timeout),
		Details: map[string]any{"timeout": timeout.String()},
	}
}

// Canceled creates an AppError for an execution the caller terminated early.
func Canceled(cause error) *AppError {
	return &AppError{Code: ErrCodeCanceled, Message: "execution canceled", Cause: cause}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason), Details: details}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		Details: details,
	}
}

// Unavailable creates a new AppError for work rejected at capacity.
func Unavailable(message string) *AppError {
	return &AppError{Code: ErrCodeUnavailable, Message: message}
}

// RateLimited creates a new AppError for a refused submission.
func RateLimited(retryAfter time.Duration) *AppError {
	return &AppError{
		Code: ErrCodeRateLimited, Message: "too many submissions",
		Details: map[string]any{"retry_after": retryAfter.String()},
	}
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: "An unexpected error occurred.", Cause: cause}
}

// Wrap converts any error into an AppError. AppErrors anywhere in the chain
// are returned as-is; anything else becomes INTERNAL_ERROR.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}

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

// CodeOf returns the code of the first AppError in err's chain, or "" when there is none.
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
