package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Command construction errors
const (
	// ErrCodeMissingVariable indicates a ${name} placeholder has no entry in the substitution map.
	ErrCodeMissingVariable ErrorCode = "MISSING_VARIABLE"
	// ErrCodeMalformedCommand indicates unbalanced quoting or an empty executable.
	ErrCodeMalformedCommand ErrorCode = "MALFORMED_COMMAND"
)

// Execution errors
const (
	// ErrCodeSpawnFailure indicates the operating system could not start the process.
	ErrCodeSpawnFailure ErrorCode = "SPAWN_FAILURE"
	// ErrCodeUnacceptableExitCode indicates the process exited with a code outside the accepted set.
	ErrCodeUnacceptableExitCode ErrorCode = "UNACCEPTABLE_EXIT_CODE"
	// ErrCodeWatchdogTermination indicates the process was killed for exceeding its timeout.
	ErrCodeWatchdogTermination ErrorCode = "WATCHDOG_TERMINATION"
	// ErrCodeCanceled indicates the caller canceled the execution and the process was killed.
	ErrCodeCanceled ErrorCode = "CANCELED"
)

// Request errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeUnavailable indicates the service cannot accept more work right now.
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE"
	// ErrCodeRateLimited indicates submissions arrive faster than allowed.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// executionCodes are the codes produced after a process was started.
var executionCodes = map[ErrorCode]bool{
	ErrCodeUnacceptableExitCode: true,
	ErrCodeWatchdogTermination:  true,
	ErrCodeCanceled:             true,
}

// IsExecutionCode reports whether code describes a process that ran, as
// opposed to one that was never started.
func IsExecutionCode(code ErrorCode) bool {
	return executionCodes[code]
}
