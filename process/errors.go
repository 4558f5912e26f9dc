package process

import (
	stderrors "errors"
	"fmt"

	"github.com/kbukum/execkit/errors"
)

// ExecuteError is returned for every failed execution.
type ExecuteError struct {
	// ExitCode is the process exit code, or -1 when the process never ran.
	ExitCode int
	// KilledByWatchdog is set when the watchdog terminated the process.
	KilledByWatchdog bool
	// Err carries the machine-readable code and details.
	Err *errors.AppError
}

func (e *ExecuteError) Error() string {
	if e.ExitCode < 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s (exit code %d)", e.Err.Error(), e.ExitCode)
}

func (e *ExecuteError) Unwrap() error { return e.Err }

// ExitStatus returns the exit code carried by the error.
func (e *ExecuteError) ExitStatus() int { return e.ExitCode }

// Killed reports whether the watchdog terminated the process.
func (e *ExecuteError) Killed() bool { return e.KilledByWatchdog }

func newExecuteError(code int, killed bool, err error) *ExecuteError {
	return &ExecuteError{ExitCode: code, KilledByWatchdog: killed, Err: errors.Wrap(err)}
}

// KilledByWatchdog reports whether err describes a watchdog kill.
func KilledByWatchdog(err error) bool {
	var ee *ExecuteError
	return stderrors.As(err, &ee) && ee.KilledByWatchdog
}

// ExitCodeOf returns the exit code carried by err, 0 for a nil error, or -1
// when there is none.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExecuteError
	if stderrors.As(err, &ee) {
		return ee.ExitCode
	}
	return -1
}
