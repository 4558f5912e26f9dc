package process

import "time"

// Result holds the output and status of a completed subprocess.
type Result struct {
	// ExecutionID identifies the run in logs and traces.
	ExecutionID string
	// Argv is the resolved executable and arguments.
	Argv []string
	// Stdout is the captured standard output.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
	// ExitCode is the process exit code. -1 if the process never started.
	ExitCode int
	// KilledByWatchdog is set when the process outlived its timeout.
	KilledByWatchdog bool
	// Duration is how long the process ran.
	Duration time.Duration
}
