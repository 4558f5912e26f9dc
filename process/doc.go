// Package process runs external programs built with the command package.
//
// An Executor resolves a command.Line, spawns it through a Launcher, arms a
// watchdog when a timeout is configured, waits for the exit, classifies the
// exit code against the accepted set, and reports the outcome either as a
// return value (Execute, Run) or through a result.Handler (ExecuteAsync).
//
//	exec := process.New(
//	    process.WithExitValue(1),
//	    process.WithTimeout(time.Minute),
//	)
//	code, err := exec.Execute(ctx, line)
//	if process.KilledByWatchdog(err) {
//	    // too slow, not wrong
//	}
//
// Every failure is an *ExecuteError wrapping an *errors.AppError, so
// errors.CodeOf(err) yields SPAWN_FAILURE, UNACCEPTABLE_EXIT_CODE,
// WATCHDOG_TERMINATION and so on.
package process
