package process

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"slices"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/execkit/errors"
	"github.com/kbukum/execkit/logger"
	"github.com/kbukum/execkit/observability"
	"github.com/kbukum/execkit/result"
	"github.com/kbukum/execkit/watchdog"
)

// ErrTerminated is the cancellation cause when Terminate ends an execution.
var ErrTerminated = stderrors.New("terminated on request")

// Execution is one running process.
type Execution struct {
	id        string
	argv      []string
	executor  *Executor
	handle    Handle
	watchdog  *watchdog.Watchdog
	ctx       context.Context
	span      trace.Span
	log       *logger.Logger
	startedAt time.Time
	duration  time.Duration
	notifier  *result.Notifier

	terminated atomic.Bool
}

// ID returns the execution identifier used in logs and traces.
func (x *Execution) ID() string { return x.id }

// Pid returns the operating system process id.
func (x *Execution) Pid() int { return x.handle.Pid() }

// Argv returns the resolved executable and arguments.
func (x *Execution) Argv() []string { return slices.Clone(x.argv) }

// StartedAt returns the spawn time.
func (x *Execution) StartedAt() time.Time { return x.startedAt }

// Result returns the read side of the outcome.
func (x *Execution) Result() result.Consumer { return x.notifier }

// Done is closed once the outcome is available.
func (x *Execution) Done() <-chan struct{} { return x.notifier.Done() }

// Duration returns the run time once the outcome is available, else zero.
func (x *Execution) Duration() time.Duration {
	select {
	case <-x.Done():
		return x.duration
	default:
		return 0
	}
}

// Terminate kills the process with the same forced kill a watchdog expiry
// uses. The outcome fails with CANCELED; it is not counted as a watchdog
// kill. Terminating a finished execution does nothing.
func (x *Execution) Terminate() error {
	if x.notifier.HasResult() {
		return nil
	}
	x.terminated.Store(true)

	// The handle, not the watchdog: a shared watchdog may already be bound
	// to another execution once this one has exited.
	if err := x.handle.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func (x *Execution) timeout() time.Duration {
	if x.watchdog == nil {
		return 0
	}
	return x.watchdog.Timeout()
}

// run waits for the process and delivers the outcome.
func (x *Execution) run() {
	stop := context.AfterFunc(x.ctx, func() {
		if err := x.Terminate(); err != nil {
			x.log.Warn("failed to kill canceled process", logger.ErrorFields("cancel", err))
		}
	})
	code, waitErr := x.handle.Wait()
	stop()
	// Read the kill flag before Stop releases the watchdog for reuse.
	killed := false
	if x.watchdog != nil {
		killed = x.watchdog.KilledProcess()
		x.watchdog.Stop()
	}
	x.duration = time.Since(x.startedAt)

	o := x.classify(code, waitErr, killed)

	executable := x.argv[0]
	ctx := context.WithoutCancel(x.ctx)
	if o.KilledByWatchdog {
		x.executor.metrics.WatchdogKill(ctx, x.watchdog.Timeout())
	}
	x.executor.metrics.ExecutionFinished(ctx, executable, observability.StatusOf(o.Err), true, x.duration)
	observability.EndExecutionSpan(x.span, o.ExitCode, o.KilledByWatchdog, o.Err)
	x.log.Debug("process exited", logger.MergeWithDuration(logger.Fields(
		logger.FieldExitCode, code,
		logger.FieldKilled, o.KilledByWatchdog,
	), x.duration))

	_ = x.notifier.Deliver(o)
}

func (x *Execution) classify(code int, waitErr error, killed bool) result.Outcome {
	var err *ExecuteError
	switch {
	case killed:
		err = newExecuteError(code, true, errors.WatchdogTermination(x.watchdog.Timeout()))
	case x.terminated.Load():
		cause := ErrTerminated
		if x.ctx.Err() != nil {
			cause = context.Cause(x.ctx)
		}
		err = newExecuteError(code, false, errors.Canceled(cause))
	case waitErr != nil:
		err = newExecuteError(code, false, errors.Internal(fmt.Errorf("waiting for process: %w", waitErr)))
	case x.executor.IsFailure(code):
		err = newExecuteError(code, false, errors.UnacceptableExitCode(code))
	}

	if err == nil {
		return result.Outcome{ExitCode: code}
	}
	return result.Outcome{ExitCode: code, Err: err, KilledByWatchdog: err.KilledByWatchdog}
}
