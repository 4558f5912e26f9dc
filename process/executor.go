package process

import (
	"bytes"
	"context"
	"io"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/execkit/command"
	"github.com/kbukum/execkit/config"
	"github.com/kbukum/execkit/errors"
	"github.com/kbukum/execkit/logger"
	"github.com/kbukum/execkit/observability"
	"github.com/kbukum/execkit/result"
	"github.com/kbukum/execkit/watchdog"
)

const defaultWaitDelay = 2 * time.Second

// Executor spawns and supervises external processes. Its configuration is
// fixed at construction, so one Executor may run many executions
// concurrently (unless it shares a single watchdog).
type Executor struct {
	dir        string
	env        map[string]string
	inheritEnv bool
	exitValues []int
	watchdog   *watchdog.Watchdog
	timeout    time.Duration
	waitDelay  time.Duration

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	launcher Launcher
	log      *logger.Logger
	metrics  *observability.ExecutionMetrics
}

// New creates an Executor. By default only exit code 0 is accepted, the
// environment is inherited, and no timeout is enforced.
func New(opts ...Option) *Executor {
	e := &Executor{
		inheritEnv: true,
		exitValues: []int{0},
		waitDelay:  defaultWaitDelay,
		launcher:   OSLauncher{},
		log:        logger.Get("executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewFromConfig creates an Executor from configuration; opts are applied
// after the configured values.
func NewFromConfig(cfg config.ExecutorConfig, opts ...Option) *Executor {
	return New(append(FromConfig(cfg), opts...)...)
}

// IsFailure reports whether code falls outside the accepted exit values.
func (e *Executor) IsFailure(code int) bool {
	if e.exitValues == nil {
		return false
	}
	return !slices.Contains(e.exitValues, code)
}

// ExitValues returns the accepted exit codes, or nil if any code is accepted.
func (e *Executor) ExitValues() []int {
	return slices.Clone(e.exitValues)
}

// Execute runs line and blocks until it exits. It returns the exit code, and
// an *ExecuteError when the process could not start, exited with an
// unaccepted code, was killed by the watchdog, or was canceled through ctx.
func (e *Executor) Execute(ctx context.Context, line *command.Line) (int, error) {
	x, err := e.start(ctx, line, e.stdin, e.stdout, e.stderr)
	if err != nil {
		return ExitCodeOf(err), err
	}
	x.run()
	return x.notifier.Wait()
}

// ExecuteAsync starts line and returns once the process is running. The
// outcome is delivered to h exactly once from a background goroutine. If the
// process cannot be started, h.OnFailure receives the same error that is
// returned. ctx bounds the lifetime of the process.
func (e *Executor) ExecuteAsync(ctx context.Context, line *command.Line, h result.Handler) error {
	if h == nil {
		return newExecuteError(-1, false, errors.InvalidInput("handler", "result handler is required"))
	}
	x, err := e.Start(ctx, line)
	if err != nil {
		h.OnFailure(err)
		return err
	}
	x.notifier.Observe(result.Forward(h))
	return nil
}

// Start spawns line and supervises it in the background. The returned
// Execution exposes the outcome and early termination.
func (e *Executor) Start(ctx context.Context, line *command.Line) (*Execution, error) {
	x, err := e.start(ctx, line, e.stdin, e.stdout, e.stderr)
	if err != nil {
		return nil, err
	}
	go x.run()
	return x, nil
}

// Run executes line and captures its output. The configured stdout and
// stderr writers are replaced by buffers for this call.
func (e *Executor) Run(ctx context.Context, line *command.Line) (*Result, error) {
	var stdout, stderr bytes.Buffer
	x, err := e.start(ctx, line, e.stdin, &stdout, &stderr)
	if err != nil {
		return nil, err
	}
	x.run()

	o, _ := x.notifier.Outcome()
	return &Result{
		ExecutionID:      x.id,
		Argv:             x.argv,
		Stdout:           stdout.Bytes(),
		Stderr:           stderr.Bytes(),
		ExitCode:         o.ExitCode,
		KilledByWatchdog: o.KilledByWatchdog,
		Duration:         x.duration,
	}, o.Err
}

func (e *Executor) start(ctx context.Context, line *command.Line, stdin io.Reader, stdout, stderr io.Writer) (*Execution, error) {
	if line == nil {
		return nil, newExecuteError(-1, false, errors.InvalidInput("command", "command line is required"))
	}
	if err := ctx.Err(); err != nil {
		return nil, newExecuteError(-1, false, errors.Canceled(err))
	}

	argv, err := line.Argv()
	if err != nil {
		return nil, newExecuteError(-1, false, err)
	}
	if argv[0] == "" {
		return nil, newExecuteError(-1, false, errors.MalformedCommand("executable is empty"))
	}

	id := uuid.NewString()
	log := e.log.WithExecution(id, argv[0])
	ctx, span := observability.StartExecutionSpan(ctx, id, argv[0], argv[1:])

	spec := Spec{
		Executable: argv[0],
		Args:       argv[1:],
		Dir:        e.dir,
		Env:        e.environ(),
		Stdin:      stdin,
		Stdout:     stdout,
		Stderr:     stderr,
		WaitDelay:  e.waitDelay,
	}

	startedAt := time.Now()
	h, err := e.launcher.Launch(ctx, spec)
	if err != nil {
		xerr := newExecuteError(-1, false, errors.SpawnFailure(argv[0], err))
		observability.EndExecutionSpan(span, -1, false, xerr)
		e.metrics.ExecutionFinished(ctx, argv[0], observability.StatusSpawnFailed, false, time.Since(startedAt))
		log.Error("failed to start process", logger.ErrorFields("spawn", err))
		return nil, xerr
	}
	e.metrics.ExecutionStarted(ctx)

	x := &Execution{
		id:        id,
		argv:      argv,
		executor:  e,
		handle:    h,
		ctx:       ctx,
		span:      span,
		log:       log,
		startedAt: startedAt,
		notifier:  result.NewNotifier(),
	}

	wd := e.watchdog
	if wd == nil && e.timeout > 0 {
		wd = watchdog.New(e.timeout, watchdog.WithLogger(log))
	}
	if wd != nil {
		if err := wd.Start(h); err != nil {
			_ = h.Kill()
			_, _ = h.Wait()
			xerr := newExecuteError(-1, false, err)
			observability.EndExecutionSpan(span, -1, false, xerr)
			e.metrics.ExecutionFinished(ctx, argv[0], observability.StatusFailed, true, time.Since(startedAt))
			log.Error("failed to arm watchdog", logger.ErrorFields("watchdog", err))
			return nil, xerr
		}
		x.watchdog = wd
	}

	x.notifier.Observe(result.LogObserver(log))
	log.Debug("process started", logger.Fields(
		logger.FieldPID, h.Pid(),
		logger.FieldArguments, argv[1:],
		logger.FieldTimeout, x.timeout().String(),
	))
	return x, nil
}

// environ builds the child environment. Overrides are appended after the
// inherited variables; os/exec keeps the last value for duplicate keys.
func (e *Executor) environ() []string {
	if len(e.env) == 0 {
		if e.inheritEnv {
			return nil
		}
		return []string{}
	}

	var env []string
	if e.inheritEnv {
		env = os.Environ()
	}
	for _, k := range slices.Sorted(maps.Keys(e.env)) {
		env = append(env, k+"="+e.env[k])
	}
	return env
}
