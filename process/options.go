package process

import (
	"io"
	"time"

	"github.com/kbukum/execkit/config"
	"github.com/kbukum/execkit/logger"
	"github.com/kbukum/execkit/observability"
	"github.com/kbukum/execkit/watchdog"
)

// Option configures an Executor.
type Option func(*Executor)

// WithDir sets the working directory of spawned processes.
func WithDir(dir string) Option {
	return func(e *Executor) { e.dir = dir }
}

// WithEnv adds or overrides environment variables for spawned processes.
func WithEnv(env map[string]string) Option {
	return func(e *Executor) {
		if e.env == nil {
			e.env = make(map[string]string, len(env))
		}
		for k, v := range env {
			e.env[k] = v
		}
	}
}

// WithoutInheritedEnv starts processes with only the WithEnv variables.
func WithoutInheritedEnv() Option {
	return func(e *Executor) { e.inheritEnv = false }
}

// WithExitValue accepts exactly one exit code as success.
func WithExitValue(code int) Option {
	return func(e *Executor) { e.exitValues = []int{code} }
}

// WithExitValues sets the accepted exit codes. A nil slice accepts every code.
func WithExitValues(codes []int) Option {
	return func(e *Executor) {
		if codes == nil {
			e.exitValues = nil
			return
		}
		e.exitValues = append([]int{}, codes...)
	}
}

// WithWatchdog shares one watchdog across executions. A shared watchdog
// watches a single process at a time; a concurrent execution fails.
func WithWatchdog(wd *watchdog.Watchdog) Option {
	return func(e *Executor) { e.watchdog = wd }
}

// WithTimeout arms a fresh watchdog for every execution. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

// WithStreams connects the child's standard streams. Nil streams are
// attached to the null device.
func WithStreams(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(e *Executor) {
		e.stdin = stdin
		e.stdout = stdout
		e.stderr = stderr
	}
}

// WithLauncher replaces the OS launcher.
func WithLauncher(l Launcher) Option {
	return func(e *Executor) { e.launcher = l }
}

// WithLogger sets the executor logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics records execution metrics.
func WithMetrics(m *observability.ExecutionMetrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithWaitDelay bounds output copying after the process exits or is killed.
func WithWaitDelay(d time.Duration) Option {
	return func(e *Executor) { e.waitDelay = d }
}

// FromConfig translates executor configuration into options.
func FromConfig(cfg config.ExecutorConfig) []Option {
	opts := []Option{
		WithDir(cfg.Dir),
		WithEnv(cfg.EnvMap()),
		WithTimeout(cfg.Timeout),
		WithWaitDelay(cfg.WaitDelay),
	}
	if cfg.IsolateEnv {
		opts = append(opts, WithoutInheritedEnv())
	}
	if cfg.IgnoreExitValue {
		opts = append(opts, WithExitValues(nil))
	} else if len(cfg.ExitValues) > 0 {
		opts = append(opts, WithExitValues(cfg.ExitValues))
	}
	return opts
}
