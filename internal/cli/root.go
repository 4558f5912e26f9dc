// Package cli implements the execkit command line.
package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kbukum/execkit/config"
	"github.com/kbukum/execkit/errors"
	"github.com/kbukum/execkit/logger"
	"github.com/kbukum/execkit/observability"
	"github.com/kbukum/execkit/version"
)

// Exit codes for failures that carry no process exit code.
const (
	ExitFailure      = 1
	ExitUsage        = 2
	ExitSpawnFailure = 127
)

// ExitError carries the exit code the CLI should terminate with. Err is nil
// when the child ran and its code is simply passed through.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if stderrors.As(err, &ee) {
		return ee.Code
	}
	switch errors.CodeOf(err) {
	case errors.ErrCodeSpawnFailure:
		return ExitSpawnFailure
	case errors.ErrCodeMissingVariable, errors.ErrCodeMalformedCommand, errors.ErrCodeInvalidInput:
		return ExitUsage
	}
	return ExitFailure
}

type options struct {
	configFile string
	envFile    string
	logLevel   string
}

// NewRootCmd builds the execkit command tree.
func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *options) {
	opts := &options{}

	root := &cobra.Command{
		Use:     "execkit",
		Short:   "Run external processes with timeouts and exit-code checks",
		Version: version.Get().Short(),
	}

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Path to config file (default: search ./execkit.yml, ./config, user config dir)")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Path to .env file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override logging.level (trace, debug, info, warn, error, disabled)")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newVersionCmd())

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, opts
}

// Execute runs the CLI entrypoint and exits with the command's exit code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	stop()

	var ee *ExitError
	if err != nil && !(stderrors.As(err, &ee) && ee.Err == nil) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(ExitCode(err))
}

// loadConfig loads configuration and initializes the global logger.
func (o *options) loadConfig() (*config.Config, error) {
	var loadOpts []config.LoaderOption
	if o.configFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(o.configFile))
	}
	if o.envFile != "" {
		loadOpts = append(loadOpts, config.WithEnvFile(o.envFile))
	}
	cfg, err := config.Load(loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
		if err := cfg.Logging.Validate(); err != nil {
			return nil, errors.InvalidInput("log-level", err.Error())
		}
	}
	logger.Init(cfg.Logging)
	logger.RegisterDefaults("executor", "server")
	return cfg, nil
}

// telemetry holds the providers and instruments created from config.
type telemetry struct {
	providers *observability.Providers
	exec      *observability.ExecutionMetrics
	http      *observability.HTTPMetrics
}

// setupTelemetry starts OpenTelemetry export when enabled. The returned
// telemetry is usable either way.
func setupTelemetry(ctx context.Context, cfg *config.Config) (*telemetry, error) {
	t := &telemetry{}
	if !cfg.Telemetry.Enabled {
		return t, nil
	}

	tc := observability.DefaultTracerConfig(config.ServiceName)
	tc.ServiceVersion = version.Get().Short()
	tc.Environment = cfg.Environment
	tc.Endpoint = cfg.Telemetry.Endpoint
	tc.Insecure = cfg.Telemetry.Insecure
	tc.SampleRate = cfg.Telemetry.SampleRate

	mc := observability.DefaultMeterConfig(config.ServiceName)
	mc.ServiceVersion = tc.ServiceVersion
	mc.Environment = cfg.Environment
	mc.Endpoint = cfg.Telemetry.Endpoint
	mc.Insecure = cfg.Telemetry.Insecure
	if cfg.Telemetry.MetricInterval > 0 {
		mc.Interval = cfg.Telemetry.MetricInterval
	}

	providers, err := observability.Setup(ctx, tc, mc)
	if err != nil {
		return nil, fmt.Errorf("setting up telemetry: %w", err)
	}
	t.providers = providers

	meter := providers.Meter.Meter(config.ServiceName)
	if t.exec, err = observability.NewExecutionMetrics(meter); err != nil {
		return nil, err
	}
	if t.http, err = observability.NewHTTPMetrics(meter); err != nil {
		return nil, err
	}
	return t, nil
}

// shutdown flushes exporters, logging failures.
func (t *telemetry) shutdown(ctx context.Context) {
	if err := t.providers.Shutdown(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("telemetry shutdown failed", logger.ErrorFields("shutdown", err))
	}
}
