package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/execkit/command"
	"github.com/kbukum/execkit/errors"
	"github.com/kbukum/execkit/logger"
	"github.com/kbukum/execkit/process"
	"github.com/kbukum/execkit/result"
)

type runOptions struct {
	timeout    time.Duration
	exitValues []int
	ignoreExit bool
	vars       []string
	env        []string
	isolateEnv bool
	dir        string
	template   string
	async      bool
}

func newRunCmd(root *options) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run [flags] -- <executable> [args...]",
		Short: "Run a command and exit with its exit code",
		Example: `  execkit run --timeout 30s -- make test
  execkit run --var name=world -- echo hello '${name}'
  execkit run --exit-value 1 --template "grep -q needle haystack.txt"`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.template == "" && len(args) == 0 {
				return errors.InvalidInput("executable", "an executable or --template is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			tel, err := setupTelemetry(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer tel.shutdown(cmd.Context())

			line, err := opts.line(args)
			if err != nil {
				return err
			}
			execOpts, err := opts.executorOptions(cmd)
			if err != nil {
				return err
			}
			execOpts = append(execOpts, process.WithMetrics(tel.exec))
			exec := process.NewFromConfig(cfg.Executor, execOpts...)

			var code int
			if opts.async {
				code, err = runAsync(cmd, exec, line)
			} else {
				code, err = exec.Execute(cmd.Context(), line)
			}
			return exitWith(code, err)
		},
	}

	flags := cmd.Flags()
	flags.DurationVar(&opts.timeout, "timeout", 0, "Kill the process after this long (0 disables the watchdog)")
	flags.IntSliceVar(&opts.exitValues, "exit-value", nil, "Accepted exit code; repeatable (default 0)")
	flags.BoolVar(&opts.ignoreExit, "ignore-exit-value", false, "Treat every exit code as success")
	flags.StringArrayVar(&opts.vars, "var", nil, "Substitution variable name=value for ${name}; repeatable")
	flags.StringArrayVar(&opts.env, "env", nil, "Environment variable KEY=VALUE; repeatable")
	flags.BoolVar(&opts.isolateEnv, "isolate-env", false, "Do not inherit the current environment")
	flags.StringVar(&opts.dir, "dir", "", "Working directory")
	flags.StringVarP(&opts.template, "template", "t", "", "Command line as one string, quoted like a shell")
	flags.BoolVar(&opts.async, "async", false, "Start asynchronously and wait for the result handler")
	return cmd
}

// line builds the command line from --template or the positional args.
func (o *runOptions) line(args []string) (*command.Line, error) {
	var line *command.Line
	if o.template != "" {
		parsed, err := command.Parse(o.template)
		if err != nil {
			return nil, err
		}
		line = parsed.AddArguments(args...)
	} else {
		line = command.New(args[0]).AddArguments(args[1:]...)
	}

	vars, err := parsePairs("var", o.vars)
	if err != nil {
		return nil, err
	}
	if len(vars) > 0 {
		m := make(map[string]any, len(vars))
		for k, v := range vars {
			m[k] = v
		}
		line.SetSubstitutionMap(m)
	}
	return line, nil
}

// executorOptions translates flags into executor overrides. Only flags the
// user set override the configuration.
func (o *runOptions) executorOptions(cmd *cobra.Command) ([]process.Option, error) {
	opts := []process.Option{
		process.WithStreams(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()),
	}
	flags := cmd.Flags()
	if flags.Changed("timeout") {
		opts = append(opts, process.WithTimeout(o.timeout))
	}
	if o.ignoreExit {
		opts = append(opts, process.WithExitValues(nil))
	} else if len(o.exitValues) > 0 {
		opts = append(opts, process.WithExitValues(o.exitValues))
	}
	if o.dir != "" {
		opts = append(opts, process.WithDir(o.dir))
	}
	env, err := parsePairs("env", o.env)
	if err != nil {
		return nil, err
	}
	if len(env) > 0 {
		opts = append(opts, process.WithEnv(env))
	}
	if o.isolateEnv {
		opts = append(opts, process.WithoutInheritedEnv())
	}
	return opts, nil
}

// runAsync starts the process through ExecuteAsync and waits for the
// handler to receive the outcome.
func runAsync(cmd *cobra.Command, exec *process.Executor, line *command.Line) (int, error) {
	n := result.NewNotifier()
	if err := exec.ExecuteAsync(cmd.Context(), line, n); err != nil {
		return process.ExitCodeOf(err), err
	}
	logger.Debug("process started asynchronously", logger.Fields(logger.FieldExecutable, line.RawExecutable()))
	return n.Wait()
}

// exitWith turns an execution outcome into the CLI's exit status.
func exitWith(code int, err error) error {
	if err == nil {
		if code == 0 {
			return nil
		}
		return &ExitError{Code: code}
	}
	if code := process.ExitCodeOf(err); code >= 0 {
		return &ExitError{Code: code, Err: err}
	}
	return err
}

func parsePairs(flag string, pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, errors.InvalidInput(flag, fmt.Sprintf("%q is not name=value", p))
		}
		out[k] = v
	}
	return out, nil
}
