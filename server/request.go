package server

import (
	"time"

	"github.com/kbukum/execkit/command"
	"github.com/kbukum/execkit/process"
	"github.com/kbukum/execkit/validation"
)

// ExecutionRequest is the body of POST /v1/executions. Either Executable
// or Template names the command; Arguments are appended after it.
type ExecutionRequest struct {
	Executable string         `json:"executable" validate:"required_without=Template,excluded_with=Template"`
	Arguments  []string       `json:"arguments"`
	Template   string         `json:"template"`
	Vars       map[string]any `json:"vars"`
	// Timeout arms a watchdog for this execution, e.g. "30s".
	Timeout         string            `json:"timeout" validate:"omitempty,duration"`
	ExitValues      []int             `json:"exit_values" validate:"omitempty,dive,gte=0,lte=255"`
	IgnoreExitValue bool              `json:"ignore_exit_value"`
	Dir             string            `json:"dir"`
	Env             map[string]string `json:"env"`
	Async           bool              `json:"async"`
}

// Validate checks field constraints.
func (r *ExecutionRequest) Validate() error {
	return validation.Validate(r)
}

// Line builds the command line with the request variables attached.
func (r *ExecutionRequest) Line() (*command.Line, error) {
	var line *command.Line
	if r.Template != "" {
		parsed, err := command.Parse(r.Template)
		if err != nil {
			return nil, err
		}
		line = parsed
	} else {
		line = command.New(r.Executable)
	}
	line.AddArguments(r.Arguments...)
	if len(r.Vars) > 0 {
		line.SetSubstitutionMap(r.Vars)
	}
	return line, nil
}

// Options returns the executor overrides carried by the request. They are
// applied after the configured defaults.
func (r *ExecutionRequest) Options() []process.Option {
	var opts []process.Option
	if r.Timeout != "" {
		// Already validated.
		d, _ := time.ParseDuration(r.Timeout)
		opts = append(opts, process.WithTimeout(d))
	}
	switch {
	case r.IgnoreExitValue:
		opts = append(opts, process.WithExitValues(nil))
	case len(r.ExitValues) > 0:
		opts = append(opts, process.WithExitValues(r.ExitValues))
	}
	if r.Dir != "" {
		opts = append(opts, process.WithDir(r.Dir))
	}
	if len(r.Env) > 0 {
		opts = append(opts, process.WithEnv(r.Env))
	}
	return opts
}
