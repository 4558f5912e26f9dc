package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/execkit/logger"
	"github.com/kbukum/execkit/validation"
)

// ServiceName tags logs, telemetry resources, and default file names.
const ServiceName = "execkit"

// Config is the root execkit configuration.
type Config struct {
	Environment string          `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Executor    ExecutorConfig  `yaml:"executor" mapstructure:"executor"`
	Server      ServerConfig    `yaml:"server" mapstructure:"server"`
	Logging     logger.Config   `yaml:"logging" mapstructure:"logging" validate:"-"`
	Telemetry   TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// ExecutorConfig holds the defaults applied to every execution.
type ExecutorConfig struct {
	// Dir is the working directory; empty means the caller's.
	Dir string `yaml:"dir" mapstructure:"dir"`
	// Env overrides or adds KEY=VALUE environment variables for the child.
	// A list keeps variable names case-sensitive; map keys would be lowercased.
	Env []string `yaml:"env" mapstructure:"env" validate:"dive,contains=="`
	// IsolateEnv starts the child with only Env instead of inheriting ours.
	IsolateEnv bool `yaml:"isolate_env" mapstructure:"isolate_env"`
	// ExitValues is the accepted set of exit codes.
	ExitValues []int `yaml:"exit_values" mapstructure:"exit_values" validate:"omitempty,dive,gte=0,lte=255"`
	// IgnoreExitValue accepts any exit code.
	IgnoreExitValue bool `yaml:"ignore_exit_value" mapstructure:"ignore_exit_value"`
	// Timeout arms a watchdog per execution; zero disables it.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	// WaitDelay bounds output copying after the process exits or is killed.
	WaitDelay time.Duration `yaml:"wait_delay" mapstructure:"wait_delay" validate:"gte=0"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address      string        `yaml:"address" mapstructure:"address" validate:"required,hostname_port"`
	Mode         string        `yaml:"mode" mapstructure:"mode" validate:"oneof=debug release test"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gte=0"`
	// MaxExecutions caps how many executions the registry tracks at once.
	MaxExecutions int `yaml:"max_executions" mapstructure:"max_executions" validate:"gte=1"`
	// Retention is how long a finished execution stays queryable.
	Retention time.Duration `yaml:"retention" mapstructure:"retention" validate:"gte=0"`
	// MaxWait caps the ?wait= parameter on execution lookups.
	MaxWait time.Duration `yaml:"max_wait" mapstructure:"max_wait" validate:"gte=0"`
	// MaxRunning caps how many processes run at once.
	MaxRunning int `yaml:"max_running" mapstructure:"max_running" validate:"gte=1"`
	// SubmitRate limits submissions per second; 0 disables the limit.
	SubmitRate  float64 `yaml:"submit_rate" mapstructure:"submit_rate" validate:"gte=0"`
	SubmitBurst int     `yaml:"submit_burst" mapstructure:"submit_burst" validate:"gte=0"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate     float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	MetricInterval time.Duration `yaml:"metric_interval" mapstructure:"metric_interval" validate:"gte=0"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	c.Executor.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Logging.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

// ApplyDefaults fills unset executor fields. The accepted exit set defaults
// to {0}.
func (c *ExecutorConfig) ApplyDefaults() {
	if len(c.ExitValues) == 0 && !c.IgnoreExitValue {
		c.ExitValues = []int{0}
	}
	if c.WaitDelay == 0 {
		c.WaitDelay = 2 * time.Second
	}
}

// EnvMap returns Env as a map. Later entries win.
func (c *ExecutorConfig) EnvMap() map[string]string {
	if len(c.Env) == 0 {
		return nil
	}
	out := make(map[string]string, len(c.Env))
	for _, kv := range c.Env {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			out[k] = v
		}
	}
	return out
}

// ApplyDefaults fills unset server fields.
func (c *ServerConfig) ApplyDefaults() {
	if c.Address == "" {
		c.Address = "127.0.0.1:8080"
	}
	if c.Mode == "" {
		c.Mode = "release"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.MaxExecutions == 0 {
		c.MaxExecutions = 1024
	}
	if c.Retention == 0 {
		c.Retention = 15 * time.Minute
	}
	if c.MaxWait == 0 {
		c.MaxWait = time.Minute
	}
	if c.MaxRunning == 0 {
		c.MaxRunning = 64
	}
}

// ApplyDefaults fills unset telemetry fields.
func (c *TelemetryConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.MetricInterval == 0 {
		c.MetricInterval = 15 * time.Second
	}
}
