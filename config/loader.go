package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/execkit/logger"
)

// EnvPrefix is the prefix of environment variables read by the loader.
const EnvPrefix = "EXECKIT"

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	UserConfigDir() (string, error)
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

func (rfs *RealFileSystem) UserConfigDir() (string, error) {
	return os.UserConfigDir()
}

// Resolver handles finding and resolving config and env files.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns explicit paths if provided, otherwise searches for them.
func (cr *Resolver) ResolveFiles(opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}

	if resolved.ConfigFile == "" {
		resolved.ConfigFile = cr.findConfigFile()
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = cr.findEnvFile()
	}

	return resolved
}

// findConfigFile searches the working directory, ./config, the user config
// directory and /etc, in that order.
func (cr *Resolver) findConfigFile() string {
	searchPaths := []string{
		fmt.Sprintf("./%s.yml", ServiceName),
		fmt.Sprintf("./%s.yaml", ServiceName),
		fmt.Sprintf("./config/%s.yml", ServiceName),
		fmt.Sprintf("./cmd/%s/config.yml", ServiceName),
	}
	if dir, err := cr.FileSystem.UserConfigDir(); err == nil && dir != "" {
		searchPaths = append(searchPaths, filepath.Join(dir, ServiceName, "config.yml"))
	}
	searchPaths = append(searchPaths, fmt.Sprintf("/etc/%s/%s.yml", ServiceName, ServiceName))

	for _, path := range searchPaths {
		if cr.FileSystem.Exists(path) {
			return path
		}
	}
	return ""
}

// findEnvFile searches for .env files in standard locations.
func (cr *Resolver) findEnvFile() string {
	envFiles := []string{
		fmt.Sprintf(".env.%s", ServiceName),
		".env",
	}

	for _, envFile := range envFiles {
		for _, basePath := range []string{".", "./config", fmt.Sprintf("./cmd/%s", ServiceName)} {
			fullPath := basePath + "/" + envFile
			if cr.FileSystem.Exists(fullPath) {
				return fullPath
			}
		}
	}
	return ""
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct env file path (optional)
	Logger     *logger.Logger
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithLogger sets the logger used for loader warnings.
func WithLogger(l *logger.Logger) LoaderOption {
	return func(lc *LoaderConfig) { lc.Logger = l }
}

// Load resolves, reads, defaults and validates the execkit configuration.
func Load(opts ...LoaderOption) (*Config, error) {
	cfg := &Config{}
	if err := LoadInto(cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto reads configuration into cfg without applying defaults.
func LoadInto(cfg interface{}, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}
	if lc.Logger == nil {
		lc.Logger = logger.WithComponent("config")
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(lc)

	return loadFromResolvedFiles(cfg, files, lc)
}

// loadFromResolvedFiles loads configuration from specific files.
func loadFromResolvedFiles(cfg interface{}, files ResolvedFiles, lc LoaderConfig) error {
	v := viper.New()

	// 1. YAML config (base configuration)
	if files.ConfigFile != "" {
		if !lc.FileSystem.Exists(files.ConfigFile) {
			if lc.ConfigFile != "" {
				return fmt.Errorf("config file %s not found", files.ConfigFile)
			}
		} else {
			v.SetConfigFile(files.ConfigFile)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("reading config file %s: %w", files.ConfigFile, err)
			}
		}
	}

	// 2. .env file, loaded into the process environment
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			lc.Logger.Warn("failed to load .env file", logger.MergeWithError(logger.Fields("path", files.EnvFile), err))
		}
	}

	// 3. EXECKIT_* environment variables override everything above
	autoBindEnvVars(v, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal %s config: %w", ServiceName, err)
	}

	return nil
}

// autoBindEnvVars binds every EXECKIT_* variable to Viper under all nested
// key spellings it could stand for.
func autoBindEnvVars(v *viper.Viper, environ []string) {
	prefix := EnvPrefix + "_"
	for _, env := range environ {
		key, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}

		for _, variant := range generateEnvKeyVariants(strings.TrimPrefix(key, prefix)) {
			v.Set(variant, value)
		}
	}
}

// generateEnvKeyVariants creates all possible key variants for environment variable binding.
// Examples:
//
//	EXECUTOR_TIMEOUT -> [executor_timeout, executor.timeout]
//	SERVER_MAX_EXECUTIONS -> [server_max_executions, server.max.executions, server.max_executions, ...]
func generateEnvKeyVariants(envKey string) []string {
	lowerKey := strings.ToLower(envKey)
	parts := strings.Split(lowerKey, "_")

	if len(parts) <= 1 {
		return []string{lowerKey}
	}

	variants := []string{
		lowerKey,
		strings.ReplaceAll(lowerKey, "_", "."),
	}

	// Progressive nesting: a.b_c_d, a.b.c_d, ...
	for i := 1; i < len(parts); i++ {
		prefix := strings.Join(parts[:i], ".")
		suffix := strings.Join(parts[i:], "_")
		variants = append(variants, prefix+"."+suffix)
	}

	return removeDuplicates(variants)
}

// removeDuplicates removes duplicate strings from a slice.
func removeDuplicates(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))

	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}

	return result
}
