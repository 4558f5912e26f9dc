// Package config loads execkit configuration from a YAML file, a .env file
// and EXECKIT_* environment variables.
//
// Precedence, lowest to highest: built-in defaults, execkit.yml, variables
// from .env, the process environment. Nested keys map to underscore-joined
// variable names:
//
//	EXECKIT_EXECUTOR_TIMEOUT=30s
//	EXECKIT_SERVER_ADDRESS=0.0.0.0:8080
//	EXECKIT_LOGGING_LEVEL=debug
//
// # Usage
//
//	cfg, err := config.Load(config.WithConfigFile("./execkit.yml"))
package config
