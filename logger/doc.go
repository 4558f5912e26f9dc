// Package logger provides structured logging for execkit using zerolog.
//
// Executors, watchdogs and the HTTP server log through component-scoped
// loggers obtained from the registry:
//
//	log := logger.Get("executor")
//	log.Info("process started", logger.Fields(logger.FieldExecutable, "/bin/echo", logger.FieldPID, 4242))
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  output: "stderr"
package logger
