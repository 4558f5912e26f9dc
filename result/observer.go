package result

import (
	"github.com/kbukum/execkit/logger"
)

// LogObserver returns an observer that logs the outcome: completion at info,
// a watchdog kill at warn, any other failure at error.
func LogObserver(log *logger.Logger) func(Outcome) {
	if log == nil {
		log = logger.NewNop()
	}
	return func(o Outcome) {
		fields := logger.Fields(logger.FieldExitCode, o.ExitCode)
		switch {
		case o.Err == nil:
			log.Info("execution completed", fields)
		case o.KilledByWatchdog:
			fields[logger.FieldKilled] = true
			log.Warn("execution timed out", logger.MergeWithError(fields, o.Err))
		default:
			log.Error("execution failed", logger.MergeWithError(fields, o.Err))
		}
	}
}
