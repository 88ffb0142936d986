package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// SlowOperationThreshold is the duration above which an operation is logged at warn level
const SlowOperationThreshold = 10 * time.Second

// OperationTimer provides a defer-friendly way to measure operation duration
//
// Usage:
//
//	func MyFunction() {
//	    defer utils.OperationTimer("my_function", log)()
//	}
func OperationTimer(operation string, log zerolog.Logger) func() time.Duration {
	start := time.Now()

	return func() time.Duration {
		duration := time.Since(start)

		log.Debug().
			Str("operation", operation).
			Dur("duration_ms", duration).
			Msg("Operation completed")

		if duration > SlowOperationThreshold {
			log.Warn().
				Str("operation", operation).
				Dur("duration", duration).
				Msg("Slow operation detected")
		}
		return duration
	}
}
