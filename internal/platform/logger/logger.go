// Package logger constructs the zerolog logger shared by the engine's
// binaries. Components receive the logger by value; nothing in the
// module logs through a global.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a structured logger tagged with the service name. The
// level defaults to info and can be changed with REPLYSCOUT_LOG_LEVEL,
// e.g. "debug" to see skipped-candidate and inactive-account decisions.
func New(serviceName string) zerolog.Logger {
	level := zerolog.InfoLevel
	if raw := os.Getenv("REPLYSCOUT_LOG_LEVEL"); raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	return zerolog.New(os.Stdout).Level(level).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}
