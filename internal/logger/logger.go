package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger: console output in development, JSON
// elsewhere. LOG_LEVEL overrides the default info level.
func New(environment string) zerolog.Logger {
	level := zerolog.InfoLevel
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}

	var log zerolog.Logger
	if environment == "development" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		log = zerolog.New(os.Stdout)
	}

	return log.Level(level).With().
		Timestamp().
		Str("service", "enforcement-analytics").
		Logger()
}
