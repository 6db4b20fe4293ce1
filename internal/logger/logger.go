package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the service logger. Development gets a human-readable
// console writer; everything else emits JSON.
func New(environment string) zerolog.Logger {
	var logger zerolog.Logger
	if environment == "development" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		logger = zerolog.New(output)
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.With().
		Timestamp().
		Str("service", "rental-billing").
		Logger()
}
