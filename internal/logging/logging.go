package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Debug controls whether debug logs are printed.
var Debug bool

var logger = newLogger(os.Stderr)

func newLogger(w io.Writer) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: w != os.Stderr}
	return zerolog.New(out).With().Timestamp().Logger()
}

// SetOutput redirects all log output to w.
func SetOutput(w io.Writer) {
	logger = newLogger(w)
}

// Logger returns the shared logger for callers that want structured fields.
func Logger() *zerolog.Logger {
	return &logger
}

// Debugf logs a formatted debug message when Debug is enabled.
func Debugf(format string, v ...any) {
	if Debug {
		logger.Debug().Msgf(format, v...)
	}
}

// Infof logs a formatted informational message.
func Infof(format string, v ...any) {
	logger.Info().Msgf(format, v...)
}

// Warnf logs a formatted warning.
func Warnf(format string, v ...any) {
	logger.Warn().Msgf(format, v...)
}

// Errorf logs a formatted error.
func Errorf(format string, v ...any) {
	logger.Error().Msgf(format, v...)
}
