package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup returns the process logger stamped with the docsite version. Debug
// output is a console log with stack traces, otherwise records are JSON at
// info level.
func Setup(debug bool, version string) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	if !debug {
		return zerolog.New(os.Stderr).Level(level).With().
			Timestamp().
			Str("version", version).
			Logger()
	}

	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.TimeOnly,
		// the version is printed once by the commands
		FieldsExclude: []string{"version"},
	}
	return zerolog.New(console).Level(level).With().
		Timestamp().
		Caller().
		Stack().
		Str("version", version).
		Logger()
}

// WithMode tags every record of l with the build mode.
func WithMode(l zerolog.Logger, mode string) zerolog.Logger {
	return l.With().Str("mode", mode).Logger()
}
