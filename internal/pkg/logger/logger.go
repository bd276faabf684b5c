// Package logger owns the process-wide zerolog configuration. Services get a
// component logger through Component; repositories and startup code use the
// package-level helpers.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var defaultLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Format selects the output encoding
type Format string

const (
	FormatJSON   Format = "json"
	FormatPretty Format = "pretty"
)

// Config represents logger configuration
type Config struct {
	// Level is one of trace, debug, info, warn, error, fatal, disabled
	Level string
	// Format is json or pretty
	Format Format
	// Output defaults to os.Stdout
	Output io.Writer
	// Service is attached to every entry when set
	Service string
}

// ParseLevel maps a config string onto a zerolog level. Unknown or empty
// values fall back to info.
func ParseLevel(level string) zerolog.Level {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return parsed
}

// New builds a logger from config without touching global state
func New(config Config) zerolog.Logger {
	output := config.Output
	if output == nil {
		output = os.Stdout
	}

	var writer io.Writer = output
	if config.Format == FormatPretty {
		writer = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	ctx := zerolog.New(writer).Level(ParseLevel(config.Level)).With().Timestamp()
	if config.Service != "" {
		ctx = ctx.Str("service", config.Service)
	}
	return ctx.Logger()
}

// Configure installs config as the package default and as zerolog's global logger
func Configure(config Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	defaultLogger = New(config)
	log.Logger = defaultLogger
	return defaultLogger
}

// Default returns the configured logger
func Default() zerolog.Logger {
	return defaultLogger
}

// Component returns the default logger tagged with a component name
func Component(name string) zerolog.Logger {
	return defaultLogger.With().Str("component", name).Logger()
}

// Debug logs a debug message
func Debug() *zerolog.Event {
	return defaultLogger.Debug()
}

// Info logs an informational message
func Info() *zerolog.Event {
	return defaultLogger.Info()
}

// Warn logs a warning message
func Warn() *zerolog.Event {
	return defaultLogger.Warn()
}

// Error logs an error message
func Error() *zerolog.Event {
	return defaultLogger.Error()
}

// Fatal logs a message and exits the process
func Fatal() *zerolog.Event {
	return defaultLogger.Fatal()
}
