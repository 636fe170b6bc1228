// Package logger builds the zerolog loggers shared by the FAME binaries.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options selects the output of a logger
type Options struct {
	// Level is a zerolog level name; unknown names mean info
	Level string
	// Pretty switches from JSON lines to the console writer
	Pretty bool
	// Service is attached to every entry
	Service string
	Out     io.Writer
}

// FromEnv reads LOG_LEVEL and ENV. It is used before the configuration is
// loaded.
func FromEnv(service string) Options {
	return Options{
		Level:   os.Getenv("LOG_LEVEL"),
		Pretty:  strings.EqualFold(os.Getenv("ENV"), "development"),
		Service: service,
		Out:     os.Stdout,
	}
}

// New creates a logger for opts
func New(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if opts.Pretty {
		ctx = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}).
			Level(level).With().Timestamp().Caller()
	}
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	return ctx.Logger()
}
