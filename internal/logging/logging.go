// Package logging defines the Logger interface the bus logs through,
// and a zerolog-backed implementation. It mirrors the split between
// github.com/kilianp07/v2g's core/logger.Logger interface and its
// infra/logger.ZerologLogger adapter: callers depend only on the small
// interface, and NewZerolog is the concrete adapter. switchboard.New
// uses NopLogger unless a Logger is passed with WithLogger.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger exposes logging methods for common severity levels. The bus's
// topic registry, topics, and subscription workers all hold one of these
// instead of reaching for a package-level logger.
type Logger interface {
	Debugf(format string, args ...any)
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger discards everything. Useful for tests and for embedders
// that don't want the bus's chatter.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

type zerologLogger struct {
	log zerolog.Logger
}

// NewZerolog builds a Logger for the given component, using the
// APP_ENV environment variable to pick a console or JSON writer, the
// same convention v2g's NewZerologLogger uses.
func NewZerolog(component string) Logger {
	env := strings.ToLower(os.Getenv("APP_ENV"))
	var z zerolog.Logger
	if env == "dev" {
		w := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		z = zerolog.New(w).With().Timestamp().Str("component", component).Logger()
	} else {
		z = zerolog.New(os.Stdout).With().Timestamp().Str("component", component).Logger()
	}
	return &zerologLogger{log: z}
}

func (l *zerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *zerologLogger) Debugw(msg string, fields map[string]any) {
	ev := l.log.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *zerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *zerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *zerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
