// Package logging provides the shared structured logger for calcprefs.
//
// All components derive their logger from one [log/slog] text handler that
// writes to stderr, so command output on stdout stays machine readable.
//
//	log := logging.New("prefs")
//	log.Warn("unparseable color", "key", key, "value", raw)
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	initLogger sync.Once
	baseLogger *slog.Logger
	level      = new(slog.LevelVar)
	output     io.Writer = os.Stderr
)

// New returns a logger scoped to the given component name. An empty
// component returns the base logger.
func New(component string) *slog.Logger {
	initLogger.Do(func() {
		baseLogger = slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level}))
	})
	if component == "" {
		return baseLogger
	}
	return baseLogger.With("component", component)
}

// SetLevel changes the level of every logger returned by New, including ones
// created before the call.
func SetLevel(value string) {
	level.Set(ParseLevel(value))
}

// ParseLevel converts a level name to a [slog.Level]. Unknown names map to
// info.
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything. Tests use it to keep output
// quiet.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
