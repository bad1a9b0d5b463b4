// Package logger provides slog construction and shared attribute helpers.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the process-wide logger. The level comes from LOG_LEVEL
// (debug/info/warn/error, case-insensitive, defaulting to info). When GO_ENV
// is "production" the handler emits JSON, otherwise human-readable text.
func NewLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if os.Getenv("GO_ENV") == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// Scope returns the conventional component attribute, e.g.
// log.With(logger.Scope("importer.regions")).
func Scope(name string) slog.Attr {
	return slog.Attr{Key: "scope", Value: slog.StringValue(name)}
}

// Error returns the conventional error attribute.
func Error(err error) slog.Attr {
	return slog.Attr{Key: "error", Value: slog.AnyValue(err)}
}
