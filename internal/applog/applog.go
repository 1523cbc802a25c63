// Package applog centralizes log/slog setup, following the teacher's
// plain stdlib `log` usage for a CLI tool generalized into forge's
// slog.NewTextHandler/level-flag pattern (cmd/sidecar/main.go) plus a
// JSON handler for the long-running server processes.
package applog

import (
	"log/slog"
	"os"
)

// New builds a slog.Logger writing to stderr. format "json" selects the
// JSON handler; anything else selects the text handler.
// claudeview-server/claudeview-relay pass the configured log_format
// (text unless set to "json"); claudeview-indexctl always passes "text".
func New(format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
