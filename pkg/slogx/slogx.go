// Package slogx configures log/slog for host applications embedding the
// toolkit. The library itself only ever accepts a *slog.Logger; this
// package is convenience for wiring one up.
package slogx

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	App    string // logical application name attached to every record
	Level  string // "debug", "info", "warn", "error"
	Format string // "json" (default) or "text"
}

// New returns a configured slog.Logger writing to stdout.
func New(cfg Config) *slog.Logger {
	return NewWriter(os.Stdout, cfg)
}

// NewWriter is New with an explicit output, useful for tests.
func NewWriter(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler)
	if cfg.App != "" {
		logger = logger.With("app", cfg.App)
	}
	return logger
}

// Discard returns a logger that drops every record. Handy as a default
// in tests.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func parseLevel(lvl string) slog.Level {
	switch strings.ToLower(lvl) {
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
