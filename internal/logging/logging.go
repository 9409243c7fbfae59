// Package logging provides structured logging for Corral using stdlib slog.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// LogConfig controls logger creation.
type LogConfig struct {
	Level  string    // "debug", "info", "warn", "error"
	Format string    // "json", "text"; empty picks based on the output terminal
	Output io.Writer // defaults to os.Stderr
}

// New creates a configured *slog.Logger. Diagnostics go to stderr so the
// supervised child keeps stdout to itself.
func New(cfg LogConfig) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Level),
	}

	format := cfg.Format
	if format == "" {
		format = DefaultFormat(out)
	}

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	return slog.New(handler)
}

// DefaultFormat returns "text" when the output is an interactive terminal
// and "json" otherwise.
func DefaultFormat(out io.Writer) string {
	type fder interface{ Fd() uintptr }
	if f, ok := out.(fder); ok && term.IsTerminal(int(f.Fd())) {
		return "text"
	}
	return "json"
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
