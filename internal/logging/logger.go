// Package logging configures the structured logger shared by the CLI and the
// experiment runner. Output is slog text so it stays readable next to the
// ASCII plots the CLI prints.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// EnvLevel names the environment variable consulted when no level is given
// on the command line.
const EnvLevel = "PHYSLAB_LOG_LEVEL"

// New returns a text logger writing to w at the given level. An empty or
// unknown level falls back to PHYSLAB_LOG_LEVEL, then to INFO.
func New(w io.Writer, level string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler)
}

// ParseLevel maps DEBUG, INFO, WARN(ING) and ERROR in any case to a slog
// level.
func ParseLevel(s string) slog.Level {
	if lvl, ok := parseLevel(s); ok {
		return lvl
	}
	if lvl, ok := parseLevel(os.Getenv(EnvLevel)); ok {
		return lvl
	}
	return slog.LevelInfo
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Discard drops every record. Library code falls back to it when the
// caller supplies no logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
