// Package logger builds the slog logger shared by the CLI and the packages
// it wires together.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Formats accepted by Setup.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ParseLevel maps a level name to a slog.Level. Unknown names map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// Setup returns a logger writing to w in the given format and level.
func Setup(w io.Writer, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, FormatJSON) {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// SetupDefault installs a Setup logger as the global logger and returns it.
// A nil writer logs to stderr so command output on stdout stays clean.
func SetupDefault(w io.Writer, format, level string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := Setup(w, format, level)
	slog.SetDefault(l)
	return l
}
