package app

import (
	"io"
	"log/slog"
	"strings"
)

// newLogger returns a JSON logger on w. The level accepts the names slog
// understands (debug, info, warn, error, in any case); anything else is info.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}
