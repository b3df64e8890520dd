package main

import (
	"io"
	"log/slog"

	"github.com/ethereum/go-ethereum/log"
)

// newLogger builds a logfmt logger writing to w at the given level,
// matching the teacher's rvgo/cmd/log.go convenience.
func newLogger(w io.Writer, lvl slog.Level) log.Logger {
	return log.NewLogger(log.LogfmtHandlerWithLevel(w, lvl))
}

func levelFromString(s string) slog.Level {
	switch s {
	case "trace":
		return log.LevelTrace
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
