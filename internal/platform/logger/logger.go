package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger: JSON to stdout, info level unless
// SIGNET_LOG_LEVEL says otherwise.
func New() *slog.Logger {
	level := slog.LevelInfo
	switch os.Getenv("SIGNET_LOG_LEVEL") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
