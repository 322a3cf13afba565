package logger

import (
	"log/slog"
	"os"
)

var Log *slog.Logger

// Init configures the process-wide logger. JSON handler for
// production-ready logging; debug level exposes per-stage pipeline logs.
func Init(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	Log = slog.New(handler)
}
