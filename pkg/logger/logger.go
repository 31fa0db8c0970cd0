package logger

import (
	"log/slog"
	"os"
)

// Setup installs the process-wide slog default. When debug is true the
// level drops to Debug and source locations are attached, which is what
// you want when chasing a misbehaving extraction.
func Setup(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, opts)))
}
