// Package logging sets up supertag's structured logger: a shared level
// var plus an optional rotating-file tee alongside stderr.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	level  = new(slog.LevelVar)
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
)

func init() {
	level.Set(slog.LevelInfo)
	if os.Getenv("STAG_LOG") == "1" {
		Enable("")
	}
}

// Enable turns on debug-level trace logging. When filePath is non-empty,
// output is teed to a rotating log file in addition to stderr, per
// spec.md §6's "teed into a file" requirement for STAG_LOG=1.
func Enable(filePath string) {
	level.Set(slog.LevelDebug)
	w := io.Writer(os.Stderr)
	if filePath != "" {
		lj := &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		}
		w = io.MultiWriter(os.Stderr, lj)
	}
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Logger returns the package-level logger. Components take it as an
// explicit dependency (engine.New receives it as a parameter); this
// accessor exists only for cmd/tag's top-level wiring.
func Logger() *slog.Logger { return logger }
