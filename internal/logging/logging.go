// Package logging wires up the process-wide slog.Logger used for
// diagnostics. It never writes to stdout: the agent's token stream owns
// stdout, so every log record goes to stderr.
package logging

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

var logger = New(false)

// New builds a tint-backed slog.Logger. trace selects debug-level output;
// otherwise only warnings and errors are emitted, matching the teacher's
// convention of a normally-quiet console with an opt-in verbose mode.
func New(trace bool) *slog.Logger {
	level := slog.LevelWarn
	if trace {
		level = slog.LevelDebug
	}
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
	})
	return slog.New(handler)
}

// SetTrace reconfigures the package logger for --trace. Call once at
// startup after flags are parsed.
func SetTrace(trace bool) {
	logger = New(trace)
}

// Default returns the process-wide logger.
func Default() *slog.Logger { return logger }
