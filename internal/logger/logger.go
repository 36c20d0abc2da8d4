package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Options configures the process-wide logger.
type Options struct {
	Output io.Writer // defaults to stderr
	Debug  bool
	// NoTimestamp drops the timestamp column, useful for golden output in tests.
	NoTimestamp bool
}

var std *log.Logger

// Init installs the process-wide logger. Until Init is called every
// logging function is a no-op.
func Init(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	level := log.InfoLevel
	if opts.Debug {
		level = log.DebugLevel
	}
	std = log.NewWithOptions(out, log.Options{
		ReportTimestamp: !opts.NoTimestamp,
		Level:           level,
	})
}

// Reset removes the installed logger.
func Reset() {
	std = nil
}

// Debug writes a message at DEBUG level.
func Debug(message string, keyvals ...any) {
	if std != nil {
		std.Debug(message, keyvals...)
	}
}

// Info writes a message at INFO level.
func Info(message string, keyvals ...any) {
	if std != nil {
		std.Info(message, keyvals...)
	}
}

// Warn writes a message at WARN level.
func Warn(message string, keyvals ...any) {
	if std != nil {
		std.Warn(message, keyvals...)
	}
}

// Error writes a message at ERROR level.
func Error(message string, keyvals ...any) {
	if std != nil {
		std.Error(message, keyvals...)
	}
}
