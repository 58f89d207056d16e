// Package logger builds the application's slog loggers and provides
// field helpers for the academic domain.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Format selects the log output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Options configures the logger.
type Options struct {
	Output io.Writer
	Level  slog.Level
	Format Format

	// AddSource includes the file:line of the log call.
	AddSource bool
}

// DefaultOptions returns sensible defaults for the logger.
func DefaultOptions() Options {
	return Options{
		Output: os.Stdout,
		Level:  slog.LevelInfo,
		Format: FormatJSON,
	}
}

// ParseLevel parses a level string, falling back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger with the given options.
func New(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.AddSource,
	}

	var handler slog.Handler
	switch opts.Format {
	case FormatText:
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	default:
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	}

	return slog.New(handler)
}

// Default creates a logger with default options.
func Default() *slog.Logger {
	return New(DefaultOptions())
}

// Setup builds a logger from level and format strings and installs it
// as the process default.
func Setup(level, format string) *slog.Logger {
	l := New(Options{
		Output: os.Stdout,
		Level:  ParseLevel(level),
		Format: Format(strings.ToLower(format)),
	})
	slog.SetDefault(l)
	return l
}

// Field helpers for the academic domain.

func TenantID(id string) slog.Attr     { return slog.String("tenant_id", id) }
func StudentID(id string) slog.Attr    { return slog.String("student_id", id) }
func SessionID(id string) slog.Attr    { return slog.String("session_id", id) }
func EnrollmentID(id string) slog.Attr { return slog.String("enrollment_id", id) }
func SubjectID(id string) slog.Attr    { return slog.String("subject_id", id) }
func ClassID(id string) slog.Attr      { return slog.String("class_id", id) }
func Component(name string) slog.Attr  { return slog.String("component", name) }
func Operation(name string) slog.Attr  { return slog.String("operation", name) }

// Err creates an error attribute tolerant of nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Any("error", nil)
	}
	return slog.String("error", err.Error())
}

// Latency creates a duration attribute.
func Latency(d time.Duration) slog.Attr {
	return slog.String("latency", d.String())
}
