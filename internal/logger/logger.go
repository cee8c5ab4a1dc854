// Package logger provides the structured logging facade used across
// shelfwatch. It wraps log/slog so call sites depend on a narrow
// interface with typed field constructors instead of a concrete logger.
package logger

import (
	"context"
	"io"
	"log/slog"
)

// LogLevel controls the minimum severity a logger emits.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// Field is a typed key-value pair attached to a log record.
type Field = slog.Attr

// Logger is the logging interface consumed by all packages.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Typed field constructors.

func String(key, value string) Field        { return slog.String(key, value) }
func Int(key string, value int) Field       { return slog.Int(key, value) }
func Int64(key string, value int64) Field   { return slog.Int64(key, value) }
func Uint64(key string, value uint64) Field { return slog.Uint64(key, value) }
func Float64(key string, value float64) Field {
	return slog.Float64(key, value)
}
func Bool(key string, value bool) Field { return slog.Bool(key, value) }
func Any(key string, value any) Field   { return slog.Any(key, value) }

// Error wraps an error as a field under the conventional "error" key.
func Error(err error) Field { return slog.Any("error", err) }

// slogLogger adapts *slog.Logger to the Logger interface.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger creates a Logger writing text records to w at the given
// level. Extra attrs, if any, are attached to every record.
func NewSlogLogger(w io.Writer, level LogLevel, attrs []Field) Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: toSlogLevel(level)})
	l := slog.New(h)
	if len(attrs) > 0 {
		args := make([]any, 0, len(attrs))
		for _, a := range attrs {
			args = append(args, a)
		}
		l = l.With(args...)
	}
	return &slogLogger{l: l}
}

func toSlogLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (s *slogLogger) Debug(msg string, fields ...Field) { s.log(slog.LevelDebug, msg, fields) }
func (s *slogLogger) Info(msg string, fields ...Field)  { s.log(slog.LevelInfo, msg, fields) }
func (s *slogLogger) Warn(msg string, fields ...Field)  { s.log(slog.LevelWarn, msg, fields) }
func (s *slogLogger) Error(msg string, fields ...Field) { s.log(slog.LevelError, msg, fields) }

func (s *slogLogger) log(level slog.Level, msg string, fields []Field) {
	s.l.LogAttrs(context.Background(), level, msg, fields...)
}

func (s *slogLogger) With(fields ...Field) Logger {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		args = append(args, f)
	}
	return &slogLogger{l: s.l.With(args...)}
}
