package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type SlogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(level slog.Level, out io.Writer) *SlogLogger {
	return &SlogLogger{
		logger: slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
			Level: level,
		})),
	}
}

func (l *SlogLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, args...)
}

func (l *SlogLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

func (l *SlogLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

func (l *SlogLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	return NewSlogLogger(slog.LevelError, io.Discard)
}

// ParseLevel maps a level name as accepted on the command line to a slog level.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", levelStr)
	}
}

// With returns a logger that adds the given key/value pairs to every record.
func With(l Logger, args ...any) Logger {
	if sl, ok := l.(*SlogLogger); ok {
		return &SlogLogger{logger: sl.logger.With(args...)}
	}
	return &withLogger{next: l, args: args}
}

type withLogger struct {
	next Logger
	args []any
}

func (l *withLogger) merge(args []any) []any {
	merged := make([]any, 0, len(args)+len(l.args))
	merged = append(merged, args...)
	return append(merged, l.args...)
}

func (l *withLogger) Debug(msg string, args ...any) { l.next.Debug(msg, l.merge(args)...) }
func (l *withLogger) Info(msg string, args ...any)  { l.next.Info(msg, l.merge(args)...) }
func (l *withLogger) Warn(msg string, args ...any)  { l.next.Warn(msg, l.merge(args)...) }
func (l *withLogger) Error(msg string, args ...any) { l.next.Error(msg, l.merge(args)...) }
