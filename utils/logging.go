// Package utils holds the logging, error, debug-trace and file helpers shared by the
// pwcet-safety packages.
package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type LogLevel int

const (
	LogLevelOff LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// Logger is the structured logger used by the optimizer, the sweep runner and the CLI.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	SetLevel(level LogLevel)
}

type DefaultLogger struct {
	logger *slog.Logger
	level  LogLevel
}

func slogLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a text logger on stderr. Stdout is reserved for result records.
func NewLogger(level LogLevel) *DefaultLogger {
	return NewLoggerTo(os.Stderr, level)
}

func NewLoggerTo(w io.Writer, level LogLevel) *DefaultLogger {
	// The handler accepts everything; filtering happens on l.level so SetLevel
	// can lower the threshold after construction.
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	return &DefaultLogger{
		logger: slog.New(slog.NewTextHandler(w, opts)),
		level:  level,
	}
}

// With returns a logger that prefixes every record with the given attributes.
func (l *DefaultLogger) With(keysAndValues ...any) *DefaultLogger {
	return &DefaultLogger{
		logger: l.logger.With(keysAndValues...),
		level:  l.level,
	}
}

func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.level = level
}

func (l *DefaultLogger) Debug(msg string, keysAndValues ...any) {
	if l.level >= LogLevelDebug {
		l.logger.Debug(msg, keysAndValues...)
	}
}

func (l *DefaultLogger) Info(msg string, keysAndValues ...any) {
	if l.level >= LogLevelInfo {
		l.logger.Info(msg, keysAndValues...)
	}
}

func (l *DefaultLogger) Warn(msg string, keysAndValues ...any) {
	if l.level >= LogLevelWarn {
		l.logger.Warn(msg, keysAndValues...)
	}
}

func (l *DefaultLogger) Error(msg string, keysAndValues ...any) {
	if l.level >= LogLevelError {
		l.logger.Error(msg, keysAndValues...)
	}
}

// NopLogger discards everything.
type NopLogger struct{}

func NewNopLogger() *NopLogger { return &NopLogger{} }

func (*NopLogger) Debug(string, ...any) {}
func (*NopLogger) Info(string, ...any)  {}
func (*NopLogger) Warn(string, ...any)  {}
func (*NopLogger) Error(string, ...any) {}
func (*NopLogger) SetLevel(LogLevel)    {}

func (l LogLevel) String() string {
	if l < LogLevelOff || l > LogLevelDebug {
		return fmt.Sprintf("LogLevel(%d)", int(l))
	}
	return [...]string{"OFF", "ERROR", "WARN", "INFO", "DEBUG"}[l]
}

func (l *LogLevel) UnmarshalText(text []byte) error {
	level, err := ParseLogLevel(string(text))
	if err != nil {
		return err
	}
	*l = level
	return nil
}

// ParseLogLevel accepts the level names case-insensitively.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OFF":
		return LogLevelOff, nil
	case "ERROR":
		return LogLevelError, nil
	case "WARN", "WARNING":
		return LogLevelWarn, nil
	case "INFO":
		return LogLevelInfo, nil
	case "DEBUG":
		return LogLevelDebug, nil
	default:
		return LogLevelOff, fmt.Errorf("invalid log level: %s", s)
	}
}
