package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelWarn)

	logger.Debug("hidden debug")
	logger.Info("hidden info")
	logger.Warn("shown warn", "window", 5)
	logger.Error("shown error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown warn")
	assert.Contains(t, out, "window=5")
	assert.Contains(t, out, "shown error")

	buf.Reset()
	logger.SetLevel(LogLevelDebug)
	logger.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")

	buf.Reset()
	logger.SetLevel(LogLevelOff)
	logger.Error("silenced")
	assert.Empty(t, buf.String())
}

func TestDefaultLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelInfo).With("run", "abc")

	logger.Info("started")
	assert.Contains(t, buf.String(), "run=abc")
}

func TestNopLogger(t *testing.T) {
	var logger Logger = NewNopLogger()

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")
	logger.SetLevel(LogLevelDebug)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"off", LogLevelOff},
		{"ERROR", LogLevelError},
		{"warning", LogLevelWarn},
		{" Info ", LogLevelInfo},
		{"debug", LogLevelDebug},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestLogLevelText(t *testing.T) {
	var level LogLevel
	require.NoError(t, level.UnmarshalText([]byte("info")))
	assert.Equal(t, LogLevelInfo, level)
	assert.Equal(t, "INFO", level.String())
	assert.Equal(t, "LogLevel(9)", LogLevel(9).String())
	assert.Error(t, level.UnmarshalText([]byte("loud")))
}

var (
	_ Logger = (*DefaultLogger)(nil)
	_ Logger = (*NopLogger)(nil)
	_ Logger = (*MockLogger)(nil)
)
