package utils

import (
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockLogger records log calls for assertions. Workers log concurrently, so the
// bookkeeping fields are guarded.
type MockLogger struct {
	mock.Mock

	mu       sync.Mutex
	Messages map[string][]string // level -> messages
}

func (m *MockLogger) record(level, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Messages == nil {
		m.Messages = make(map[string][]string)
	}
	m.Messages[level] = append(m.Messages[level], msg)
}

// Logged returns the messages seen at the given level ("debug", "info", "warn", "error").
func (m *MockLogger) Logged(level string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Messages[level]...)
}

func (m *MockLogger) Debug(msg string, keysAndValues ...any) {
	m.record("debug", msg)
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Info(msg string, keysAndValues ...any) {
	m.record("info", msg)
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Warn(msg string, keysAndValues ...any) {
	m.record("warn", msg)
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Error(msg string, keysAndValues ...any) {
	m.record("error", msg)
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) SetLevel(level LogLevel) {
	m.Called(level)
}

// NewPermissiveMockLogger returns a MockLogger that accepts any call.
func NewPermissiveMockLogger() *MockLogger {
	m := &MockLogger{}
	for _, method := range []string{"Debug", "Info", "Warn", "Error"} {
		m.On(method, mock.Anything, mock.Anything).Maybe()
	}
	m.On("SetLevel", mock.Anything).Maybe()
	return m
}
