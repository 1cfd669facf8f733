package logger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Development(t *testing.T) {
	log, err := NewLogger(Options{Env: "development"})
	assert.NoError(t, err)
	assert.NotNil(t, log)

	// Clean up
	_ = log.Sync()
}

func TestNewLogger_Production(t *testing.T) {
	log, err := NewLogger(Options{Env: "production"})
	assert.NoError(t, err)
	assert.NotNil(t, log)

	_ = log.Sync()
}

// Skipping file logging test due to lumberjack cleanup issues in tests

func TestNewLogger_LevelIsApplied(t *testing.T) {
	log, err := NewLogger(Options{Level: "warn"})
	assert.NoError(t, err)

	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	log, err = NewLogger(Options{Level: "debug"})
	assert.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in       string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"WARNING", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"invalid", zapcore.InfoLevel}, // default
		{"", zapcore.InfoLevel},        // default
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseLevel(tc.in))
		})
	}
}

func TestLogDuration(t *testing.T) {
	// Create an observer to capture logs
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	testLogger := zap.New(observedCore)

	// Test LogDuration
	LogDuration(testLogger, "test_operation", 150*time.Millisecond, zap.String("test_field", "value"))

	// Assert the output
	assert.Equal(t, 1, observedLogs.Len(), "expected exactly one log message")

	logEntry := observedLogs.AllUntimed()[0]
	assert.Equal(t, zapcore.InfoLevel, logEntry.Level, "LogDuration should log at Info level")
	assert.Equal(t, "operation completed", logEntry.Message)

	// Check fields
	assert.Len(t, logEntry.Context, 3) // operation, duration_ms, test_field

	// Find the fields by key
	var operation, testField string
	var durationMs int64

	for _, f := range logEntry.Context {
		switch f.Key {
		case "operation":
			operation = f.String
		case "duration_ms":
			durationMs = f.Integer
		case "test_field":
			testField = f.String
		}
	}

	assert.Equal(t, "test_operation", operation)
	assert.Equal(t, int64(150), durationMs)
	assert.Equal(t, "value", testField)
}

func TestWithContext(t *testing.T) {
	// Create an observer to capture logs
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	testLogger := zap.New(observedCore)

	// Test WithContext
	ctxLogger := WithContext(testLogger, zap.String("component", "test"))
	ctxLogger.Info("test message")

	// Assert the output
	assert.Equal(t, 1, observedLogs.Len(), "expected exactly one log message")

	logEntry := observedLogs.AllUntimed()[0]
	assert.Equal(t, "test message", logEntry.Message)

	// Check context field
	var component string
	for _, f := range logEntry.Context {
		if f.Key == "component" {
			component = f.String
			break
		}
	}

	assert.Equal(t, "test", component)
}
