package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_ValidConfig(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "debug", Format: "json", Output: "stdout"})
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestLogger_WithFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewLoggerWithCore(core)

	logger.With(String("component", "test")).Info("hello", Int("n", 1))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "hello", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "test", fields["component"])
	assert.EqualValues(t, 1, fields["n"])
}

func TestLogger_WithContext_RequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewLoggerWithCore(core)

	ctx := ContextWithRequestID(context.Background(), "req-42")
	logger.WithContext(ctx).Info("scoped")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-42", logs.All()[0].ContextMap()["request_id"])
}

func TestLogger_WithContext_Empty(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewLoggerWithCore(core)

	logger.WithContext(context.Background()).Info("plain")

	require.Equal(t, 1, logs.Len())
	assert.Empty(t, logs.All()[0].Context)
}

func TestRequestIDFromContext(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))

	ctx := ContextWithRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", RequestIDFromContext(ctx))
}

func TestGlobalLogger(t *testing.T) {
	defer SetGlobalLogger(nil)

	nop := NopLogger()
	SetGlobalLogger(nop)
	assert.Equal(t, nop, GetGlobalLogger())
	assert.Equal(t, nop, L())
}

func TestGetGlobalLogger_Default(t *testing.T) {
	SetGlobalLogger(nil)
	assert.NotNil(t, GetGlobalLogger())
}
