package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mikey/contact-intake/internal/core"
)

func TestZapSinkLevels(t *testing.T) {
	tests := []struct {
		level core.LogLevel
		want  zapcore.Level
	}{
		{core.LevelInfo, zapcore.InfoLevel},
		{core.LevelWarn, zapcore.WarnLevel},
		{core.LevelError, zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			observed, logs := observer.New(zapcore.DebugLevel)
			sink := NewZapSink(zap.New(observed))

			sink.Record(context.Background(), core.LogEntry{
				Level:   tt.level,
				Message: "Rate limit exceeded",
				Data:    map[string]any{"ip": "203.0.113.7", "userAgent": "curl"},
			})

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.want, entry.Level)
			assert.Equal(t, "Rate limit exceeded", entry.Message)
			assert.Equal(t, "submission", entry.LoggerName)
			assert.Equal(t, "203.0.113.7", entry.ContextMap()["ip"])
		})
	}
}

func TestMultiSinkFansOut(t *testing.T) {
	first, firstLogs := observer.New(zapcore.InfoLevel)
	second, secondLogs := observer.New(zapcore.InfoLevel)

	sink := MultiSink{NewZapSink(zap.New(first)), nil, NewZapSink(zap.New(second))}
	sink.Record(context.Background(), core.LogEntry{Level: core.LevelInfo, Message: "hello"})

	assert.Equal(t, 1, firstLogs.Len())
	assert.Equal(t, 1, secondLogs.Len())
}

func TestInitConsoleLogger(t *testing.T) {
	logger, err := InitConsoleLogger(true, true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}
