package logging

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mikey/contact-intake/internal/core"
)

// ZapSink writes pipeline log entries through a zap logger
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink creates a sink that logs under the "submission" name
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{logger: logger.Named("submission")}
}

// Record logs the entry. It never panics into the caller.
func (s *ZapSink) Record(ctx context.Context, entry core.LogEntry) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Failed to record log entry", zap.Any("panic", r))
		}
	}()

	if ce := s.logger.Check(zapLevel(entry.Level), entry.Message); ce != nil {
		ce.Write(fieldsFor(entry.Data)...)
	}
}

func zapLevel(level core.LogLevel) zapcore.Level {
	switch level {
	case core.LevelWarn:
		return zapcore.WarnLevel
	case core.LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// fieldsFor renders data in key order so log lines are stable
func fieldsFor(data map[string]any) []zap.Field {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, zap.Any(k, data[k]))
	}
	return fields
}

// MultiSink fans an entry out to several sinks
type MultiSink []core.LogSink

// Record forwards the entry to every sink
func (m MultiSink) Record(ctx context.Context, entry core.LogEntry) {
	for _, sink := range m {
		if sink != nil {
			sink.Record(ctx, entry)
		}
	}
}
