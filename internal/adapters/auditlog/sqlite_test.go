package auditlog

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mikey/contact-intake/internal/core"
	"github.com/mikey/contact-intake/internal/metrics"
)

func newTestSink(t *testing.T, opts Options) *SQLSink {
	t.Helper()
	sink, err := NewSQLiteSink(filepath.Join(t.TempDir(), "audit.db"), zaptest.NewLogger(t), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Stop() })
	return sink
}

func TestSQLiteSinkRecordsEntries(t *testing.T) {
	sink := newTestSink(t, Options{})
	ctx := context.Background()

	sink.Record(ctx, core.LogEntry{
		Level:   core.LevelWarn,
		Message: "Rate limit exceeded",
		Data:    map[string]any{"ip": "203.0.113.7", "requestId": "req-1"},
		Time:    time.Now(),
	})
	sink.Record(ctx, core.LogEntry{
		Level:   core.LevelInfo,
		Message: "Spam submission detected and blocked.",
		Data:    map[string]any{"reason": "Honeypot field was filled."},
	})

	var entries []Entry
	require.Eventually(t, func() bool {
		var err error
		entries, err = sink.Recent(ctx, 10)
		return err == nil && len(entries) == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "Spam submission detected and blocked.", entries[0].Message)
	assert.Equal(t, core.LevelInfo, entries[0].Level)
	assert.Empty(t, entries[0].RequestID)

	assert.Equal(t, "req-1", entries[1].RequestID)
	assert.Equal(t, core.LevelWarn, entries[1].Level)
	assert.Equal(t, "203.0.113.7", entries[1].Data["ip"])
}

func TestSQLiteSinkCleanup(t *testing.T) {
	sink := newTestSink(t, Options{Retention: time.Hour})
	ctx := context.Background()

	sink.Record(ctx, core.LogEntry{Level: core.LevelInfo, Message: "old", Time: time.Now().Add(-2 * time.Hour)})
	sink.Record(ctx, core.LogEntry{Level: core.LevelInfo, Message: "new", Time: time.Now()})

	require.Eventually(t, func() bool {
		entries, err := sink.Recent(ctx, 10)
		return err == nil && len(entries) == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, sink.Cleanup(ctx))

	entries, err := sink.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].Message)
}

func TestSQLiteSinkStop(t *testing.T) {
	sink := newTestSink(t, Options{})

	require.NoError(t, sink.Stop())
	require.NoError(t, sink.Stop())

	_, err := sink.Recent(context.Background(), 1)
	assert.ErrorIs(t, err, ErrClosed)

	before := testutil.ToFloat64(metrics.AuditLogDropped)
	sink.Record(context.Background(), core.LogEntry{Level: core.LevelInfo, Message: "late"})
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.AuditLogDropped))
}

func TestSQLiteSinkStopRacingRecordLosesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	sink, err := NewSQLiteSink(path, zaptest.NewLogger(t), Options{BufferSize: 64})
	require.NoError(t, err)

	const writers, perWriter = 8, 50
	before := testutil.ToFloat64(metrics.AuditLogDropped)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < perWriter; j++ {
				sink.Record(context.Background(), core.LogEntry{Level: core.LevelInfo, Message: "entry"})
			}
		}()
	}
	close(start)
	require.NoError(t, sink.Stop())
	wg.Wait()

	dropped := testutil.ToFloat64(metrics.AuditLogDropped) - before

	reopened, err := NewSQLiteSink(path, zaptest.NewLogger(t), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Stop() })

	entries, err := reopened.Recent(context.Background(), writers*perWriter)
	require.NoError(t, err)
	assert.Equal(t, float64(writers*perWriter), float64(len(entries))+dropped)
}
