package auditlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/contact-intake/internal/core"
	"github.com/mikey/contact-intake/internal/metrics"
)

// ErrClosed is returned by queries made after Stop
var ErrClosed = errors.New("audit log is closed")

// Entry is a persisted pipeline log entry
type Entry struct {
	ID        int64
	RequestID string
	Level     core.LogLevel
	Message   string
	Data      map[string]any
	CreatedAt time.Time
}

// dialect holds the statements that differ between database engines
type dialect struct {
	driver string
	schema []string
}

const (
	insertEntry = `
		INSERT INTO submission_log (request_id, level, message, data, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	selectRecent = `
		SELECT id, request_id, level, message, data, created_at
		FROM submission_log
		ORDER BY id DESC
		LIMIT ?
	`
	deleteExpired = `
		DELETE FROM submission_log
		WHERE created_at <= ?
	`
)

// SQLSink persists log entries to a SQL database. Writes happen on a
// background worker; Record drops entries when the buffer is full.
type SQLSink struct {
	db          *sql.DB
	logger      *zap.Logger
	retention   time.Duration
	cleanupFreq time.Duration
	entries     chan core.LogEntry
	mu          sync.RWMutex // guards stopped against in-flight Record calls
	stopped     bool
	stopCh      chan struct{}
	wg          sync.WaitGroup
	stopOnce    sync.Once
	closed      chan struct{}
}

// Options configures a SQLSink
type Options struct {
	Retention   time.Duration
	CleanupFreq time.Duration
	BufferSize  int
}

func newSQLSink(db *sql.DB, d dialect, logger *zap.Logger, opts Options) (*SQLSink, error) {
	for _, stmt := range d.schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create %s schema: %w", d.driver, err)
		}
	}

	if opts.BufferSize <= 0 {
		opts.BufferSize = 256
	}

	s := &SQLSink{
		db:          db,
		logger:      logger.Named("auditlog"),
		retention:   opts.Retention,
		cleanupFreq: opts.CleanupFreq,
		entries:     make(chan core.LogEntry, opts.BufferSize),
		stopCh:      make(chan struct{}),
		closed:      make(chan struct{}),
	}

	s.wg.Add(1)
	go s.writeLoop()

	if s.retention > 0 && s.cleanupFreq > 0 {
		s.wg.Add(1)
		go s.startCleanupTask()
	}
	return s, nil
}

// Record queues the entry for persistence without blocking. Entries
// recorded after Stop begins are dropped.
func (s *SQLSink) Record(_ context.Context, entry core.LogEntry) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		metrics.AuditLogDropped.Inc()
		return
	}

	select {
	case s.entries <- entry:
	default:
		metrics.AuditLogDropped.Inc()
	}
}

func (s *SQLSink) writeLoop() {
	defer s.wg.Done()
	for {
		select {
		case entry := <-s.entries:
			s.write(entry)
		case <-s.stopCh:
			// Flush what is already queued
			for {
				select {
				case entry := <-s.entries:
					s.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (s *SQLSink) write(entry core.LogEntry) {
	created := entry.Time
	if created.IsZero() {
		created = time.Now()
	}

	requestID, _ := entry.Data["requestId"].(string)
	data, err := json.Marshal(entry.Data)
	if err != nil {
		s.logger.Warn("Failed to encode log entry data", zap.Error(err))
		data = []byte("{}")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, insertEntry,
		requestID, string(entry.Level), entry.Message, string(data), created.UnixMilli()); err != nil {
		s.logger.Error("Failed to insert log entry", zap.Error(err), zap.String("message", entry.Message))
	}
}

// Recent returns up to limit entries, newest first
func (s *SQLSink) Recent(ctx context.Context, limit int) ([]Entry, error) {
	select {
	case <-s.closed:
		return nil, ErrClosed
	default:
	}

	rows, err := s.db.QueryContext(ctx, selectRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query log entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			level   string
			data    string
			created int64
		)
		if err := rows.Scan(&e.ID, &e.RequestID, &level, &e.Message, &data, &created); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		e.Level = core.LogLevel(level)
		e.CreatedAt = time.UnixMilli(created)
		if err := json.Unmarshal([]byte(data), &e.Data); err != nil {
			s.logger.Warn("Failed to decode log entry data", zap.Int64("id", e.ID), zap.Error(err))
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Cleanup removes entries older than the retention period
func (s *SQLSink) Cleanup(ctx context.Context) error {
	cutoff := time.Now().Add(-s.retention).UnixMilli()
	result, err := s.db.ExecContext(ctx, deleteExpired, cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		s.logger.Debug("Cleaned up expired log entries", zap.Int64("expired_count", rowsAffected))
	}
	return nil
}

func (s *SQLSink) startCleanupTask() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Cleanup(context.Background()); err != nil {
				s.logger.Error("Failed to clean up audit log", zap.Error(err))
			}
		case <-s.stopCh:
			return
		}
	}
}

// Stop flushes queued entries, stops the background tasks and closes the database
func (s *SQLSink) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		// Once stopped is set no Record can enqueue, so the flush in
		// writeLoop sees every accepted entry
		s.mu.Lock()
		s.stopped = true
		close(s.stopCh)
		s.mu.Unlock()

		s.wg.Wait()
		close(s.closed)
		err = s.db.Close()
	})
	return err
}
