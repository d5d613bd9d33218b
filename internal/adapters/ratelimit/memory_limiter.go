package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"go.uber.org/zap"

	"github.com/mikey/contact-intake/internal/metrics"
)

// ErrInvalidLimit is returned when the limiter is configured with non-positive bounds
var ErrInvalidLimit = errors.New("rate limit capacity, window and threshold must be positive")

// entry counts requests from one origin inside the current window
type entry struct {
	count     int
	expiresAt time.Time
}

// MemoryLimiter is a fixed-capacity, in-process implementation of the RateLimiter interface.
// Expired entries are treated as absent when read; there is no background sweeper.
type MemoryLimiter struct {
	mu        sync.Mutex
	entries   *simplelru.LRU[string, *entry]
	window    time.Duration
	threshold int
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures a MemoryLimiter
type Option func(*MemoryLimiter)

// WithClock replaces the time source
func WithClock(now func() time.Time) Option {
	return func(l *MemoryLimiter) {
		l.now = now
	}
}

// NewMemoryLimiter creates a limiter that tracks at most capacity origins and
// admits threshold requests per origin per window
func NewMemoryLimiter(capacity int, window time.Duration, threshold int, logger *zap.Logger, opts ...Option) (*MemoryLimiter, error) {
	if capacity <= 0 || window <= 0 || threshold <= 0 {
		return nil, ErrInvalidLimit
	}

	l := &MemoryLimiter{
		window:    window,
		threshold: threshold,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(l)
	}

	entries, err := simplelru.NewLRU[string, *entry](capacity, l.onEvict)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit table: %w", err)
	}
	l.entries = entries

	return l, nil
}

// Allow reports whether identifier is under its limit and, if so, counts the request.
// Rejected requests are not counted.
func (l *MemoryLimiter) Allow(ctx context.Context, identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries.Get(identifier)
	if !ok || !now.Before(e.expiresAt) {
		e = &entry{expiresAt: now.Add(l.window)}
	}

	if e.count >= l.threshold {
		metrics.RateLimitRejections.Inc()
		return false
	}

	e.count++
	l.entries.Add(identifier, e)
	return true
}

// Len returns the number of tracked origins, including expired ones not yet read
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries.Len()
}

func (l *MemoryLimiter) onEvict(identifier string, e *entry) {
	if l.logger != nil {
		l.logger.Debug("Evicted rate limit entry",
			zap.String("identifier", identifier),
			zap.Int("count", e.count))
	}
}
