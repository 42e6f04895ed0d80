package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/walletauth/ports"
)

var _ ports.AttemptLimiter = (*MemoryLimiter)(nil)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a single-process fixed-window limiter
type MemoryLimiter struct {
	maxAttempts int
	window      time.Duration
	now         func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// NewMemoryLimiter creates a limiter allowing maxAttempts failures per window
func NewMemoryLimiter(maxAttempts int, w time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		maxAttempts: maxAttempts,
		window:      w,
		now:         time.Now,
		windows:     make(map[string]*window),
	}
}

func (l *MemoryLimiter) current(key string) *window {
	w, ok := l.windows[key]
	if !ok {
		return nil
	}
	if !l.now().Before(w.resetAt) {
		delete(l.windows, key)
		return nil
	}
	return w
}

// Allow reports whether key has failures left in the current window
func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.current(key)
	return w == nil || w.count < l.maxAttempts, nil
}

// RecordFailure increments the counter, starting the window on the first hit
func (l *MemoryLimiter) RecordFailure(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.current(key)
	if w == nil {
		w = &window{resetAt: l.now().Add(l.window)}
		l.windows[key] = w
	}
	w.count++
	return nil
}

// Reset clears the counter
func (l *MemoryLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.windows, key)
	return nil
}
