package ports

import "context"

// AttemptLimiter bounds failed verification attempts per key
type AttemptLimiter interface {
	// Allow reports whether key still has attempts left in the current window
	Allow(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}
