package storage

import (
	"context"
	"fmt"
	"time"
)

var _ RateLimiter = (*WindowLimiter)(nil)

// WindowLimiter allows up to limit events per key in each counter window.
type WindowLimiter struct {
	store  CounterStore
	limit  int64
	window time.Duration
}

func NewWindowLimiter(store CounterStore, limit int64, window time.Duration) *WindowLimiter {
	return &WindowLimiter{store: store, limit: limit, window: window}
}

func (l *WindowLimiter) Allow(ctx context.Context, key string) (RateLimitResult, error) {
	n, err := l.store.Increment(ctx, key)
	if err != nil {
		return RateLimitResult{}, fmt.Errorf("failed to increment counter: %w", err)
	}

	result := RateLimitResult{Allowed: n <= l.limit, Count: n}
	if !result.Allowed {
		result.RetryAfter = l.window
	}
	return result, nil
}
