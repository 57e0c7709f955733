package storage

import (
	"context"
	"errors"
	"net/http"
	"time"
)

var ErrNotFound = errors.New("not found")

// OrderStatusUpdate is the reconciled payment state for the orders paid by a
// single provider payment.
type OrderStatusUpdate struct {
	PaymentID     string
	PaymentStatus string
	UpdatedAt     time.Time
}

type OrderStore interface {
	// UpdatePaymentStatus sets payment_status and updated_at on the orders
	// whose payment_id equals u.PaymentID, returning how many were updated.
	UpdatePaymentStatus(ctx context.Context, u OrderStatusUpdate) (int64, error)
}

// CounterStore counts events per key. Implementations decide when a count
// expires; WindowLimiter only relies on Increment returning the running total.
type CounterStore interface {
	Increment(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

type RateLimitResult struct {
	Allowed    bool
	Count      int64
	RetryAfter time.Duration
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateLimitResult, error)
}

// CachedResponse is a stored snapshot of an upstream response.
type CachedResponse struct {
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
	StoredAt   time.Time   `json:"stored_at"`
}

// Cache is a single named partition of request/response pairs.
type Cache interface {
	// Match returns ErrNotFound if key is not stored.
	Match(ctx context.Context, key string) (*CachedResponse, error)
	Put(ctx context.Context, key string, resp *CachedResponse) error
	Delete(ctx context.Context, key string) (bool, error)
}

// CacheStorage is the set of named partitions, modelled after the browser
// Cache Storage API.
type CacheStorage interface {
	// Open returns the named partition, creating it if needed.
	Open(ctx context.Context, name string) (Cache, error)
	Has(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) (bool, error)
	// Keys lists partition names in creation order.
	Keys(ctx context.Context) ([]string, error)
	// Match looks key up in every partition in creation order and returns the
	// first hit together with the partition it came from.
	Match(ctx context.Context, key string) (*CachedResponse, string, error)
}
