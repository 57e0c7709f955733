package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/garrettladley/storefront/internal/storage"
	"github.com/garrettladley/storefront/internal/xhttp"
)

type errLimiter struct{}

func (errLimiter) Allow(context.Context, string) (storage.RateLimitResult, error) {
	return storage.RateLimitResult{}, errors.New("redis down")
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	limiter := storage.NewWindowLimiter(storage.NewMemoryCounterStore(time.Minute), 2, time.Minute)
	h := RateLimit(limiter, "webhook")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/payment", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for range 2 {
		if rec := do("192.0.2.1"); rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
	}

	rec := do("192.0.2.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get(xhttp.RetryAfter); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}

	if rec := do("192.0.2.2"); rec.Code != http.StatusNoContent {
		t.Errorf("other ip status = %d, want 204", rec.Code)
	}
}

func TestRateLimit_LimiterError(t *testing.T) {
	t.Parallel()

	h := RateLimit(errLimiter{}, "checkout")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("next handler called")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/checkout/preference", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
