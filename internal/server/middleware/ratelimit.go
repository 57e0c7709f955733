package middleware

import (
	"net/http"

	"github.com/garrettladley/storefront/internal/storage"
	"github.com/garrettladley/storefront/internal/xerrors"
	"github.com/garrettladley/storefront/internal/xhttp"
	"github.com/garrettladley/storefront/internal/xslog"
)

// RateLimit applies per-IP limiting under scope, so separate routes can
// share one limiter without sharing a budget.
func RateLimit(limiter storage.RateLimiter, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := xslog.FromContext(ctx)
			ip := xhttp.GetRequestIP(r)

			result, err := limiter.Allow(ctx, scope+":"+ip)
			if err != nil {
				logger.ErrorContext(ctx, "rate limit check failed",
					xslog.ErrorGroup(err),
					xslog.IP(ip),
				)
				xerrors.WriteError(ctx, w, xerrors.ServiceUnavailable(xerrors.WithMessage("rate limit check failed")))
				return
			}

			if !result.Allowed {
				xerrors.WriteError(ctx, w, xerrors.TooManyRequests(
					xerrors.WithRetryAfter(result.RetryAfter),
					xerrors.WithReason("ip_rate_limit"),
				))
				return
			}

			next.ServeHTTP(w, r.WithContext(xslog.WithAttrs(ctx, xslog.RateLimitScope(scope))))
		})
	}
}
