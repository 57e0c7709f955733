package middleware

import (
	"log/slog"
	"net/http"

	"github.com/garrettladley/storefront/internal/xcontext"
	"github.com/garrettladley/storefront/internal/xslog"
)

// Logger puts base, tagged with the request id and client IP, into the
// request context. It must run after RequestID.
func Logger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attrs := []slog.Attr{xslog.RequestIP(r)}
			if id, ok := xcontext.GetRequestID(r.Context()); ok {
				attrs = append(attrs, xslog.RequestID(id))
			}
			ctx := xslog.WithAttrs(xslog.WithLogger(r.Context(), base), attrs...)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
