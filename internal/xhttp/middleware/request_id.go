package middleware

import (
	"net/http"
	"strings"

	"github.com/garrettladley/storefront/internal/xcontext"
	"github.com/garrettladley/storefront/internal/xhttp"
	"github.com/google/uuid"
)

const maxInboundRequestIDLen = 128

type RequestIDMiddleware struct {
	IDFunc func(*http.Request) string
}

type RequestIDOption func(*RequestIDMiddleware)

// WithIDFunc overrides how request ids are generated.
func WithIDFunc(fn func(*http.Request) string) RequestIDOption {
	return func(m *RequestIDMiddleware) { m.IDFunc = fn }
}

// WithInboundHeader reuses a caller supplied X-Request-Id when it is present
// and reasonably sized. The value is only used for log correlation.
func WithInboundHeader() RequestIDOption {
	return func(m *RequestIDMiddleware) {
		next := m.IDFunc
		m.IDFunc = func(r *http.Request) string {
			if id := strings.TrimSpace(r.Header.Get(xhttp.XRequestID)); id != "" && len(id) <= maxInboundRequestIDLen {
				return id
			}
			return next(r)
		}
	}
}

func RequestID(opts ...RequestIDOption) func(http.Handler) http.Handler {
	m := &RequestIDMiddleware{
		IDFunc: func(_ *http.Request) string {
			return uuid.New().String()
		},
	}

	for _, opt := range opts {
		opt(m)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := m.IDFunc(r)
			ctx := xcontext.SetRequestID(r.Context(), id)
			xhttp.SetHeaderRequestID(w, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
