package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/garrettladley/storefront/internal/version"
	"github.com/garrettladley/storefront/internal/xerrors"
	"github.com/garrettladley/storefront/internal/xhttp"
	"github.com/garrettladley/storefront/internal/xslog"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Health struct {
	checks  map[string]Pinger
	timeout time.Duration
}

func NewHealth(checks map[string]Pinger) *Health {
	return &Health{checks: checks, timeout: 2 * time.Second}
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// HandleHealth handles GET /health requests.
func (h *Health) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			xslog.FromContext(ctx).ErrorContext(ctx, "health check failed", xslog.Error(err))
			xerrors.WriteError(ctx, w, xerrors.ServiceUnavailable(xerrors.WithMessage(name+" unavailable"), xerrors.WithCause(err)))
			return
		}
	}

	xhttp.WriteOK(w, healthResponse{Status: "ok", Version: version.Get()})
}
