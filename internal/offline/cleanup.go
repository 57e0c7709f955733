package offline

import (
	"context"
	"time"

	"github.com/garrettladley/storefront/internal/xslog"
)

// RunCleanup calls Cleanup every interval until ctx is done.
func (r *Router) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.Cleanup(ctx); err != nil {
				r.logger.ErrorContext(ctx, "periodic cache cleanup failed", xslog.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}
