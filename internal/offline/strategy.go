package offline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/garrettladley/storefront/internal/storage"
	"github.com/garrettladley/storefront/internal/xslog"
)

const (
	cacheHit     = "HIT"
	cacheMiss    = "MISS"
	cacheStale   = "STALE"
	cacheOffline = "OFFLINE"
	cacheBypass  = "BYPASS"
)

// cacheFirst serves from the static partition and revalidates in the
// background, or fetches and stores on a miss. A network error on a miss is
// returned as is.
func (r *Router) cacheFirst(req *http.Request, class Classification) (*http.Response, error) {
	ctx := req.Context()
	key := RequestKey(req)
	partition := r.partitions.Static

	cache, err := r.caches.Open(ctx, partition)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to open cache partition", xslog.Partition(partition), xslog.Error(err))
	} else {
		cached, err := cache.Match(ctx, key)
		switch {
		case err == nil:
			r.logDecision(ctx, class, partition, true)
			r.metrics.ObserveDecision(class.String(), StrategyCacheFirst.String(), "hit")
			r.revalidate(req, partition)
			return cachedToResponse(req, cached, partition, cacheHit), nil
		case !errors.Is(err, storage.ErrNotFound):
			r.logger.ErrorContext(ctx, "cache lookup failed", xslog.Partition(partition), xslog.Error(err))
		}
	}

	r.logDecision(ctx, class, partition, false)
	resp, err := r.fetchAndStore(ctx, req, partition)
	if err != nil {
		return nil, err
	}
	r.metrics.ObserveDecision(class.String(), StrategyCacheFirst.String(), "network")
	return resp, nil
}

// networkFirst fetches and stores into the dynamic partition. When the
// network fails it falls back to a match in any partition, and failing that
// returns the network error.
func (r *Router) networkFirst(req *http.Request, class Classification) (*http.Response, error) {
	ctx := req.Context()
	key := RequestKey(req)

	resp, netErr := r.fetchAndStore(ctx, req, r.partitions.Dynamic)
	if netErr == nil {
		r.logDecision(ctx, class, r.partitions.Dynamic, false)
		r.metrics.ObserveDecision(class.String(), StrategyNetworkFirst.String(), "network")
		return resp, nil
	}

	cached, partition, err := r.caches.Match(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.logger.ErrorContext(ctx, "cache fallback lookup failed", xslog.Error(err))
		}
		return nil, netErr
	}

	r.logDecision(ctx, class, partition, true)
	r.metrics.ObserveDecision(class.String(), StrategyNetworkFirst.String(), "stale")
	return cachedToResponse(req, cached, partition, cacheStale), nil
}

// revalidate refreshes partition from the network without blocking the
// caller. Failures are logged and counted, never surfaced. Nothing is
// scheduled once Drain has been called.
func (r *Router) revalidate(req *http.Request, partition string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.draining {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(req.Context()), r.cfg.RevalidateTimeout)
	bgReq := req.Clone(ctx)

	r.revalidations.Go(func() {
		defer cancel()

		resp, err := r.fetchAndStore(ctx, bgReq, partition)
		if err == nil {
			_ = resp.Body.Close()
		}
		r.metrics.ObserveRevalidation(err)
		if err != nil {
			r.logger.WarnContext(ctx, "background revalidation failed",
				slog.String("key", RequestKey(bgReq)),
				xslog.Error(err),
			)
		}
	})
}

// fetchAndStore performs req and, for a shareable 2xx response whose body
// fits in MaxEntryBytes, stores a snapshot in partition. Storage failures are
// logged; only network errors are returned.
func (r *Router) fetchAndStore(ctx context.Context, req *http.Request, partition string) (*http.Response, error) {
	resp, err := r.fetcher.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network: %w", err)
	}
	if resp.Header == nil {
		resp.Header = http.Header{}
	}

	if !storable(resp) {
		resp.Header.Set(headerCache, cacheMiss)
		return resp, nil
	}

	snapshot, resp, err := snapshotResponse(resp, r.cfg.MaxEntryBytes, r.now())
	if err != nil {
		return nil, fmt.Errorf("network: %w", err)
	}
	resp.Header.Set(headerCache, cacheMiss)
	if snapshot == nil {
		return resp, nil
	}

	cache, err := r.caches.Open(ctx, partition)
	if err == nil {
		err = cache.Put(ctx, RequestKey(req), snapshot)
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to store response", xslog.Partition(partition), xslog.Error(err))
	}
	return resp, nil
}

// bypass sends a credentialed or partial request straight to the network
// without consulting or filling the cache.
func (r *Router) bypass(req *http.Request, class Classification) (*http.Response, error) {
	resp, err := r.fetcher.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network: %w", err)
	}
	if resp.Header == nil {
		resp.Header = http.Header{}
	}
	resp.Header.Set(headerCache, cacheBypass)
	r.metrics.ObserveDecision(class.String(), class.Strategy().String(), "bypass")
	return resp, nil
}

func (r *Router) logDecision(ctx context.Context, class Classification, partition string, hit bool) {
	r.logger.DebugContext(ctx, "cache decision",
		xslog.CacheGroup(class.String(), class.Strategy().String(), partition, hit),
	)
}
