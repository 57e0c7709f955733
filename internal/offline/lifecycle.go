package offline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/garrettladley/storefront/internal/xslog"
)

type State uint8

const (
	StateInstalling State = iota
	StateInstalled
	StateActivating
	StateActive
)

func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	}
	return "unknown"
}

var ErrInvalidState = errors.New("invalid lifecycle state")

func (r *Router) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Router) transition(from, to State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != from {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidState, r.state, to)
	}
	r.state = to
	return nil
}

// Install precaches every configured URL into the static partition. Any
// failed fetch fails the install and leaves the router installing. With
// SkipWaiting configured or requested, a successful install activates
// immediately.
func (r *Router) Install(ctx context.Context) error {
	if state := r.State(); state != StateInstalling {
		return fmt.Errorf("%w: install from %s", ErrInvalidState, state)
	}

	cache, err := r.caches.Open(ctx, r.partitions.Static)
	if err != nil {
		return fmt.Errorf("open static partition: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.PrecacheConcurrency)
	for _, u := range r.cfg.Precache {
		g.Go(func() error {
			req, err := http.NewRequestWithContext(gctx, http.MethodGet, u, nil)
			if err != nil {
				return fmt.Errorf("precache %s: %w", u, err)
			}
			resp, err := r.fetcher.Do(req)
			if err != nil {
				return fmt.Errorf("precache %s: %w", u, err)
			}
			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				_ = resp.Body.Close()
				return fmt.Errorf("precache %s: unexpected status %d", u, resp.StatusCode)
			}

			snapshot, resp, err := snapshotResponse(resp, r.cfg.MaxEntryBytes, r.now())
			if err != nil {
				return fmt.Errorf("precache %s: %w", u, err)
			}
			_ = resp.Body.Close()
			if snapshot == nil {
				return fmt.Errorf("precache %s: body exceeds %d bytes", u, r.cfg.MaxEntryBytes)
			}
			return cache.Put(gctx, RequestKey(req), snapshot)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("install: %w", err)
	}

	if err := r.transition(StateInstalling, StateInstalled); err != nil {
		return err
	}
	r.logger.InfoContext(ctx, "installed",
		xslog.Partition(r.partitions.Static),
		xslog.Count(len(r.cfg.Precache)),
	)

	r.mu.RLock()
	skip := r.cfg.SkipWaiting || r.skipWaiting
	r.mu.RUnlock()
	if skip {
		_, err := r.Activate(ctx)
		return err
	}
	return nil
}

// SkipWaiting activates an installed router. Called while installing, it
// takes effect as soon as Install succeeds. It is a no-op once the router is
// activating or active.
func (r *Router) SkipWaiting(ctx context.Context) error {
	r.mu.Lock()
	state := r.state
	if state == StateInstalling {
		r.skipWaiting = true
	}
	r.mu.Unlock()

	if state == StateInstalled {
		_, err := r.Activate(ctx)
		return err
	}
	return nil
}

// Activate deletes every partition that does not belong to the current
// version, then starts intercepting requests. It returns the deleted names.
func (r *Router) Activate(ctx context.Context) ([]string, error) {
	if err := r.transition(StateInstalled, StateActivating); err != nil {
		return nil, err
	}

	deleted, err := r.Cleanup(ctx)
	if err != nil {
		// stay installed so activation can be retried
		r.mu.Lock()
		r.state = StateInstalled
		r.mu.Unlock()
		return deleted, fmt.Errorf("activate: %w", err)
	}

	if err := r.transition(StateActivating, StateActive); err != nil {
		return deleted, err
	}
	r.logger.InfoContext(ctx, "activated and claimed clients",
		xslog.LifecycleState(StateActive.String()),
		xslog.Partition(r.partitions.Static),
	)
	return deleted, nil
}

// Cleanup deletes every partition outside the current version's set.
func (r *Router) Cleanup(ctx context.Context) ([]string, error) {
	names, err := r.caches.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}

	var deleted []string
	for _, name := range names {
		if r.partitions.contains(name) {
			continue
		}
		ok, err := r.caches.Delete(ctx, name)
		if err != nil {
			return deleted, fmt.Errorf("delete partition %s: %w", name, err)
		}
		if ok {
			deleted = append(deleted, name)
			r.logger.InfoContext(ctx, "deleted stale cache partition", xslog.Partition(name))
		}
	}
	r.metrics.PartitionsPurged(len(deleted))
	return slices.Clip(deleted), nil
}
