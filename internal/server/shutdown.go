package server

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// ShutdownCoordinator owns the base context shared by requests and
// background loops. Shutdown drains the HTTP server first, then cancels the
// base context and gives registered background work up to gracePeriod to
// finish.
type ShutdownCoordinator struct {
	baseCtx     context.Context
	cancel      context.CancelFunc
	gracePeriod time.Duration

	mu      sync.Mutex
	waiters []func()
}

func NewShutdownCoordinator(gracePeriod time.Duration) *ShutdownCoordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &ShutdownCoordinator{
		baseCtx:     ctx,
		cancel:      cancel,
		gracePeriod: gracePeriod,
	}
}

// BaseContext is cancelled once in-flight requests have drained.
func (sc *ShutdownCoordinator) BaseContext() context.Context {
	return sc.baseCtx
}

// OnShutdown registers a blocking wait, such as a router's Wait, to run
// during InitiateShutdown.
func (sc *ShutdownCoordinator) OnShutdown(wait func()) {
	sc.mu.Lock()
	sc.waiters = append(sc.waiters, wait)
	sc.mu.Unlock()
}

// Shutdown stops srv, letting in-flight requests finish with live contexts,
// then runs InitiateShutdown. It reports whether the waiters finished in
// time along with any error from srv.Shutdown.
func (sc *ShutdownCoordinator) Shutdown(ctx context.Context, srv *http.Server) (bool, error) {
	err := srv.Shutdown(ctx)
	return sc.InitiateShutdown(), err
}

// InitiateShutdown cancels the base context and blocks until every waiter
// returns or the grace period elapses. It reports whether all waiters
// finished in time.
func (sc *ShutdownCoordinator) InitiateShutdown() bool {
	sc.cancel()

	sc.mu.Lock()
	waiters := append([]func(){}, sc.waiters...)
	sc.mu.Unlock()

	var wg sync.WaitGroup
	for _, wait := range waiters {
		wg.Go(wait)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(sc.gracePeriod)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
