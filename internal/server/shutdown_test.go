package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestShutdownCoordinator(t *testing.T) {
	t.Parallel()

	sc := NewShutdownCoordinator(time.Second)

	var waited bool
	sc.OnShutdown(func() {
		<-sc.BaseContext().Done()
		waited = true
	})

	if !sc.InitiateShutdown() {
		t.Fatal("InitiateShutdown() = false, want true")
	}
	if !waited {
		t.Error("waiter did not run")
	}
	if sc.BaseContext().Err() == nil {
		t.Error("base context not cancelled")
	}
}

func TestShutdownCoordinator_GracePeriodElapses(t *testing.T) {
	t.Parallel()

	sc := NewShutdownCoordinator(10 * time.Millisecond)
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	sc.OnShutdown(func() { <-block })

	if sc.InitiateShutdown() {
		t.Error("InitiateShutdown() = true, want false when a waiter blocks")
	}
}

func TestShutdownCoordinator_DrainsRequestsBeforeCancelling(t *testing.T) {
	t.Parallel()

	sc := NewShutdownCoordinator(time.Second)

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(event string) {
		mu.Lock()
		order = append(order, event)
		mu.Unlock()
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	ts := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		if err := r.Context().Err(); err != nil {
			record("request cancelled")
		} else {
			record("request finished")
		}
		w.WriteHeader(http.StatusOK)
	}))
	ts.Config.BaseContext = func(net.Listener) context.Context { return sc.BaseContext() }
	shuttingDown := make(chan struct{})
	ts.Config.RegisterOnShutdown(func() { close(shuttingDown) })
	ts.Start()
	t.Cleanup(ts.Close)

	sc.OnShutdown(func() { record("waiter ran") })

	clientErr := make(chan error, 1)
	go func() {
		resp, err := ts.Client().Get(ts.URL)
		if err == nil {
			_ = resp.Body.Close()
		}
		clientErr <- err
	}()
	<-entered

	type outcome struct {
		drained bool
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		drained, err := sc.Shutdown(context.Background(), ts.Config)
		done <- outcome{drained, err}
	}()

	<-shuttingDown
	if err := sc.BaseContext().Err(); err != nil {
		t.Errorf("base context cancelled while a request was in flight: %v", err)
	}
	close(release)

	got := <-done
	if got.err != nil {
		t.Fatalf("Shutdown() error = %v", got.err)
	}
	if !got.drained {
		t.Error("Shutdown() drained = false, want true")
	}
	if err := <-clientErr; err != nil {
		t.Errorf("in-flight request failed: %v", err)
	}
	if sc.BaseContext().Err() == nil {
		t.Error("base context not cancelled after shutdown")
	}

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]string{"request finished", "waiter ran"}, order); diff != "" {
		t.Errorf("shutdown order mismatch (-want +got):\n%s", diff)
	}
}
