package storage

import (
	"context"
	"sync"
	"time"
)

var _ CounterStore = (*MemoryCounterStore)(nil)

type counterEntry struct {
	count       int64
	windowStart time.Time
}

// MemoryCounterStore is a fixed-window counter. A key's count drops back to
// zero once window has elapsed since its first increment.
type MemoryCounterStore struct {
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*counterEntry
}

type MemoryCounterOption func(*MemoryCounterStore)

func WithClock(now func() time.Time) MemoryCounterOption {
	return func(s *MemoryCounterStore) { s.now = now }
}

func NewMemoryCounterStore(window time.Duration, opts ...MemoryCounterOption) *MemoryCounterStore {
	s := &MemoryCounterStore{
		window:  window,
		now:     time.Now,
		entries: make(map[string]*counterEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryCounterStore) Increment(_ context.Context, key string) (int64, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || now.Sub(e.windowStart) >= s.window {
		e = &counterEntry{windowStart: now}
		s.entries[key] = e
	}
	e.count++
	return e.count, nil
}

func (s *MemoryCounterStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Sweep drops expired windows so idle keys do not accumulate.
func (s *MemoryCounterStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	for key, e := range s.entries {
		if now.Sub(e.windowStart) >= s.window {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *MemoryCounterStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-ctx.Done():
			return
		}
	}
}
