package storage

import (
	"context"
	"net/http"
	"slices"
	"sync"
)

var (
	_ CacheStorage = (*MemoryCacheStorage)(nil)
	_ Cache        = (*memoryCache)(nil)
)

type MemoryCacheStorage struct {
	mu         sync.RWMutex
	order      []string
	partitions map[string]*memoryCache
}

func NewMemoryCacheStorage() *MemoryCacheStorage {
	return &MemoryCacheStorage{partitions: make(map[string]*memoryCache)}
}

func (s *MemoryCacheStorage) Open(_ context.Context, name string) (Cache, error) {
	s.mu.RLock()
	c, ok := s.partitions[name]
	s.mu.RUnlock()
	if ok {
		return c, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok = s.partitions[name]; ok {
		return c, nil
	}
	c = &memoryCache{entries: make(map[string]*CachedResponse)}
	s.partitions[name] = c
	s.order = append(s.order, name)
	return c, nil
}

func (s *MemoryCacheStorage) Has(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	_, ok := s.partitions[name]
	s.mu.RUnlock()
	return ok, nil
}

func (s *MemoryCacheStorage) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.partitions[name]; !ok {
		return false, nil
	}
	delete(s.partitions, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })
	return true, nil
}

func (s *MemoryCacheStorage) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order), nil
}

func (s *MemoryCacheStorage) Match(ctx context.Context, key string) (*CachedResponse, string, error) {
	s.mu.RLock()
	names := slices.Clone(s.order)
	s.mu.RUnlock()

	for _, name := range names {
		s.mu.RLock()
		c, ok := s.partitions[name]
		s.mu.RUnlock()
		if !ok {
			continue
		}
		resp, err := c.Match(ctx, key)
		if err == nil {
			return resp, name, nil
		}
	}
	return nil, "", ErrNotFound
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]*CachedResponse
}

func (c *memoryCache) Match(_ context.Context, key string) (*CachedResponse, error) {
	c.mu.RLock()
	resp, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return cloneCachedResponse(resp), nil
}

func (c *memoryCache) Put(_ context.Context, key string, resp *CachedResponse) error {
	c.mu.Lock()
	c.entries[key] = cloneCachedResponse(resp)
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return false, nil
	}
	delete(c.entries, key)
	return true, nil
}

func cloneCachedResponse(r *CachedResponse) *CachedResponse {
	var header http.Header
	if r.Header != nil {
		header = r.Header.Clone()
	}
	return &CachedResponse{
		StatusCode: r.StatusCode,
		Header:     header,
		Body:       slices.Clone(r.Body),
		StoredAt:   r.StoredAt,
	}
}
