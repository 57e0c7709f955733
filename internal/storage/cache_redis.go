package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	go_json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	cacheIndexKey        = "caches"
	cachePartitionPrefix = "cache:"
)

var (
	_ CacheStorage = (*RedisCacheStorage)(nil)
	_ Cache        = (*redisCache)(nil)
)

// RedisCacheStorage keeps partition names in a sorted set scored by creation
// time and each partition's entries in a hash keyed by request identity.
type RedisCacheStorage struct {
	client *redis.Client
	prefix string
}

func NewRedisCacheStorage(cfg RedisConfig) *RedisCacheStorage {
	return &RedisCacheStorage{client: cfg.Client, prefix: cfg.KeyPrefix}
}

func (s *RedisCacheStorage) indexKey() string {
	return s.prefix + cacheIndexKey
}

func (s *RedisCacheStorage) partitionKey(name string) string {
	return s.prefix + cachePartitionPrefix + name
}

func (s *RedisCacheStorage) Open(ctx context.Context, name string) (Cache, error) {
	err := s.client.ZAddNX(ctx, s.indexKey(), redis.Z{
		Score:  float64(time.Now().UnixNano()),
		Member: name,
	}).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to register cache partition: %w", err)
	}
	return &redisCache{client: s.client, key: s.partitionKey(name)}, nil
}

func (s *RedisCacheStorage) Has(ctx context.Context, name string) (bool, error) {
	_, err := s.client.ZScore(ctx, s.indexKey(), name).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up cache partition: %w", err)
	}
	return true, nil
}

func (s *RedisCacheStorage) Delete(ctx context.Context, name string) (bool, error) {
	var removed *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.ZRem(ctx, s.indexKey(), name)
		pipe.Del(ctx, s.partitionKey(name))
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete cache partition: %w", err)
	}
	return removed.Val() > 0, nil
}

func (s *RedisCacheStorage) Keys(ctx context.Context) ([]string, error) {
	names, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list cache partitions: %w", err)
	}
	return names, nil
}

func (s *RedisCacheStorage) Match(ctx context.Context, key string) (*CachedResponse, string, error) {
	names, err := s.Keys(ctx)
	if err != nil {
		return nil, "", err
	}
	for _, name := range names {
		c := &redisCache{client: s.client, key: s.partitionKey(name)}
		resp, err := c.Match(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		return resp, name, nil
	}
	return nil, "", ErrNotFound
}

type redisCache struct {
	client *redis.Client
	key    string
}

func (c *redisCache) Match(ctx context.Context, key string) (*CachedResponse, error) {
	data, err := c.client.HGet(ctx, c.key, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	var resp CachedResponse
	if err := go_json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return &resp, nil
}

func (c *redisCache) Put(ctx context.Context, key string, resp *CachedResponse) error {
	data, err := go_json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if err := c.client.HSet(ctx, c.key, key, data).Err(); err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, key string) (bool, error) {
	n, err := c.client.HDel(ctx, c.key, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return n > 0, nil
}
