package storage

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

//go:embed counter.lua
var counterLua string

var counterScript = redis.NewScript(counterLua)

const counterKeyPrefix = "ratelimit:"

var _ CounterStore = (*RedisCounterStore)(nil)

type RedisConfig struct {
	Client    *redis.Client
	KeyPrefix string
}

// RedisCounterStore shares fixed-window counters across instances. The
// window starts at the first INCR of a key and is enforced by PEXPIRE.
type RedisCounterStore struct {
	client *redis.Client
	prefix string
	window time.Duration
}

func NewRedisCounterStore(cfg RedisConfig, window time.Duration) *RedisCounterStore {
	return &RedisCounterStore{
		client: cfg.Client,
		prefix: cfg.KeyPrefix + counterKeyPrefix,
		window: window,
	}
}

func (s *RedisCounterStore) Increment(ctx context.Context, key string) (int64, error) {
	n, err := counterScript.Run(ctx, s.client, []string{s.prefix + key}, s.window.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to run counter script: %w", err)
	}
	return n, nil
}

func (s *RedisCounterStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to reset counter: %w", err)
	}
	return nil
}
