package edge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/garrettladley/storefront/internal/config"
	"github.com/garrettladley/storefront/internal/paths"
	xredis "github.com/garrettladley/storefront/internal/redis"
	"github.com/garrettladley/storefront/internal/storage"
	"github.com/garrettladley/storefront/internal/xslog"
)

// OpenCacheStorage builds the cache storage named by backend. The returned
// close function releases whatever connection the backend holds.
func OpenCacheStorage(ctx context.Context, logger *slog.Logger, backend, sqlitePath string, redisCfg xredis.Config) (storage.CacheStorage, func() error, error) {
	switch backend {
	case config.CacheBackendMemory:
		logger.InfoContext(ctx, "using in-memory cache storage")
		return storage.NewMemoryCacheStorage(), func() error { return nil }, nil
	case config.CacheBackendRedis:
		client, err := xredis.New(ctx, redisCfg)
		if err != nil {
			return nil, nil, err
		}
		logger.InfoContext(ctx, "using Redis cache storage")
		return storage.NewRedisCacheStorage(storage.RedisConfig{Client: client, KeyPrefix: redisCfg.KeyPrefix}), client.Close, nil
	case config.CacheBackendSQLite:
		path, err := paths.CacheDB(sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		s, err := storage.OpenSQLiteCacheStorage(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		logger.InfoContext(ctx, "using SQLite cache storage", xslog.Path(path))
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}
