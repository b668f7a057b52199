package cachemanager

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"

	"github.com/talenthium/patchtree/internal/config"
	"github.com/talenthium/patchtree/internal/log"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the cache selected by cfg.Backend. The returned closer releases
// the redis connection pool; it is a no-op for the in-memory backend.
// Backend "none" returns a nil manager, which callers treat as cache disabled.
func Open[V any](ctx context.Context, cfg config.CacheConfig, useCase string) (CacheManager[string, V], io.Closer, error) {
	switch cfg.Backend {
	case config.CacheBackendNone:
		return nil, nopCloser{}, nil
	case config.CacheBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
		}
		log.Info(log.CatCache, "Using redis cache", "addr", cfg.RedisAddr, "db", cfg.RedisDB, "cache", useCase)
		return NewRedisCacheManager[string, V](client, cfg.Prefix, useCase), client, nil
	case "", config.CacheBackendMemory:
		ttl := cfg.TTL
		if ttl <= 0 {
			ttl = DefaultExpiration
		}
		return NewInMemoryCacheManager[string, V](useCase, ttl, DefaultCleanupInterval), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
