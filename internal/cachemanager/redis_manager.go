package cachemanager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/talenthium/patchtree/internal/log"
)

// RedisCacheManager implements CacheManager on a shared redis instance.
// Values are JSON encoded and keys are namespaced as "<prefix>:<useCase>:<key>".
type RedisCacheManager[K ~string, V any] struct {
	client    redis.UniversalClient
	namespace string
	useCase   string
}

var _ CacheManager[string, []byte] = (*RedisCacheManager[string, []byte])(nil)

// NewRedisCacheManager wraps client. prefix may be empty.
func NewRedisCacheManager[K ~string, V any](client redis.UniversalClient, prefix, useCase string) *RedisCacheManager[K, V] {
	namespace := useCase
	if prefix != "" {
		namespace = prefix + ":" + useCase
	}
	return &RedisCacheManager[K, V]{
		client:    client,
		namespace: namespace,
		useCase:   useCase,
	}
}

func (c *RedisCacheManager[K, V]) key(k K) string {
	return c.namespace + ":" + string(k)
}

func (c *RedisCacheManager[K, V]) decode(key K, raw string) (V, bool) {
	var v V
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		log.ErrorErr(log.CatCache, "decoding cached value", err, "cache", c.useCase, "key", key)
		return v, false
	}
	return v, true
}

// Get retrieves an item from the cache by its key
func (c *RedisCacheManager[K, V]) Get(ctx context.Context, key K) (V, bool) {
	var zero V

	raw, err := c.client.Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		log.Debug(log.CatCache, "cache miss", "cache", c.useCase, "key", key)
		return zero, false
	}
	if err != nil {
		log.ErrorErr(log.CatCache, "redis get failed", err, "cache", c.useCase, "key", key)
		return zero, false
	}

	v, ok := c.decode(key, raw)
	if ok {
		log.Debug(log.CatCache, "cache hit", "cache", c.useCase, "key", key)
	}
	return v, ok
}

// GetMultiple fetches keys with a single MGET.
func (c *RedisCacheManager[K, V]) GetMultiple(ctx context.Context, keys []K) (map[K]V, bool) {
	if len(keys) == 0 {
		return nil, false
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}

	raws, err := c.client.MGet(ctx, full...).Result()
	if err != nil {
		log.ErrorErr(log.CatCache, "redis mget failed", err, "cache", c.useCase)
		return nil, false
	}

	values := make(map[K]V, len(keys))
	for i, raw := range raws {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		if v, ok := c.decode(keys[i], s); ok {
			values[keys[i]] = v
		}
	}
	if len(values) == 0 {
		return nil, false
	}
	return values, true
}

// GetWithRefresh retrieves an item and, when found, resets its TTL.
func (c *RedisCacheManager[K, V]) GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool) {
	v, ok := c.Get(ctx, key)
	if !ok {
		return v, false
	}
	if err := c.client.Expire(ctx, c.key(key), ttl).Err(); err != nil {
		log.ErrorErr(log.CatCache, "redis expire failed", err, "cache", c.useCase, "key", key)
	}
	return v, true
}

// Set stores value under key for ttl. Failures are logged; the cache is best effort.
func (c *RedisCacheManager[K, V]) Set(ctx context.Context, key K, value V, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		log.ErrorErr(log.CatCache, "encoding value for cache", err, "cache", c.useCase, "key", key)
		return
	}
	if err := c.client.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		log.ErrorErr(log.CatCache, "redis set failed", err, "cache", c.useCase, "key", key)
	}
}

// Delete removes keys.
func (c *RedisCacheManager[K, V]) Delete(ctx context.Context, keys ...K) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("deleting cache keys: %w", err)
	}
	return nil
}

// Flush removes every key in this cache's namespace. Other namespaces in the
// same database are left alone.
func (c *RedisCacheManager[K, V]) Flush(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.namespace+":*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("flushing cache: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning cache keys: %w", err)
	}
	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("flushing cache: %w", err)
		}
	}
	return nil
}
