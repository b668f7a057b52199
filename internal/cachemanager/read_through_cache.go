package cachemanager

import (
	"context"
	"time"
)

// ReadThroughCache serves values from cache and falls back to fn on a miss,
// storing successful results. Errors are never cached.
type ReadThroughCache[K comparable, V any, I any] struct {
	cache           CacheManager[K, V]
	fn              func(ctx context.Context, input I) (V, error)
	shouldSkipCache bool
}

// NewReadThroughCache wraps fn. A nil cache behaves like shouldSkipCache.
func NewReadThroughCache[K comparable, V any, I any](
	cache CacheManager[K, V],
	fn func(ctx context.Context, input I) (V, error),
	shouldSkipCache bool,
) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{
		cache:           cache,
		fn:              fn,
		shouldSkipCache: shouldSkipCache || cache == nil,
	}
}

func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	v, _, err := r.Lookup(ctx, key, input, ttl)
	return v, err
}

// Lookup is Get that also reports whether the value came from the cache.
func (r *ReadThroughCache[K, V, I]) Lookup(ctx context.Context, key K, input I, ttl time.Duration) (V, bool, error) {
	if r.shouldSkipCache {
		v, err := r.fn(ctx, input)
		return v, false, err
	}

	if value, ok := r.cache.Get(ctx, key); ok {
		return value, true, nil
	}

	value, err := r.fn(ctx, input)
	if err != nil {
		return value, false, err
	}

	r.cache.Set(ctx, key, value, ttl)
	return value, false, nil
}

func (r *ReadThroughCache[K, V, I]) GetWithRefresh(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	if r.shouldSkipCache {
		return r.fn(ctx, input)
	}

	if value, ok := r.cache.GetWithRefresh(ctx, key, ttl); ok {
		return value, nil
	}

	value, err := r.fn(ctx, input)
	if err != nil {
		return value, err
	}

	r.cache.Set(ctx, key, value, ttl)
	return value, nil
}

// Invalidate drops key so the next lookup calls fn.
func (r *ReadThroughCache[K, V, I]) Invalidate(ctx context.Context, key K) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Delete(ctx, key)
}
