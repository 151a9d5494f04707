package caching

import (
	"context"
	"time"
)

// GetOrCompute is the cache-aside read path: return the cached value for key
// if live, otherwise invoke producer, store its result with ttl and return
// it. A producer error propagates to the caller and never populates the
// cache. Application code reads through this helper; direct Set/Get on the
// store is reserved for cache maintenance after admin writes.
//
// Concurrent callers racing on the same missing key each invoke producer
// independently; the last write wins. No coalescing is attempted.
func GetOrCompute[T any](ctx context.Context, store *Store, key string, ttl time.Duration, producer func(context.Context) (T, error)) (T, error) {
	if cached, ok := store.Get(key); ok {
		if value, ok := cached.(T); ok {
			return value, nil
		}
		// A type mismatch means the key was reused for a different payload
		// shape; treat it as a miss and overwrite below.
		store.Delete(key)
	}

	value, err := producer(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	store.SetWithTTL(key, value, ttl)
	return value, nil
}
