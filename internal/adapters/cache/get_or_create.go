package cache

import (
	"context"
	"fmt"

	"github.com/zed38662/Solo-leveling/internal/logging"
)

// GetOrCreate returns the cached entry for key, or calls create() to make it.
// At most one create() runs per key at a time; other callers wait for the
// result. If create() fails the claim is released so a later caller can retry.
func GetOrCreate[T any](ctx context.Context, cache Cache[T], key string, create func() (T, error)) (T, error) {
	// Clean up the cache if we claim an entry, but don't set it
	// This allows other callers to try again
	claimed := false
	set := false
	defer func() {
		if claimed && !set {
			cache.delete(key)
		}
	}()

	for {
		result := cache.getOrClaim(key)

		if result.claimed {
			claimed = true

			logging.FromContext(ctx).InfoContext(ctx, "Creating cache entry", "cache", "miss")

			data, err := create()
			if err != nil {
				var empty T
				return empty, fmt.Errorf("failed to create cache entry: %w", err)
			}

			cache.set(key, data)
			set = true

			return data, nil
		}

		if result.valid {
			// Cache hit
			logging.FromContext(ctx).InfoContext(ctx, "Returning cached entry", "cache", "hit")
			return result.data, nil
		}

		logging.FromContext(ctx).InfoContext(ctx, "Waiting for cache")
		cache.wait()
	}
}

// Invalidate drops the cached entry for key so the next caller creates a
// fresh one.
func Invalidate[T any](cache Cache[T], key string) {
	cache.delete(key)
}
