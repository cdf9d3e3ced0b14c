package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetOrCreateBasic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("miss creates and caches", func(t *testing.T) {
		t.Parallel()

		c := NewBasicCache[string]()
		calls := 0

		data, err := GetOrCreate(ctx, c, "key", func() (string, error) {
			calls++
			return "value", nil
		})
		require.NoError(t, err)
		require.Equal(t, "value", data)
		require.Equal(t, 1, calls)

		// Second call hits the cache
		data, err = GetOrCreate(ctx, c, "key", func() (string, error) {
			calls++
			return "other", nil
		})
		require.NoError(t, err)
		require.Equal(t, "value", data)
		require.Equal(t, 1, calls)
	})

	t.Run("create error releases the claim", func(t *testing.T) {
		t.Parallel()

		c := NewBasicCache[string]()

		_, err := GetOrCreate(ctx, c, "key", func() (string, error) {
			return "", errors.New("boom")
		})
		require.Error(t, err)

		// The failed claim is cleaned up, so the next caller can create
		data, err := GetOrCreate(ctx, c, "key", func() (string, error) {
			return "recovered", nil
		})
		require.NoError(t, err)
		require.Equal(t, "recovered", data)
	})

	t.Run("separate keys are independent", func(t *testing.T) {
		t.Parallel()

		c := NewBasicCache[int]()

		a, err := GetOrCreate(ctx, c, "a", func() (int, error) { return 1, nil })
		require.NoError(t, err)
		b, err := GetOrCreate(ctx, c, "b", func() (int, error) { return 2, nil })
		require.NoError(t, err)

		require.Equal(t, 1, a)
		require.Equal(t, 2, b)
	})
}

func TestGetOrCreateWaitsForClaim(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewBasicCache[string]()

	// Claim the key directly, simulating an in-flight create by another caller
	result := c.getOrClaim("key")
	require.True(t, result.claimed)

	done := make(chan string)
	go func() {
		data, err := GetOrCreate(ctx, c, "key", func() (string, error) {
			t.Error("create should not run while the key is claimed")
			return "", nil
		})
		require.NoError(t, err)
		done <- data
	}()

	// Complete the in-flight create; the waiting caller picks up the value
	c.set("key", "from-other-caller")

	require.Equal(t, "from-other-caller", <-done)
}
