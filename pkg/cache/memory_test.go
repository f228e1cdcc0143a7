package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.NoError(t, c.Set(ctx, "k1", payload{Name: "front", Count: 7}, time.Minute))

	var got payload
	require.NoError(t, c.Get(ctx, "k1", &got))
	assert.Equal(t, payload{Name: "front", Count: 7}, got)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache()

	var got string
	err := c.Get(context.Background(), "absent", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", "value", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	var got string
	err := c.Get(ctx, "short", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheZeroExpirationNeverExpires(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "forever", "value", 0))

	var got string
	require.NoError(t, c.Get(ctx, "forever", &got))
	assert.Equal(t, "value", got)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))
	require.NoError(t, c.Delete(ctx, "a", "b", "missing"))

	var got int
	assert.ErrorIs(t, c.Get(ctx, "a", &got), ErrCacheMiss)
	assert.ErrorIs(t, c.Get(ctx, "b", &got), ErrCacheMiss)
}

func TestMemoryCacheDeletePattern(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "fleetops:movements:search:AB:1:20", []string{"m1"}, time.Minute))
	require.NoError(t, c.Set(ctx, "fleetops:movements:search:CD:1:20", []string{"m2"}, time.Minute))
	require.NoError(t, c.Set(ctx, "fleetops:movement:abc", "entity", time.Minute))

	removed, err := c.DeletePattern(ctx, "fleetops:movements:*")
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	// The entity key sits under a different prefix and survives.
	var got string
	require.NoError(t, c.Get(ctx, "fleetops:movement:abc", &got))
	assert.Equal(t, "entity", got)
}
