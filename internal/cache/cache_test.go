package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/newthinker/sentinel/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, AnalysisKey("BTCUSDT"), payload{"BTCUSDT", 65000}, time.Minute))

	var got payload
	require.NoError(t, c.Get(ctx, AnalysisKey("BTCUSDT"), &got))
	assert.Equal(t, payload{"BTCUSDT", 65000}, got)

	err := c.Get(ctx, AnalysisKey("ETHUSDT"), &got)
	assert.True(t, errors.Is(err, core.ErrCacheMiss))
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 1, time.Minute))
	now = now.Add(61 * time.Second)

	var v int
	assert.True(t, errors.Is(c.Get(ctx, "k", &v), core.ErrCacheMiss))

	require.NoError(t, c.Set(ctx, "forever", 2, 0))
	now = now.Add(365 * 24 * time.Hour)
	require.NoError(t, c.Get(ctx, "forever", &v))
	assert.Equal(t, 2, v)
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()
	c.Set(ctx, "a", 1, 0)
	c.Set(ctx, "b", 2, 0)

	require.NoError(t, c.Delete(ctx, "a", "b"))
	var v int
	assert.True(t, errors.Is(c.Get(ctx, "a", &v), core.ErrCacheMiss))
}

func TestNew_DisabledUsesMemory(t *testing.T) {
	c, err := New(context.Background(), Config{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)
}

func TestRedisCache_WrapKey(t *testing.T) {
	c := &RedisCache{prefix: "sentinel"}
	assert.Equal(t, "sentinel:analysis:BTCUSDT", c.wrapKey(AnalysisKey("BTCUSDT")))
	c.prefix = ""
	assert.Equal(t, "k", c.wrapKey("k"))
}

// TestRedisCache_RoundTrip runs against a real server when SENTINEL_TEST_REDIS_ADDR is set.
func TestRedisCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("SENTINEL_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SENTINEL_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, Config{Addr: addr, Prefix: "sentinel-test"})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", payload{"X", 1}, time.Minute))
	var got payload
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "X", got.Symbol)

	require.NoError(t, c.Delete(ctx, "k"))
	assert.True(t, errors.Is(c.Get(ctx, "k", &got), core.ErrCacheMiss))
}
