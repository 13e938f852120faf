package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCache(client, zap.NewNop(), "repair-offers"), mr
}

func TestCache_SetAndGet(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "search:abc", []byte(`{"offers":[]}`), time.Minute))

	got, err := cache.Get(ctx, "search:abc")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"offers":[]}`), got)
}

func TestCache_GetMissingKey(t *testing.T) {
	cache, _ := newTestCache(t)

	got, err := cache.Get(context.Background(), "search:nothing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_EntryExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "search:abc", []byte("v"), 900*time.Second))

	mr.FastForward(901 * time.Second)

	got, err := cache.Get(ctx, "search:abc")
	require.NoError(t, err)
	assert.Nil(t, got, "expired entry reads as a miss")
}

func TestCache_KeysAreNamespaced(t *testing.T) {
	cache, mr := newTestCache(t)

	require.NoError(t, cache.Set(context.Background(), "search:abc", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("repair-offers:search:abc"))
}

func TestCache_DeleteIsIdempotent(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "search:abc", []byte("v"), time.Minute))
	require.NoError(t, cache.Delete(ctx, "search:abc"))
	require.NoError(t, cache.Delete(ctx, "search:abc"))

	got, err := cache.Get(ctx, "search:abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_ClearOnlyTouchesOwnPrefix(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "search:abc", []byte("v"), time.Minute))
	require.NoError(t, mr.Set("other-app:key", "keep"))

	require.NoError(t, cache.Clear(ctx))

	assert.False(t, mr.Exists("repair-offers:search:abc"))
	assert.True(t, mr.Exists("other-app:key"))
}
