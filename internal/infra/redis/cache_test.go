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

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewCache(client, zap.NewNop(), "engagement"), mr
}

func TestCache_SetGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "score:c1", []byte(`{"score":42}`), time.Minute))

	data, err := cache.Get(ctx, "score:c1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"score":42}`), data)
}

func TestCache_Get_Missing(t *testing.T) {
	cache, _ := setupTestCache(t)

	data, err := cache.Get(context.Background(), "score:missing")
	require.NoError(t, err, "missing key is not an error")
	assert.Nil(t, data)
}

func TestCache_TTLExpiry(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "score:c1", []byte("x"), 30*time.Minute))

	mr.FastForward(31 * time.Minute)

	data, err := cache.Get(ctx, "score:c1")
	require.NoError(t, err)
	assert.Nil(t, data, "expired key should read as missing")
}

func TestCache_Delete(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "score:c1", []byte("x"), time.Minute))
	require.NoError(t, cache.Delete(ctx, "score:c1"))
	require.NoError(t, cache.Delete(ctx, "score:c1"), "delete is idempotent")

	data, err := cache.Get(ctx, "score:c1")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestCache_Clear_OnlyPrefixed(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "score:c1", []byte("x"), 0))
	require.NoError(t, cache.Set(ctx, "score:c2", []byte("y"), 0))
	mr.Set("other-app:key", "z")

	require.NoError(t, cache.Clear(ctx))

	data, err := cache.Get(ctx, "score:c1")
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.True(t, mr.Exists("other-app:key"), "clear must not touch foreign prefixes")
}
