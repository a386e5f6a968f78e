package blobs

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisRepository(rdb, "blobs:"), mr
}

func TestRedis_SetGetRemove(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedis(t)

	_, ok, err := r.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.SetItem(ctx, "k", "cipher"))
	got, err := mr.Get("blobs:k")
	require.NoError(t, err)
	assert.Equal(t, "cipher", got, "keys are prefixed")

	v, ok, err := r.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cipher", v)

	require.NoError(t, r.RemoveItem(ctx, "k"))
	assert.False(t, mr.Exists("blobs:k"))
	require.NoError(t, r.RemoveItem(ctx, "k"))
}

func TestRedis_ServerDown(t *testing.T) {
	ctx := context.Background()
	r, mr := newRedis(t)
	mr.Close()

	_, _, err := r.GetItem(ctx, "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get blob[k]")

	err = r.SetItem(ctx, "k", "v")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set blob[k]")
}
