package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicsocial/internal/logger"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStoreWithClient(client, "test:perm", time.Minute), mr
}

func TestRedisStore_RoundTripAndBump(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	gen, err := store.Generation(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, gen)

	require.NoError(t, store.Set(ctx, gen, "admin", []string{"role.read"}))
	got, ok, err := store.Get(ctx, gen, "admin")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"role.read"}, got)
	assert.True(t, mr.Exists("test:perm:0:admin"))
	assert.Equal(t, time.Minute, mr.TTL("test:perm:0:admin"))

	require.NoError(t, store.Bump(ctx))
	gen, err = store.Generation(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, gen)

	_, ok, err = store.Get(ctx, gen, "admin")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_SharedAcrossCaches(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)
	a := New(store, WithLogger(logger.Nop()))
	b := New(store, WithLogger(logger.Nop()))
	var calls int32
	load := countingLoader(&calls, "artist.read")

	_, err := a.GetOrLoad(ctx, []string{"artist"}, load)
	require.NoError(t, err)
	_, err = b.GetOrLoad(ctx, []string{"artist"}, load)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	require.NoError(t, b.Invalidate(ctx))
	_, err = a.GetOrLoad(ctx, []string{"artist"}, load)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestRedisStore_ServerDownDegradesToLoader(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)
	mr.Close()
	c := New(store, WithLogger(logger.Nop()))
	var calls int32

	perms, err := c.GetOrLoad(ctx, []string{"admin"}, countingLoader(&calls, "role.read"))
	require.NoError(t, err)
	assert.Equal(t, []string{"role.read"}, perms)
}
