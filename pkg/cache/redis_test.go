package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisBackend(t *testing.T) (*RedisBackend, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBackend(client), srv
}

func TestRedisBackend_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	b, srv := newRedisBackend(t)

	_, ok, err := b.Get(ctx, "acme:catalog:products:list")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, b.Set(ctx, "acme:catalog:products:list", []byte(`[]`), 2*time.Minute))
	v, ok, err := b.Get(ctx, "acme:catalog:products:list")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `[]`, string(v))
	require.Equal(t, 2*time.Minute, srv.TTL("acme:catalog:products:list"))

	require.NoError(t, b.Delete(ctx, "acme:catalog:products:list", "missing"))
	require.False(t, srv.Exists("acme:catalog:products:list"))
}

func TestRedisBackend_SetNoExpiry(t *testing.T) {
	ctx := context.Background()
	b, srv := newRedisBackend(t)

	require.NoError(t, b.Set(ctx, "counter", []byte("1"), NoExpiry))
	require.Equal(t, time.Duration(0), srv.TTL("counter"))
}

func TestRedisBackend_Add(t *testing.T) {
	ctx := context.Background()
	b, srv := newRedisBackend(t)

	added, err := b.Add(ctx, "gen", []byte("1"), NoExpiry)
	require.NoError(t, err)
	require.True(t, added)

	added, err = b.Add(ctx, "gen", []byte("7"), NoExpiry)
	require.NoError(t, err)
	require.False(t, added)

	got, _ := srv.Get("gen")
	require.Equal(t, "1", got)
}

func TestRedisBackend_Incr(t *testing.T) {
	ctx := context.Background()
	b, srv := newRedisBackend(t)

	t.Run("missing key is not created", func(t *testing.T) {
		_, err := b.Incr(ctx, "absent")
		require.ErrorIs(t, err, ErrNotIncrementable)
		require.False(t, srv.Exists("absent"))
	})

	t.Run("non integer", func(t *testing.T) {
		require.NoError(t, srv.Set("garbage", "abc"))
		_, err := b.Incr(ctx, "garbage")
		require.ErrorIs(t, err, ErrNotIncrementable)
		got, _ := srv.Get("garbage")
		require.Equal(t, "abc", got)
	})

	t.Run("integer", func(t *testing.T) {
		require.NoError(t, srv.Set("gen", "4"))
		n, err := b.Incr(ctx, "gen")
		require.NoError(t, err)
		require.Equal(t, int64(5), n)
		got, _ := srv.Get("gen")
		require.Equal(t, "5", got)
	})
}

func TestRedisBackend_ConnectionFailure(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	b := NewRedisBackend(client)

	_, _, err := b.Get(ctx, "k")
	require.Error(t, err)

	_, err = b.Incr(ctx, "k")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotIncrementable)
}

func TestDialRedis_InvalidURL(t *testing.T) {
	_, _, err := DialRedis("://nope")
	require.Error(t, err)
}
