package cache

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

// incrExisting increments a counter only when it already holds an integer.
// Plain INCR would create missing keys at 1, which hides uninitialized
// generation counters from the caller.
var incrExisting = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
	return redis.error_reply('NOTINIT')
end
if not string.match(v, '^-?%d+$') then
	return redis.error_reply('NOTINT')
end
return redis.call('INCR', KEYS[1])
`)

type RedisBackend struct {
	client redis.UniversalClient
}

func NewRedisBackend(client redis.UniversalClient) *RedisBackend {
	return &RedisBackend{client: client}
}

// DialRedis parses a redis:// URL and returns a backend bound to a new client.
func DialRedis(url string) (*RedisBackend, *redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, errors.Wrap(err, "parse redis url")
	}
	client := redis.NewClient(opts)
	return NewRedisBackend(client), client, nil
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "redis get %s", key)
	}
	return v, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := b.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errors.Wrapf(err, "redis set %s", key)
	}
	return nil
}

func (b *RedisBackend) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ok, err := b.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, errors.Wrapf(err, "redis setnx %s", key)
	}
	return ok, nil
}

func (b *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := b.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}

func (b *RedisBackend) Incr(ctx context.Context, key string) (int64, error) {
	n, err := incrExisting.Run(ctx, b.client, []string{key}).Int64()
	if err == nil {
		return n, nil
	}
	if isNotIncrementable(err) {
		return 0, ErrNotIncrementable
	}
	return 0, errors.Wrapf(err, "redis incr %s", key)
}

func isNotIncrementable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "NOTINIT") ||
		strings.Contains(msg, "NOTINT") ||
		strings.Contains(msg, "not an integer")
}
