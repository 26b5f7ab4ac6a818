// Package cache provides the key/value backends used for tenant scoped
// response caching and the per-tenant search generation counters.
package cache

import (
	"context"
	"errors"
	"time"
)

// NoExpiry stores a value without a time-to-live.
const NoExpiry time.Duration = 0

// ErrNotIncrementable is returned by Incr when the key is absent or does
// not hold an integer. Incr never creates keys.
var ErrNotIncrementable = errors.New("cache: value is not incrementable")

type Backend interface {
	// Get returns the stored bytes and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Add stores value only when key is absent and reports whether it did.
	Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
	Incr(ctx context.Context, key string) (int64, error)
}
