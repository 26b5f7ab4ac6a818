package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryBackend keeps entries in process. It backs tests and single
// instance deployments; values are not shared between processes.
type MemoryBackend struct {
	mu    sync.Mutex // serializes Add and Incr
	items *ttlcache.Cache[string, []byte]
}

func NewMemoryBackend() *MemoryBackend {
	items := ttlcache.New[string, []byte](
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go items.Start()
	return &MemoryBackend{items: items}
}

func (b *MemoryBackend) Close() {
	b.items.Stop()
}

func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	item := b.items.Get(key)
	if item == nil {
		return nil, false, nil
	}
	return clone(item.Value()), true, nil
}

func (b *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b.items.Set(key, clone(value), memoryTTL(ttl))
	return nil
}

func (b *MemoryBackend) Add(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.items.Get(key) != nil {
		return false, nil
	}
	b.items.Set(key, clone(value), memoryTTL(ttl))
	return true, nil
}

func (b *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		b.items.Delete(k)
	}
	return nil
}

func (b *MemoryBackend) Incr(_ context.Context, key string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	item := b.items.Get(key)
	if item == nil {
		return 0, ErrNotIncrementable
	}
	n, err := strconv.ParseInt(string(item.Value()), 10, 64)
	if err != nil {
		return 0, ErrNotIncrementable
	}
	n++

	ttl := ttlcache.NoTTL
	if exp := item.ExpiresAt(); !exp.IsZero() {
		ttl = time.Until(exp)
		if ttl <= 0 {
			return 0, ErrNotIncrementable
		}
	}
	b.items.Set(key, []byte(strconv.FormatInt(n, 10)), ttl)
	return n, nil
}

func memoryTTL(ttl time.Duration) time.Duration {
	if ttl <= NoExpiry {
		return ttlcache.NoTTL
	}
	return ttl
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
