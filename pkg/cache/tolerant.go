package cache

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// TolerantBackend turns Get/Set/Delete failures into misses and logged
// no-ops. Incr errors are returned unchanged so callers can run their own
// fallback.
type TolerantBackend struct {
	next   Backend
	logger logrus.FieldLogger
}

func Tolerant(next Backend, logger logrus.FieldLogger) *TolerantBackend {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TolerantBackend{next: next, logger: logger}
}

func (b *TolerantBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := b.next.Get(ctx, key)
	if err != nil {
		recordError("get")
		b.logger.WithError(err).WithField("key", key).Warn("cache get failed, treating as miss")
		recordLookup(false)
		return nil, false, nil
	}
	recordLookup(ok)
	return v, ok, nil
}

func (b *TolerantBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := b.next.Set(ctx, key, value, ttl); err != nil {
		recordError("set")
		b.logger.WithError(err).WithField("key", key).Warn("cache set failed")
	}
	return nil
}

// Add reports false on failure so callers fall back to reading the key.
func (b *TolerantBackend) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ok, err := b.next.Add(ctx, key, value, ttl)
	if err != nil {
		recordError("add")
		b.logger.WithError(err).WithField("key", key).Warn("cache add failed")
		return false, nil
	}
	return ok, nil
}

func (b *TolerantBackend) Delete(ctx context.Context, keys ...string) error {
	if err := b.next.Delete(ctx, keys...); err != nil {
		recordError("delete")
		b.logger.WithError(err).WithField("keys", keys).Warn("cache delete failed")
	}
	return nil
}

func (b *TolerantBackend) Incr(ctx context.Context, key string) (int64, error) {
	return b.next.Incr(ctx, key)
}
