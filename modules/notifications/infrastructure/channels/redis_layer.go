package channels

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/iota-catalog/pkg/ws"
)

// RedisLayer publishes envelopes on Redis Pub/Sub and relays every
// envelope it receives to the local hub, so a group send reaches
// connections held by any server instance.
type RedisLayer struct {
	local  *LocalLayer
	client redis.UniversalClient
	prefix string
	logger logrus.FieldLogger

	mu     sync.Mutex
	pubsub *redis.PubSub
	done   chan struct{}
}

func NewRedisLayer(client redis.UniversalClient, hub Hub, prefix string, logger logrus.FieldLogger) *RedisLayer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RedisLayer{
		local:  NewLocalLayer(hub),
		client: client,
		prefix: prefix,
		logger: logger.WithField("component", "redis-channel-layer"),
	}
}

// Start subscribes to every group under the prefix and relays messages
// until Close is called. It returns once the subscription is confirmed.
func (l *RedisLayer) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pubsub != nil {
		return nil
	}
	ps := l.client.PSubscribe(ctx, l.prefix+"*")
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return errors.Wrap(err, "psubscribe")
	}
	l.pubsub = ps
	l.done = make(chan struct{})
	go l.relay(ps.Channel(), l.done)
	return nil
}

func (l *RedisLayer) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pubsub == nil {
		return nil
	}
	err := l.pubsub.Close()
	<-l.done
	l.pubsub = nil
	return err
}

func (l *RedisLayer) relay(msgs <-chan *redis.Message, done chan<- struct{}) {
	defer close(done)
	for msg := range msgs {
		group := strings.TrimPrefix(msg.Channel, l.prefix)
		var env Envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			l.logger.WithError(err).WithField("group", group).Warn("dropping malformed envelope")
			continue
		}
		if _, err := l.local.deliver(group, env); err != nil {
			l.logger.WithError(err).WithField("group", group).Warn("dropping envelope")
		}
	}
}

func (l *RedisLayer) GroupAdd(ctx context.Context, group string, conn *ws.Connection) error {
	return l.local.GroupAdd(ctx, group, conn)
}

func (l *RedisLayer) GroupDiscard(ctx context.Context, group string, conn *ws.Connection) error {
	return l.local.GroupDiscard(ctx, group, conn)
}

func (l *RedisLayer) GroupSend(ctx context.Context, group string, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "marshal envelope")
	}
	if err := l.client.Publish(ctx, l.prefix+group, payload).Err(); err != nil {
		return errors.Wrapf(err, "publish to %s", group)
	}
	return nil
}
