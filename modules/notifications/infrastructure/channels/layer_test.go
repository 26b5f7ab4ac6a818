package channels

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/iota-catalog/pkg/ws"
)

type broadcast struct {
	channel string
	payload string
}

type fakeHub struct {
	mu     sync.Mutex
	joined map[string]int
	sent   []broadcast
}

func newFakeHub() *fakeHub {
	return &fakeHub{joined: make(map[string]int)}
}

func (h *fakeHub) JoinChannel(channel string, _ *ws.Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.joined[channel]++
}

func (h *fakeHub) LeaveChannel(channel string, _ *ws.Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.joined[channel]--
}

func (h *fakeHub) BroadcastToChannel(channel string, message []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, broadcast{channel: channel, payload: string(message)})
	return h.joined[channel]
}

func (h *fakeHub) broadcasts() []broadcast {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]broadcast(nil), h.sent...)
}

func TestEnvelope_Frame(t *testing.T) {
	frame, err := Envelope{Type: TypeNotify, Message: "hi", CreatedAt: "2024-01-01T00:00:00Z"}.Frame()
	require.NoError(t, err)
	require.JSONEq(t, `{"message":"hi","created_at":"2024-01-01T00:00:00Z"}`, string(frame))

	_, err = Envelope{Type: "chat"}.Frame()
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestLocalLayer(t *testing.T) {
	ctx := context.Background()
	hub := newFakeHub()
	layer := NewLocalLayer(hub)

	require.NoError(t, layer.GroupAdd(ctx, "acme.user_notifications.7", nil))
	require.NoError(t, layer.GroupSend(ctx, "acme.user_notifications.7", Envelope{Type: TypeNotify, Message: "hello", CreatedAt: "t"}))
	require.NoError(t, layer.GroupDiscard(ctx, "acme.user_notifications.7", nil))

	sent := hub.broadcasts()
	require.Len(t, sent, 1)
	require.Equal(t, "acme.user_notifications.7", sent[0].channel)
	require.JSONEq(t, `{"message":"hello","created_at":"t"}`, sent[0].payload)
	require.Equal(t, 0, hub.joined["acme.user_notifications.7"])
}

func TestRedisLayer_RelaysAcrossInstances(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)

	newClient := func() *redis.Client {
		c := redis.NewClient(&redis.Options{Addr: srv.Addr()})
		t.Cleanup(func() { _ = c.Close() })
		return c
	}

	hubA, hubB := newFakeHub(), newFakeHub()
	layerA := NewRedisLayer(newClient(), hubA, "channels:", nil)
	layerB := NewRedisLayer(newClient(), hubB, "channels:", nil)
	require.NoError(t, layerA.Start(ctx))
	require.NoError(t, layerB.Start(ctx))
	t.Cleanup(func() {
		_ = layerA.Close()
		_ = layerB.Close()
	})

	require.NoError(t, layerB.GroupAdd(ctx, "acme.user_notifications.7", nil))
	require.NoError(t, layerA.GroupSend(ctx, "acme.user_notifications.7", Envelope{
		Type:      TypeNotify,
		Message:   "New product created: Laptop",
		CreatedAt: "2024-01-01T00:00:00Z",
	}))

	require.Eventually(t, func() bool { return len(hubB.broadcasts()) == 1 }, 2*time.Second, 10*time.Millisecond)
	got := hubB.broadcasts()[0]
	require.Equal(t, "acme.user_notifications.7", got.channel)
	require.JSONEq(t, `{"message":"New product created: Laptop","created_at":"2024-01-01T00:00:00Z"}`, got.payload)

	// every subscribed instance relays, including the publisher
	require.Eventually(t, func() bool { return len(hubA.broadcasts()) == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestRedisLayer_PublishFailure(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	layer := NewRedisLayer(client, newFakeHub(), "channels:", nil)

	err := layer.GroupSend(context.Background(), "g", Envelope{Type: TypeNotify})
	require.Error(t, err)
}
