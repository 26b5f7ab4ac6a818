package channels

import (
	"context"

	"github.com/iota-uz/iota-catalog/pkg/ws"
)

// LocalLayer delivers envelopes to connections held by this process only.
type LocalLayer struct {
	hub Hub
}

func NewLocalLayer(hub Hub) *LocalLayer {
	return &LocalLayer{hub: hub}
}

func (l *LocalLayer) GroupAdd(_ context.Context, group string, conn *ws.Connection) error {
	l.hub.JoinChannel(group, conn)
	return nil
}

func (l *LocalLayer) GroupDiscard(_ context.Context, group string, conn *ws.Connection) error {
	l.hub.LeaveChannel(group, conn)
	return nil
}

func (l *LocalLayer) GroupSend(_ context.Context, group string, env Envelope) error {
	_, err := l.deliver(group, env)
	return err
}

func (l *LocalLayer) deliver(group string, env Envelope) (int, error) {
	frame, err := env.Frame()
	if err != nil {
		return 0, err
	}
	return l.hub.BroadcastToChannel(group, frame), nil
}
