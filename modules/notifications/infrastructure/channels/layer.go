// Package channels implements group based fan-out of notification
// envelopes to websocket connections.
package channels

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/iota-uz/iota-catalog/pkg/ws"
)

const TypeNotify = "notify"

var ErrUnknownType = errors.New("channels: unknown envelope type")

// Envelope is what travels through a layer. Connections receive Frame.
type Envelope struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

type Frame struct {
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

func (e Envelope) Frame() ([]byte, error) {
	if e.Type != TypeNotify {
		return nil, ErrUnknownType
	}
	return json.Marshal(Frame{Message: e.Message, CreatedAt: e.CreatedAt})
}

// Layer is a group scoped publish/subscribe transport.
type Layer interface {
	GroupAdd(ctx context.Context, group string, conn *ws.Connection) error
	GroupDiscard(ctx context.Context, group string, conn *ws.Connection) error
	GroupSend(ctx context.Context, group string, env Envelope) error
}

// Hub is the subset of *ws.Hub the layers need.
type Hub interface {
	JoinChannel(channel string, conn *ws.Connection)
	LeaveChannel(channel string, conn *ws.Connection)
	BroadcastToChannel(channel string, message []byte) int
}
