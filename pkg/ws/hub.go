// Package ws is a channel based websocket hub. Connections join named
// channels and receive every message broadcast to them.
package ws

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

var (
	ErrConnectionClosed = errors.New("ws: connection closed")
	ErrSendBufferFull   = errors.New("ws: send buffer full")
)

// CloseError is returned from an OnConnect callback to reject a
// connection with a specific websocket close code.
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("ws: closed with code %d: %s", e.Code, e.Reason)
}

type Connectioner interface {
	SendMessage(message []byte) error
	Close() error
}

type Huber interface {
	http.Handler
	JoinChannel(channel string, conn *Connection)
	LeaveChannel(channel string, conn *Connection)
	ConnectionsInChannel(channel string) []*Connection
	BroadcastToChannel(channel string, message []byte) int
}

type HubOptions struct {
	Logger       logrus.FieldLogger
	CheckOrigin  func(r *http.Request) bool
	OnConnect    func(r *http.Request, hub *Hub, conn *Connection) error
	OnDisconnect func(conn *Connection)
}

type Hub struct {
	upgrader     websocket.Upgrader
	logger       logrus.FieldLogger
	onConnect    func(r *http.Request, hub *Hub, conn *Connection) error
	onDisconnect func(conn *Connection)

	mu       sync.RWMutex
	channels map[string]map[*Connection]struct{}
	joined   map[*Connection]map[string]struct{}
}

func NewHub(opts *HubOptions) *Hub {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger:       logger,
		onConnect:    opts.OnConnect,
		onDisconnect: opts.OnDisconnect,
		channels:     make(map[string]map[*Connection]struct{}),
		joined:       make(map[*Connection]map[string]struct{}),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	conn := newConnection(wsConn)

	if h.onConnect != nil {
		if err := h.onConnect(r, h, conn); err != nil {
			h.reject(conn, err)
			return
		}
	}

	go conn.writePump(h.logger)
	conn.readPump()

	h.leaveAll(conn)
	_ = conn.Close()
	if h.onDisconnect != nil {
		h.onDisconnect(conn)
	}
}

func (h *Hub) reject(conn *Connection, err error) {
	h.leaveAll(conn)
	code, reason := websocket.CloseInternalServerErr, "internal error"
	var ce *CloseError
	if errors.As(err, &ce) {
		code, reason = ce.Code, ce.Reason
	} else {
		h.logger.WithError(err).Error("websocket connect callback failed")
	}
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = conn.Close()
}

func (h *Hub) JoinChannel(channel string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.channels[channel]
	if !ok {
		members = make(map[*Connection]struct{})
		h.channels[channel] = members
	}
	members[conn] = struct{}{}
	if _, ok := h.joined[conn]; !ok {
		h.joined[conn] = make(map[string]struct{})
	}
	h.joined[conn][channel] = struct{}{}
}

func (h *Hub) LeaveChannel(channel string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(channel, conn)
}

func (h *Hub) leaveLocked(channel string, conn *Connection) {
	if members, ok := h.channels[channel]; ok {
		delete(members, conn)
		if len(members) == 0 {
			delete(h.channels, channel)
		}
	}
	if chans, ok := h.joined[conn]; ok {
		delete(chans, channel)
		if len(chans) == 0 {
			delete(h.joined, conn)
		}
	}
}

func (h *Hub) leaveAll(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for channel := range h.joined[conn] {
		h.leaveLocked(channel, conn)
	}
}

func (h *Hub) ConnectionsInChannel(channel string) []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := h.channels[channel]
	out := make([]*Connection, 0, len(members))
	for c := range members {
		out = append(out, c)
	}
	return out
}

// BroadcastToChannel queues message on every connection in channel and
// returns how many accepted it.
func (h *Hub) BroadcastToChannel(channel string, message []byte) int {
	delivered := 0
	for _, conn := range h.ConnectionsInChannel(channel) {
		if err := conn.SendMessage(message); err != nil {
			h.logger.WithError(err).WithField("channel", channel).Debug("dropping websocket message")
			continue
		}
		delivered++
	}
	return delivered
}

type Connection struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConnection(conn *websocket.Conn) *Connection {
	return &Connection{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

func (c *Connection) SendMessage(message []byte) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- message:
		return nil
	case <-c.done:
		return ErrConnectionClosed
	default:
		return ErrSendBufferFull
	}
}

func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

func (c *Connection) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Connection) writePump(logger logrus.FieldLogger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.WithError(err).Debug("websocket write failed")
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}
