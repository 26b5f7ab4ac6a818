package controllers

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	customerservices "github.com/iota-uz/iota-catalog/modules/customers/services"
	"github.com/iota-uz/iota-catalog/modules/notifications/infrastructure/channels"
	"github.com/iota-uz/iota-catalog/modules/notifications/services"
	"github.com/iota-uz/iota-catalog/pkg/composables"
	"github.com/iota-uz/iota-catalog/pkg/ws"
)

// CloseAnonymous is the close code sent to connections without a user.
const CloseAnonymous = 4001

type NotificationWSOptions struct {
	Path     string
	Resolver *customerservices.TenantResolver
	// NewLayer builds the channel layer on top of the controller's hub.
	// When nil, connections join the hub directly and no layer is exposed.
	NewLayer    func(hub channels.Hub) channels.Layer
	CheckOrigin func(r *http.Request) bool
	Logger      logrus.FieldLogger
}

// NotificationWSController accepts websocket connections of authenticated
// users and subscribes each one to its personal notification channel.
type NotificationWSController struct {
	path     string
	hub      *ws.Hub
	layer    channels.Layer
	resolver *customerservices.TenantResolver
	logger   logrus.FieldLogger

	mu     sync.Mutex
	groups map[*ws.Connection]string
}

func NewNotificationWSController(opts NotificationWSOptions) *NotificationWSController {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	path := opts.Path
	if path == "" {
		path = "/ws/notifications/"
	}
	c := &NotificationWSController{
		path:     path,
		resolver: opts.Resolver,
		logger:   logger.WithField("component", "notification-ws"),
		groups:   make(map[*ws.Connection]string),
	}
	c.hub = ws.NewHub(&ws.HubOptions{
		Logger:       c.logger,
		CheckOrigin:  opts.CheckOrigin,
		OnConnect:    c.onConnect,
		OnDisconnect: c.onDisconnect,
	})
	if opts.NewLayer != nil {
		c.layer = opts.NewLayer(c.hub)
	}
	return c
}

func (c *NotificationWSController) Key() string {
	return c.path
}

func (c *NotificationWSController) Register(r *mux.Router) {
	r.Handle(c.path, c.hub)
}

// Layer is nil when the controller was built without NewLayer.
func (c *NotificationWSController) Layer() channels.Layer {
	return c.layer
}

func (c *NotificationWSController) Hub() *ws.Hub {
	return c.hub
}

func (c *NotificationWSController) onConnect(r *http.Request, hub *ws.Hub, conn *ws.Connection) error {
	u, err := composables.UseUser(r.Context())
	if err != nil {
		return &ws.CloseError{Code: CloseAnonymous, Reason: "authentication required"}
	}
	group := services.BuildUserChannel(c.tenant(r), u.ID())
	if c.layer != nil {
		if err := c.layer.GroupAdd(r.Context(), group, conn); err != nil {
			return err
		}
	} else {
		hub.JoinChannel(group, conn)
	}

	c.mu.Lock()
	c.groups[conn] = group
	c.mu.Unlock()
	c.logger.WithFields(logrus.Fields{"group": group, "user-id": u.ID()}).Debug("websocket subscribed")
	return nil
}

func (c *NotificationWSController) onDisconnect(conn *ws.Connection) {
	c.mu.Lock()
	group, ok := c.groups[conn]
	delete(c.groups, conn)
	c.mu.Unlock()
	if !ok {
		return
	}
	if c.layer != nil {
		if err := c.layer.GroupDiscard(context.Background(), group, conn); err != nil {
			c.logger.WithError(err).WithField("group", group).Warn("group discard failed")
		}
		return
	}
	c.hub.LeaveChannel(group, conn)
}

// tenant prefers the schema resolved by middleware and falls back to the
// Host header.
func (c *NotificationWSController) tenant(r *http.Request) string {
	if tenant, ok := composables.TryUseTenant(r.Context()); ok {
		return tenant
	}
	if c.resolver != nil {
		return c.resolver.SchemaNameFromHost(r.Context(), customerservices.HostFromRequest(r))
	}
	return composables.DefaultTenant
}
