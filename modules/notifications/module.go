package notifications

import (
	"net/http"

	customerservices "github.com/iota-uz/iota-catalog/modules/customers/services"
	"github.com/iota-uz/iota-catalog/modules/notifications/infrastructure/channels"
	"github.com/iota-uz/iota-catalog/modules/notifications/infrastructure/persistence"
	"github.com/iota-uz/iota-catalog/modules/notifications/presentation/controllers"
	"github.com/iota-uz/iota-catalog/modules/notifications/services"
	"github.com/iota-uz/iota-catalog/pkg/application"
)

type ModuleOptions struct {
	// NewLayer builds the channel layer on top of the websocket hub. A nil
	// value disables push delivery; the websocket endpoint still accepts
	// connections.
	NewLayer    func(hub channels.Hub) channels.Layer
	CheckOrigin func(r *http.Request) bool
}

func NewModule(opts *ModuleOptions) application.Module {
	if opts == nil {
		opts = &ModuleOptions{}
	}
	return &Module{options: opts}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	wsController := controllers.NewNotificationWSController(controllers.NotificationWSOptions{
		Resolver:    app.Service(customerservices.TenantResolver{}).(*customerservices.TenantResolver),
		NewLayer:    m.options.NewLayer,
		CheckOrigin: m.options.CheckOrigin,
		Logger:      app.Logger(),
	})

	app.RegisterServices(
		services.NewNotificationService(persistence.NewNotificationRepository()),
		services.NewRouter(wsController.Layer(), app.Logger()),
	)
	app.RegisterControllers(
		wsController,
		controllers.NewNotificationAPIController(app),
	)
	app.Migrations().RegisterSchema(application.TenantScope, &persistence.MigrationFiles)
	return nil
}

func (m *Module) Name() string {
	return "notifications"
}
