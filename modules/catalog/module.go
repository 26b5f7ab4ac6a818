package catalog

import (
	"github.com/iota-uz/iota-catalog/modules/catalog/infrastructure/persistence"
	"github.com/iota-uz/iota-catalog/modules/catalog/infrastructure/search"
	"github.com/iota-uz/iota-catalog/modules/catalog/presentation/controllers"
	"github.com/iota-uz/iota-catalog/modules/catalog/services"
	notifpersistence "github.com/iota-uz/iota-catalog/modules/notifications/infrastructure/persistence"
	notifservices "github.com/iota-uz/iota-catalog/modules/notifications/services"
	userpersistence "github.com/iota-uz/iota-catalog/modules/users/infrastructure/persistence"
	"github.com/iota-uz/iota-catalog/pkg/application"
	"github.com/iota-uz/iota-catalog/pkg/cache"
)

type ModuleOptions struct {
	Cache       cache.Backend
	Search      search.Backend
	IndexPrefix string
	Refresh     search.RefreshMode
	TTLs        services.CacheTTLs
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
	ttls := m.options.TTLs
	if ttls == (services.CacheTTLs{}) {
		ttls = services.DefaultCacheTTLs()
	}
	deps := &services.Deps{
		Products:      persistence.NewProductRepository(),
		Staff:         userpersistence.NewUserRepository(),
		Notifications: notifpersistence.NewNotificationRepository(),
		Pusher:        app.Service(notifservices.Router{}).(*notifservices.Router),
		Cache:         m.options.Cache,
		Search:        m.options.Search,
		IndexPrefix:   m.options.IndexPrefix,
		Refresh:       m.options.Refresh,
		TTLs:          ttls,
		Logger:        app.Logger(),
	}
	app.RegisterServices(
		deps,
		services.NewProductService(deps),
		services.NewCatalogReadService(deps),
	)
	app.RegisterControllers(
		controllers.NewProductAPIController(app),
	)
	app.Migrations().RegisterSchema(application.TenantScope, &persistence.MigrationFiles)
	return nil
}

func (m *Module) Name() string {
	return "catalog"
}
