package customers

import (
	"time"

	"github.com/iota-uz/iota-catalog/modules/customers/infrastructure/persistence"
	"github.com/iota-uz/iota-catalog/modules/customers/services"
	"github.com/iota-uz/iota-catalog/pkg/application"
)

type ModuleOptions struct {
	PublicSchema string
	CacheTTL     time.Duration
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
	resolver := services.NewTenantResolver(
		persistence.NewClientRepository(),
		services.TenantResolverOptions{
			PublicSchema: m.options.PublicSchema,
			CacheTTL:     m.options.CacheTTL,
			Logger:       app.Logger(),
		},
	)
	app.RegisterServices(resolver)
	app.Migrations().RegisterSchema(application.PublicScope, &persistence.MigrationFiles)
	return nil
}

func (m *Module) Name() string {
	return "customers"
}
