package users

import (
	"github.com/iota-uz/iota-catalog/modules/users/infrastructure/persistence"
	"github.com/iota-uz/iota-catalog/modules/users/services"
	"github.com/iota-uz/iota-catalog/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.RegisterServices(
		services.NewAuthService(persistence.NewUserRepository()),
	)
	app.Migrations().RegisterSchema(application.TenantScope, &persistence.MigrationFiles)
	return nil
}

func (m *Module) Name() string {
	return "users"
}
