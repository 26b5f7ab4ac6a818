package modules

import (
	"github.com/iota-uz/iota-catalog/modules/catalog"
	"github.com/iota-uz/iota-catalog/modules/customers"
	"github.com/iota-uz/iota-catalog/modules/notifications"
	"github.com/iota-uz/iota-catalog/modules/users"
	"github.com/iota-uz/iota-catalog/pkg/application"
)

type Options struct {
	Customers     *customers.ModuleOptions
	Notifications *notifications.ModuleOptions
	Catalog       *catalog.ModuleOptions
}

// BuiltInModules returns the modules in dependency order: later modules
// look up services registered by earlier ones.
func BuiltInModules(opts *Options) []application.Module {
	return []application.Module{
		customers.NewModule(opts.Customers),
		users.NewModule(),
		notifications.NewModule(opts.Notifications),
		catalog.NewModule(opts.Catalog),
	}
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
