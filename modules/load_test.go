package modules_test

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/iota-catalog/modules"
	"github.com/iota-uz/iota-catalog/modules/catalog"
	catalogservices "github.com/iota-uz/iota-catalog/modules/catalog/services"
	"github.com/iota-uz/iota-catalog/modules/notifications"
	"github.com/iota-uz/iota-catalog/modules/notifications/infrastructure/channels"
	notifservices "github.com/iota-uz/iota-catalog/modules/notifications/services"
	"github.com/iota-uz/iota-catalog/pkg/application"
	"github.com/iota-uz/iota-catalog/pkg/cache"
)

func TestLoad_RegistersEveryModule(t *testing.T) {
	logger, _ := test.NewNullLogger()
	mem := cache.NewMemoryBackend()
	t.Cleanup(mem.Close)
	app := application.New(&application.ApplicationOptions{Logger: logger})

	err := modules.Load(app, modules.BuiltInModules(&modules.Options{
		Notifications: &notifications.ModuleOptions{
			NewLayer: func(hub channels.Hub) channels.Layer { return channels.NewLocalLayer(hub) },
		},
		Catalog: &catalog.ModuleOptions{Cache: mem, IndexPrefix: "saas"},
	})...)
	require.NoError(t, err)

	keys := make([]string, 0)
	for _, c := range app.Controllers() {
		keys = append(keys, c.Key())
	}
	require.Equal(t, []string{"/ws/notifications/", "/api/notifications", "/api/catalog"}, keys)

	router := app.Service(notifservices.Router{}).(*notifservices.Router)
	require.True(t, router.Enabled())

	deps := app.Service(catalogservices.Deps{}).(*catalogservices.Deps)
	require.Equal(t, catalogservices.DefaultCacheTTLs(), deps.TTLs)
}
