package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/iota-catalog/modules"
	"github.com/iota-uz/iota-catalog/modules/catalog"
	"github.com/iota-uz/iota-catalog/modules/catalog/infrastructure/search"
	catalogservices "github.com/iota-uz/iota-catalog/modules/catalog/services"
	"github.com/iota-uz/iota-catalog/modules/customers"
	"github.com/iota-uz/iota-catalog/modules/notifications"
	"github.com/iota-uz/iota-catalog/modules/notifications/infrastructure/channels"
	"github.com/iota-uz/iota-catalog/pkg/application"
	"github.com/iota-uz/iota-catalog/pkg/cache"
	"github.com/iota-uz/iota-catalog/pkg/configuration"
)

// NewApplication connects the cache, search and channel backends named by
// conf and loads every built-in module. Connections are closed by
// app.Shutdown.
func NewApplication(ctx context.Context, conf *configuration.Configuration, pool *pgxpool.Pool) (application.Application, error) {
	logger := conf.Logger()
	app := application.New(&application.ApplicationOptions{
		Pool:   pool,
		Logger: logger,
	})

	backend, err := newCacheBackend(app, conf, logger)
	if err != nil {
		return nil, err
	}
	searchBackend, err := search.NewElasticsearchBackend(search.ElasticsearchOptions{
		URL:     conf.Elasticsearch.URL,
		Timeout: conf.Elasticsearch.Timeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "elasticsearch client")
	}
	newLayer, err := newLayerFactory(ctx, app, conf, logger)
	if err != nil {
		return nil, err
	}

	err = modules.Load(app, modules.BuiltInModules(&modules.Options{
		Customers: &customers.ModuleOptions{
			PublicSchema: conf.Tenancy.PublicSchema,
			CacheTTL:     conf.Tenancy.CacheTTL,
		},
		Notifications: &notifications.ModuleOptions{
			NewLayer:    newLayer,
			CheckOrigin: func(*http.Request) bool { return true },
		},
		Catalog: &catalog.ModuleOptions{
			Cache:       backend,
			Search:      searchBackend,
			IndexPrefix: conf.Elasticsearch.IndexPrefix,
			Refresh:     search.RefreshMode(conf.Elasticsearch.WriteRefresh),
			TTLs: catalogservices.CacheTTLs{
				List:   conf.Catalog.ListTTL,
				Detail: conf.Catalog.DetailTTL,
				Search: conf.Catalog.SearchTTL,
			},
		},
	})...)
	if err != nil {
		_ = app.Shutdown()
		return nil, errors.Wrap(err, "load modules")
	}
	return app, nil
}

func newCacheBackend(app application.Application, conf *configuration.Configuration, logger *logrus.Logger) (cache.Backend, error) {
	var backend cache.Backend
	switch conf.Cache.Backend {
	case "memory":
		mem := cache.NewMemoryBackend()
		app.OnShutdown(func() error {
			mem.Close()
			return nil
		})
		backend = mem
	default:
		rb, client, err := cache.DialRedis(conf.Cache.RedisURL)
		if err != nil {
			return nil, errors.Wrap(err, "cache redis")
		}
		app.OnShutdown(client.Close)
		backend = rb
	}
	if conf.Cache.IgnoreErrors {
		backend = cache.Tolerant(backend, logger.WithField("component", "cache"))
	}
	return backend, nil
}

// newLayerFactory returns nil when push delivery is disabled.
func newLayerFactory(
	ctx context.Context,
	app application.Application,
	conf *configuration.Configuration,
	logger *logrus.Logger,
) (func(channels.Hub) channels.Layer, error) {
	switch conf.Notifications.Layer {
	case "none":
		return nil, nil
	case "local":
		return func(hub channels.Hub) channels.Layer {
			return channels.NewLocalLayer(hub)
		}, nil
	}

	opts, err := redis.ParseURL(conf.Notifications.RedisURL)
	if err != nil {
		return nil, errors.Wrap(err, "channel layer redis url")
	}
	client := redis.NewClient(opts)
	app.OnShutdown(client.Close)
	return func(hub channels.Hub) channels.Layer {
		layer := channels.NewRedisLayer(client, hub, conf.Notifications.Prefix, logger)
		if err := layer.Start(ctx); err != nil {
			logger.WithError(err).Error("channel layer subscription failed, falling back to local delivery")
			return channels.NewLocalLayer(hub)
		}
		app.OnShutdown(layer.Close)
		return layer
	}, nil
}
