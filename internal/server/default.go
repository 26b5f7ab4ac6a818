package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	customerservices "github.com/iota-uz/iota-catalog/modules/customers/services"
	userservices "github.com/iota-uz/iota-catalog/modules/users/services"
	"github.com/iota-uz/iota-catalog/pkg/application"
	"github.com/iota-uz/iota-catalog/pkg/configuration"
	"github.com/iota-uz/iota-catalog/pkg/constants"
	"github.com/iota-uz/iota-catalog/pkg/httpapi"
	"github.com/iota-uz/iota-catalog/pkg/metrics"
	"github.com/iota-uz/iota-catalog/pkg/middleware"
	"github.com/iota-uz/iota-catalog/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Pool          *pgxpool.Pool
}

func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application
	conf := options.Configuration

	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger, conf, middleware.DefaultLoggerOptions()),

		middleware.TracedMiddleware("database"),
		middleware.Provide(constants.AppKey, app),
		middleware.Provide(constants.PoolKey, options.Pool),

		middleware.TracedMiddleware("cors"),
		middleware.Cors(conf.AllowedOrigins()...),
	}

	if conf.RateLimit.Enabled {
		var store limiter.Store
		var err error

		switch conf.RateLimit.Storage {
		case "redis":
			store, err = middleware.NewRedisStore(conf.RateLimit.RedisURL)
			if err != nil {
				options.Logger.WithError(err).Warn("Failed to create Redis store for rate limiting, falling back to memory")
				store = middleware.NewMemoryStore()
			}
		default:
			store = middleware.NewMemoryStore()
		}

		middlewares = append(middlewares,
			middleware.TracedMiddleware("rateLimit"),
			middleware.RateLimit(middleware.RateLimitConfig{
				RequestsPerPeriod: conf.RateLimit.GlobalRPS,
				Period:            time.Second,
				Store:             store,
			}),
		)
	}

	middlewares = append(middlewares,
		middleware.TracedMiddleware("requestParams"),
		middleware.RequestParams(conf),
		middleware.TracedMiddleware("tenant"),
		middleware.ResolveTenant(app.Service(customerservices.TenantResolver{}).(*customerservices.TenantResolver)),
		middleware.TracedMiddleware("authentication"),
		middleware.Authenticate(
			app.Service(userservices.AuthService{}).(*userservices.AuthService),
			middleware.AuthOptions{
				BasicAuth:  conf.Auth.EnableBasicAuth,
				UserHeader: conf.Auth.UserHeader,
			},
		),
	)

	app.RegisterMiddleware(middlewares...)
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	serverInstance := server.NewHTTPServer(app, NotFound(), MethodNotAllowed())
	return serverInstance, nil
}

func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = httpapi.WriteError(w, http.StatusNotFound, "Not found.")
	})
}

func MethodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusMethodNotAllowed, `Method "`+r.Method+`" not allowed.`)
	})
}
