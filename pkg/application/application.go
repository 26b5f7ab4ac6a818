package application

import (
	"fmt"
	"reflect"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

type Controller interface {
	Register(r *mux.Router)
	Key() string
}

type Module interface {
	Name() string
	Register(app Application) error
}

// Application with a dynamically extendable service registry
type Application interface {
	DB() *pgxpool.Pool
	Logger() *logrus.Logger
	Migrations() MigrationManager
	Middleware() []mux.MiddlewareFunc
	Controllers() []Controller
	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	RegisterServices(services ...interface{})
	Service(service interface{}) interface{}
	Services() map[reflect.Type]interface{}
	// OnShutdown registers a cleanup hook run by Shutdown in reverse order.
	OnShutdown(fn func() error)
	Shutdown() error
}

type ApplicationOptions struct {
	Pool   *pgxpool.Pool
	Logger *logrus.Logger
}

func New(opts *ApplicationOptions) Application {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &application{
		pool:        opts.Pool,
		logger:      logger,
		controllers: make(map[string]Controller),
		services:    make(map[reflect.Type]interface{}),
		migrations:  NewMigrationManager(),
	}
}

type application struct {
	pool        *pgxpool.Pool
	logger      *logrus.Logger
	services    map[reflect.Type]interface{}
	controllers map[string]Controller
	order       []string
	middleware  []mux.MiddlewareFunc
	migrations  MigrationManager
	closers     []func() error
}

func (app *application) DB() *pgxpool.Pool {
	return app.pool
}

func (app *application) Logger() *logrus.Logger {
	return app.logger
}

func (app *application) Migrations() MigrationManager {
	return app.migrations
}

func (app *application) Middleware() []mux.MiddlewareFunc {
	return app.middleware
}

// Controllers returns controllers in registration order.
func (app *application) Controllers() []Controller {
	controllers := make([]Controller, 0, len(app.order))
	for _, key := range app.order {
		controllers = append(controllers, app.controllers[key])
	}
	return controllers
}

func (app *application) RegisterControllers(controllers ...Controller) {
	for _, c := range controllers {
		if _, exists := app.controllers[c.Key()]; !exists {
			app.order = append(app.order, c.Key())
		}
		app.controllers[c.Key()] = c
	}
}

func (app *application) RegisterMiddleware(middleware ...mux.MiddlewareFunc) {
	app.middleware = append(app.middleware, middleware...)
}

// RegisterServices registers a new service in the application by its type
func (app *application) RegisterServices(services ...interface{}) {
	for _, service := range services {
		serviceType := reflect.TypeOf(service).Elem()
		app.services[serviceType] = service
	}
}

// Service retrieves a service by its type
func (app *application) Service(service interface{}) interface{} {
	serviceType := reflect.TypeOf(service)
	svc, exists := app.services[serviceType]
	if !exists {
		panic(fmt.Sprintf("service %s not found", serviceType.Name()))
	}
	return svc
}

func (app *application) Services() map[reflect.Type]interface{} {
	return app.services
}

func (app *application) OnShutdown(fn func() error) {
	app.closers = append(app.closers, fn)
}

func (app *application) Shutdown() error {
	var firstErr error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	app.closers = nil
	return firstErr
}
