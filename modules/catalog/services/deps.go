package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/iota-catalog/modules/catalog/domain/aggregates/product"
	"github.com/iota-uz/iota-catalog/modules/catalog/infrastructure/search"
	"github.com/iota-uz/iota-catalog/modules/notifications/domain/entities/notification"
	notifservices "github.com/iota-uz/iota-catalog/modules/notifications/services"
	"github.com/iota-uz/iota-catalog/pkg/cache"
)

// StaffDirectory lists the staff users of the tenant in context.
type StaffDirectory interface {
	StaffIDs(ctx context.Context) ([]int64, error)
}

type Pusher interface {
	PushBulk(ctx context.Context, userIDs []int64, message, schemaName string) notifservices.DeliveryReport
}

type CacheTTLs struct {
	List   time.Duration
	Detail time.Duration
	Search time.Duration
}

func DefaultCacheTTLs() CacheTTLs {
	return CacheTTLs{
		List:   120 * time.Second,
		Detail: 120 * time.Second,
		Search: 60 * time.Second,
	}
}

// Deps holds the tenant independent collaborators. Tenant scoped services
// are built from it per call.
type Deps struct {
	Products      product.Repository
	Staff         StaffDirectory
	Notifications notification.Repository
	Pusher        Pusher
	Cache         cache.Backend
	Search        search.Backend
	IndexPrefix   string
	Refresh       search.RefreshMode
	TTLs          CacheTTLs
	Logger        logrus.FieldLogger
}

func (d *Deps) logger() logrus.FieldLogger {
	if d.Logger == nil {
		return logrus.StandardLogger()
	}
	return d.Logger
}

func (d *Deps) CacheService(tenant string) *CatalogCacheService {
	return NewCatalogCacheService(tenant, d.Cache, d.logger())
}

func (d *Deps) SearchService(tenant string) *ProductSearchService {
	return NewProductSearchService(tenant, d.Search, ProductSearchOptions{
		IndexPrefix: d.IndexPrefix,
		Refresh:     d.Refresh,
		Logger:      d.logger(),
	})
}

func (d *Deps) EventService(tenant string) *ProductEventService {
	return NewProductEventService(tenant, d)
}
