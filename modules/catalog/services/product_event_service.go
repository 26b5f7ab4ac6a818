package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/iota-catalog/modules/catalog/domain/aggregates/product"
	"github.com/iota-uz/iota-catalog/modules/notifications/domain/entities/notification"
	notifservices "github.com/iota-uz/iota-catalog/modules/notifications/services"
	"github.com/iota-uz/iota-catalog/pkg/composables"
)

func NewProductMessage(name string) string {
	return fmt.Sprintf("New product created: %s", name)
}

// Outcome records what a single write event did. Every error in it was
// logged and deliberately not returned to the writer.
type Outcome struct {
	SearchVersion int64
	IndexErr      error
	Notified      []int64
	NotifyErr     error
	Delivery      notifservices.DeliveryReport
}

// ProductEventService runs the side effects of a product write for one
// tenant: cache invalidation first, then indexing, then staff notification.
type ProductEventService struct {
	tenant        string
	cache         *CatalogCacheService
	search        *ProductSearchService
	staff         StaffDirectory
	notifications notification.Repository
	pusher        Pusher
	logger        logrus.FieldLogger
}

func NewProductEventService(tenant string, deps *Deps) *ProductEventService {
	if strings.TrimSpace(tenant) == "" {
		tenant = composables.DefaultTenant
	}
	return &ProductEventService{
		tenant:        tenant,
		cache:         deps.CacheService(tenant),
		search:        deps.SearchService(tenant),
		staff:         deps.Staff,
		notifications: deps.Notifications,
		pusher:        deps.Pusher,
		logger:        deps.logger().WithField("tenant", tenant),
	}
}

func (s *ProductEventService) Tenant() string {
	return s.tenant
}

// HandleProductSaved runs after a create or an update was stored.
func (s *ProductEventService) HandleProductSaved(ctx context.Context, p product.Product, created bool) Outcome {
	ctx = composables.WithTenant(ctx, s.tenant)
	kind := "updated"
	if created {
		kind = "created"
	}
	productEvents.WithLabelValues(kind).Inc()

	out := Outcome{SearchVersion: s.cache.InvalidateProductChange(ctx, p.ID())}

	if err := s.search.IndexProduct(ctx, p); err != nil {
		s.logger.WithError(err).WithField("product_id", p.ID()).Error("search index failed for product")
		out.IndexErr = err
	}

	if created {
		out.Notified, out.Delivery, out.NotifyErr = s.notifyStaff(ctx, p)
		if out.NotifyErr != nil {
			s.logger.WithError(out.NotifyErr).WithField("product_id", p.ID()).Error("staff notification failed")
		}
	}
	return out
}

// HandleProductDeleted runs after a product was removed from storage.
func (s *ProductEventService) HandleProductDeleted(ctx context.Context, id int64) Outcome {
	ctx = composables.WithTenant(ctx, s.tenant)
	productEvents.WithLabelValues("deleted").Inc()

	out := Outcome{SearchVersion: s.cache.InvalidateProductChange(ctx, id)}
	s.search.DeleteProduct(ctx, id)
	return out
}

func (s *ProductEventService) notifyStaff(ctx context.Context, p product.Product) ([]int64, notifservices.DeliveryReport, error) {
	var report notifservices.DeliveryReport
	if s.staff == nil {
		return nil, report, nil
	}
	userIDs, err := s.staff.StaffIDs(ctx)
	if err != nil {
		return nil, report, errors.Wrap(err, "list staff users")
	}
	if len(userIDs) == 0 {
		return nil, report, nil
	}

	message := NewProductMessage(p.Name())
	if s.notifications != nil {
		items := make([]notification.Notification, 0, len(userIDs))
		for _, id := range userIDs {
			items = append(items, notification.New(id, message))
		}
		if _, err := s.notifications.BulkCreate(ctx, items); err != nil {
			return userIDs, report, errors.Wrap(err, "store notifications")
		}
	}
	if s.pusher != nil {
		report = s.pusher.PushBulk(ctx, userIDs, message, s.tenant)
		if err := report.Err(); err != nil {
			s.logger.WithError(err).Warn("notification fan-out incomplete")
		}
	}
	return userIDs, report, nil
}
