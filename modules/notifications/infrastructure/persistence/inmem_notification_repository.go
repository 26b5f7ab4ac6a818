package persistence

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/iota-uz/iota-catalog/modules/notifications/domain/entities/notification"
	"github.com/iota-uz/iota-catalog/pkg/composables"
	"github.com/iota-uz/iota-catalog/pkg/repo"
)

type notificationKey struct {
	tenant string
	id     int64
}

type InmemNotificationRepository struct {
	mu      sync.Mutex
	nextID  map[string]int64
	storage *repo.SafeMap[notificationKey, notification.Notification]
}

func NewInmemNotificationRepository() *InmemNotificationRepository {
	return &InmemNotificationRepository{
		nextID:  make(map[string]int64),
		storage: repo.NewSafeMap[notificationKey, notification.Notification](),
	}
}

func (r *InmemNotificationRepository) BulkCreate(ctx context.Context, items []notification.Notification) ([]notification.Notification, error) {
	tenant := composables.UseTenant(ctx)
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notification.Notification, 0, len(items))
	for _, n := range items {
		r.nextID[tenant]++
		created := notification.Hydrate(r.nextID[tenant], n.UserID(), n.Message(), false, now)
		r.storage.Set(notificationKey{tenant: tenant, id: created.ID()}, created)
		out = append(out, created)
	}
	return out, nil
}

func (r *InmemNotificationRepository) ListForUser(ctx context.Context, userID int64, limit int) ([]notification.Notification, error) {
	tenant := composables.UseTenant(ctx)
	out := make([]notification.Notification, 0)
	r.storage.Range(func(k notificationKey, n notification.Notification) bool {
		if k.tenant == tenant && n.UserID() == userID {
			out = append(out, n)
		}
		return true
	})
	slices.SortFunc(out, func(a, b notification.Notification) int {
		if c := b.CreatedAt().Compare(a.CreatedAt()); c != 0 {
			return c
		}
		return int(b.ID() - a.ID())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InmemNotificationRepository) MarkRead(ctx context.Context, userID, id int64) error {
	key := notificationKey{tenant: composables.UseTenant(ctx), id: id}
	var found bool
	r.storage.Compute(key, func(old notification.Notification, ok bool) (notification.Notification, bool) {
		if !ok {
			return old, false
		}
		if old.UserID() != userID {
			return old, true
		}
		found = true
		return notification.Hydrate(old.ID(), old.UserID(), old.Message(), true, old.CreatedAt()), true
	})
	if !found {
		return notification.ErrNotFound
	}
	return nil
}

// All returns every notification stored for the tenant in context.
func (r *InmemNotificationRepository) All(ctx context.Context) []notification.Notification {
	tenant := composables.UseTenant(ctx)
	out := make([]notification.Notification, 0)
	r.storage.Range(func(k notificationKey, n notification.Notification) bool {
		if k.tenant == tenant {
			out = append(out, n)
		}
		return true
	})
	slices.SortFunc(out, func(a, b notification.Notification) int { return int(a.ID() - b.ID()) })
	return out
}
