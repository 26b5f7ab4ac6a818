package persistence

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/iota-uz/iota-catalog/modules/users/domain/aggregates/user"
	"github.com/iota-uz/iota-catalog/pkg/composables"
	"github.com/iota-uz/iota-catalog/pkg/repo"
)

type userKey struct {
	tenant string
	id     int64
}

type InmemUserRepository struct {
	mu      sync.Mutex
	nextID  map[string]int64
	storage *repo.SafeMap[userKey, user.User]
}

func NewInmemUserRepository() *InmemUserRepository {
	return &InmemUserRepository{
		nextID:  make(map[string]int64),
		storage: repo.NewSafeMap[userKey, user.User](),
	}
}

func (r *InmemUserRepository) GetByID(ctx context.Context, id int64) (user.User, error) {
	u, found := r.storage.Get(userKey{tenant: composables.UseTenant(ctx), id: id})
	if !found {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *InmemUserRepository) GetByUsername(ctx context.Context, username string) (user.User, error) {
	for _, u := range r.tenantUsers(ctx) {
		if u.Username() == username {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *InmemUserRepository) StaffIDs(ctx context.Context) ([]int64, error) {
	ids := make([]int64, 0)
	for _, u := range r.tenantUsers(ctx) {
		if u.IsStaff() {
			ids = append(ids, u.ID())
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (r *InmemUserRepository) Create(ctx context.Context, u user.User) (user.User, error) {
	if _, err := r.GetByUsername(ctx, u.Username()); err == nil {
		return user.User{}, user.ErrUsernameTaken
	}
	tenant := composables.UseTenant(ctx)

	r.mu.Lock()
	r.nextID[tenant]++
	id := r.nextID[tenant]
	r.mu.Unlock()

	joined := u.DateJoined()
	if joined.IsZero() {
		joined = time.Now()
	}
	created := user.Hydrate(id, u.Username(), u.Email(), u.DisplayName(), u.PasswordHash(), u.IsStaff(), u.IsActive(), joined)
	r.storage.Set(userKey{tenant: tenant, id: id}, created)
	return created, nil
}

func (r *InmemUserRepository) tenantUsers(ctx context.Context) []user.User {
	tenant := composables.UseTenant(ctx)
	out := make([]user.User, 0)
	r.storage.Range(func(k userKey, u user.User) bool {
		if k.tenant == tenant {
			out = append(out, u)
		}
		return true
	})
	return out
}
