package persistence

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/iota-uz/iota-catalog/modules/catalog/domain/aggregates/product"
	"github.com/iota-uz/iota-catalog/pkg/composables"
	"github.com/iota-uz/iota-catalog/pkg/repo"
)

type productKey struct {
	tenant string
	id     int64
}

// InmemProductRepository keeps products per tenant schema in memory.
type InmemProductRepository struct {
	mu      sync.Mutex
	nextID  map[string]int64
	storage *repo.SafeMap[productKey, product.Product]
	now     func() time.Time
}

func NewInmemProductRepository() *InmemProductRepository {
	return &InmemProductRepository{
		nextID:  make(map[string]int64),
		storage: repo.NewSafeMap[productKey, product.Product](),
		now:     time.Now,
	}
}

func (r *InmemProductRepository) GetByID(ctx context.Context, id int64) (product.Product, error) {
	p, ok := r.storage.Get(productKey{tenant: composables.UseTenant(ctx), id: id})
	if !ok {
		return product.Product{}, product.ErrNotFound
	}
	return p, nil
}

func (r *InmemProductRepository) ListActive(ctx context.Context) ([]product.Product, error) {
	out := make([]product.Product, 0)
	for _, p := range r.tenantProducts(ctx) {
		if p.IsActive() {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b product.Product) int {
		if c := b.CreatedAt().Compare(a.CreatedAt()); c != 0 {
			return c
		}
		return cmp.Compare(b.ID(), a.ID())
	})
	return out, nil
}

func (r *InmemProductRepository) ActiveByIDs(ctx context.Context, ids []int64) ([]product.Product, error) {
	tenant := composables.UseTenant(ctx)
	out := make([]product.Product, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := r.storage.Get(productKey{tenant: tenant, id: id}); ok && p.IsActive() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *InmemProductRepository) All(ctx context.Context) ([]product.Product, error) {
	out := r.tenantProducts(ctx)
	slices.SortFunc(out, func(a, b product.Product) int { return cmp.Compare(a.ID(), b.ID()) })
	return out, nil
}

func (r *InmemProductRepository) Create(ctx context.Context, p product.Product) (product.Product, error) {
	tenant := composables.UseTenant(ctx)
	r.mu.Lock()
	r.nextID[tenant]++
	id := r.nextID[tenant]
	r.mu.Unlock()

	now := r.now()
	created := product.Hydrate(id, p.Name(), p.Description(), p.Price(), p.IsActive(), now, now)
	r.storage.Set(productKey{tenant: tenant, id: id}, created)
	return created, nil
}

func (r *InmemProductRepository) Update(ctx context.Context, p product.Product) (product.Product, error) {
	key := productKey{tenant: composables.UseTenant(ctx), id: p.ID()}
	var updated product.Product
	found := false
	r.storage.Compute(key, func(old product.Product, ok bool) (product.Product, bool) {
		if !ok {
			return old, false
		}
		found = true
		updated = product.Hydrate(p.ID(), p.Name(), p.Description(), p.Price(), p.IsActive(), old.CreatedAt(), r.now())
		return updated, true
	})
	if !found {
		return product.Product{}, product.ErrNotFound
	}
	return updated, nil
}

func (r *InmemProductRepository) Delete(ctx context.Context, id int64) error {
	if !r.storage.Delete(productKey{tenant: composables.UseTenant(ctx), id: id}) {
		return product.ErrNotFound
	}
	return nil
}

func (r *InmemProductRepository) tenantProducts(ctx context.Context) []product.Product {
	tenant := composables.UseTenant(ctx)
	out := make([]product.Product, 0)
	r.storage.Range(func(k productKey, p product.Product) bool {
		if k.tenant == tenant {
			out = append(out, p)
		}
		return true
	})
	return out
}
