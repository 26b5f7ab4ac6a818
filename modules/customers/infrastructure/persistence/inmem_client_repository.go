package persistence

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/iota-uz/iota-catalog/modules/customers/domain/aggregates/client"
	"github.com/iota-uz/iota-catalog/pkg/repo"
)

type InmemClientRepository struct {
	mu       sync.Mutex
	nextID   int64
	bySchema *repo.SafeMap[string, client.Client]
	byDomain *repo.SafeMap[string, string]
}

func NewInmemClientRepository() *InmemClientRepository {
	return &InmemClientRepository{
		bySchema: repo.NewSafeMap[string, client.Client](),
		byDomain: repo.NewSafeMap[string, string](),
	}
}

func (r *InmemClientRepository) GetByDomain(_ context.Context, domain string) (client.Client, error) {
	schema, ok := r.byDomain.Get(domain)
	if !ok {
		return client.Client{}, client.ErrNotFound
	}
	c, ok := r.bySchema.Get(schema)
	if !ok {
		return client.Client{}, client.ErrNotFound
	}
	return c, nil
}

func (r *InmemClientRepository) GetBySchemaName(_ context.Context, schemaName string) (client.Client, error) {
	c, ok := r.bySchema.Get(schemaName)
	if !ok {
		return client.Client{}, client.ErrNotFound
	}
	return c, nil
}

func (r *InmemClientRepository) List(context.Context) ([]client.Client, error) {
	out := r.bySchema.Values()
	slices.SortFunc(out, func(a, b client.Client) int { return int(a.ID() - b.ID()) })
	return out, nil
}

func (r *InmemClientRepository) Create(_ context.Context, c client.Client) (client.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range c.Domains() {
		if _, taken := r.byDomain.Get(d.Domain); taken {
			return client.Client{}, client.ErrDomainTaken
		}
	}
	r.nextID++
	createdOn := c.CreatedOn()
	if createdOn.IsZero() {
		createdOn = time.Now()
	}
	created := client.Hydrate(r.nextID, c.SchemaName(), c.Name(), c.PaidUntil(), c.OnTrial(), createdOn, c.Domains())
	r.bySchema.Set(created.SchemaName(), created)
	for _, d := range created.Domains() {
		r.byDomain.Set(d.Domain, created.SchemaName())
	}
	return created, nil
}
