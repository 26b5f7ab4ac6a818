package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/iota-catalog/modules/catalog/domain/aggregates/product"
	"github.com/iota-uz/iota-catalog/modules/catalog/infrastructure/persistence"
	"github.com/iota-uz/iota-catalog/modules/catalog/infrastructure/search"
	"github.com/iota-uz/iota-catalog/modules/catalog/services"
	notifpersistence "github.com/iota-uz/iota-catalog/modules/notifications/infrastructure/persistence"
	notifservices "github.com/iota-uz/iota-catalog/modules/notifications/services"
	"github.com/iota-uz/iota-catalog/pkg/cache"
	"github.com/iota-uz/iota-catalog/pkg/composables"
)

type upsertCall struct {
	Index   string
	ID      string
	Doc     services.ProductDocument
	Refresh search.RefreshMode
}

type queryCall struct {
	Index  string
	Text   string
	Fields []string
	Limit  int
}

type fakeSearch struct {
	mu sync.Mutex

	indices  map[string]search.Mapping
	upserts  []upsertCall
	deletes  []string
	queries  []queryCall
	creates  int
	hits     []search.Hit
	queryErr error

	existsErr error
	createErr error
	upsertErr error
	deleteErr error
}

func newFakeSearch() *fakeSearch {
	return &fakeSearch{indices: map[string]search.Mapping{}}
}

func (f *fakeSearch) IndexExists(_ context.Context, index string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.indices[index]
	return ok, nil
}

func (f *fakeSearch) CreateIndex(_ context.Context, index string, mapping search.Mapping) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	f.indices[index] = mapping
	return nil
}

func (f *fakeSearch) Upsert(_ context.Context, index, id string, doc any, refresh search.RefreshMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, upsertCall{Index: index, ID: id, Doc: doc.(services.ProductDocument), Refresh: refresh})
	return nil
}

func (f *fakeSearch) Delete(_ context.Context, index, id string, _ search.RefreshMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, index+"/"+id)
	return f.deleteErr
}

func (f *fakeSearch) Query(_ context.Context, index, text string, fields []string, limit int) ([]search.Hit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, queryCall{Index: index, Text: text, Fields: fields, Limit: limit})
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.hits, nil
}

type pushCall struct {
	UserIDs []int64
	Message string
	Tenant  string
}

type recordingPusher struct {
	mu    sync.Mutex
	calls []pushCall
}

func (p *recordingPusher) PushBulk(_ context.Context, userIDs []int64, message, schemaName string) notifservices.DeliveryReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, pushCall{UserIDs: userIDs, Message: message, Tenant: schemaName})
	return notifservices.DeliveryReport{Attempted: len(userIDs), Delivered: len(userIDs)}
}

type staffFunc func(ctx context.Context) ([]int64, error)

func (f staffFunc) StaffIDs(ctx context.Context) ([]int64, error) { return f(ctx) }

func staticStaff(ids ...int64) staffFunc {
	return func(context.Context) ([]int64, error) { return ids, nil }
}

type setCall struct {
	Key string
	TTL time.Duration
}

// recordingCache records Set calls on top of a memory backend.
type recordingCache struct {
	cache.Backend
	mu   sync.Mutex
	sets []setCall
}

func (c *recordingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	c.sets = append(c.sets, setCall{Key: key, TTL: ttl})
	c.mu.Unlock()
	return c.Backend.Set(ctx, key, value, ttl)
}

func (c *recordingCache) setsWithPrefix(prefix string) []setCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []setCall
	for _, s := range c.sets {
		if len(s.Key) >= len(prefix) && s.Key[:len(prefix)] == prefix {
			out = append(out, s)
		}
	}
	return out
}

// failingCache fails every operation with err.
type failingCache struct{ err error }

func (f failingCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.err }
func (f failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return f.err
}
func (f failingCache) Add(context.Context, string, []byte, time.Duration) (bool, error) {
	return false, f.err
}
func (f failingCache) Delete(context.Context, ...string) error   { return f.err }
func (f failingCache) Incr(context.Context, string) (int64, error) { return 0, f.err }

var errBoom = errors.New("boom")

type fixture struct {
	deps          *services.Deps
	cache         *recordingCache
	search        *fakeSearch
	pusher        *recordingPusher
	products      *persistence.InmemProductRepository
	notifications *notifpersistence.InmemNotificationRepository
	logs          *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := cache.NewMemoryBackend()
	t.Cleanup(mem.Close)
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	f := &fixture{
		cache:         &recordingCache{Backend: mem},
		search:        newFakeSearch(),
		pusher:        &recordingPusher{},
		products:      persistence.NewInmemProductRepository(),
		notifications: notifpersistence.NewInmemNotificationRepository(),
		logs:          hook,
	}
	f.deps = &services.Deps{
		Products:      f.products,
		Staff:         staticStaff(),
		Notifications: f.notifications,
		Pusher:        f.pusher,
		Cache:         f.cache,
		Search:        f.search,
		IndexPrefix:   "saas",
		TTLs:          services.DefaultCacheTTLs(),
		Logger:        logger,
	}
	return f
}

func tenantCtx(tenant string) context.Context {
	return composables.WithTenant(context.Background(), tenant)
}

func (f *fixture) seed(t *testing.T, ctx context.Context, name, price string, active bool) product.Product {
	t.Helper()
	p, err := product.ParsePrice(price)
	require.NoError(t, err)
	created, err := f.products.Create(ctx, product.New(name, name+" description", p).SetActive(active))
	require.NoError(t, err)
	return created
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func now() time.Time { return fixedNow }
