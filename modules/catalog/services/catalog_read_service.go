package services

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/iota-uz/iota-catalog/modules/catalog/domain/aggregates/product"
	"github.com/iota-uz/iota-catalog/pkg/composables"
)

var (
	ErrQueryRequired     = errors.New("Missing query parameter q")
	ErrSearchUnavailable = errors.New("Search temporarily unavailable")
)

// CatalogReadService serves the read paths through the tenant cache. Every
// method returns the encoded JSON body.
type CatalogReadService struct {
	deps *Deps
}

func NewCatalogReadService(deps *Deps) *CatalogReadService {
	return &CatalogReadService{deps: deps}
}

func (s *CatalogReadService) List(ctx context.Context) ([]byte, error) {
	tenant := composables.UseTenant(ctx)
	keys := s.deps.CacheService(tenant)
	key := keys.ProductListKey()

	if body, ok := s.cached(ctx, key); ok {
		return body, nil
	}
	products, err := s.deps.Products.ListActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	body, err := encodeProducts(products)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, body, s.deps.TTLs.List)
	return body, nil
}

// Detail returns product.ErrNotFound for missing and inactive products.
func (s *CatalogReadService) Detail(ctx context.Context, id int64) ([]byte, error) {
	tenant := composables.UseTenant(ctx)
	key := s.deps.CacheService(tenant).ProductDetailKey(id)

	if body, ok := s.cached(ctx, key); ok {
		return body, nil
	}
	p, err := s.deps.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return nil, product.ErrNotFound
	}
	body, err := encodeProduct(p)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, body, s.deps.TTLs.Detail)
	return body, nil
}

// Search answers a free text query. Results are cached under the current
// search generation so any product write makes earlier entries unreachable.
func (s *CatalogReadService) Search(ctx context.Context, query string) ([]byte, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		searchQueries.WithLabelValues("invalid").Inc()
		return nil, ErrQueryRequired
	}
	tenant := composables.UseTenant(ctx)
	keys := s.deps.CacheService(tenant)
	version := keys.GetSearchVersion(ctx)
	key := keys.SearchKey(version, SearchDigest(query))

	if body, ok := s.cached(ctx, key); ok {
		searchQueries.WithLabelValues("cached").Inc()
		return body, nil
	}

	ids, err := s.deps.SearchService(tenant).Search(ctx, query)
	if err != nil {
		searchQueries.WithLabelValues("error").Inc()
		composables.UseLogger(ctx).WithError(err).WithField("tenant", tenant).Error("product search failed")
		return nil, errors.Wrap(ErrSearchUnavailable, err.Error())
	}

	found, err := s.deps.Products.ActiveByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "load searched products")
	}
	byID := make(map[int64]product.Product, len(found))
	for _, p := range found {
		byID[p.ID()] = p
	}
	ordered := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}

	body, err := encodeProducts(ordered)
	if err != nil {
		return nil, err
	}
	searchQueries.WithLabelValues("ok").Inc()
	s.store(ctx, key, body, s.deps.TTLs.Search)
	return body, nil
}

func (s *CatalogReadService) cached(ctx context.Context, key string) ([]byte, bool) {
	body, ok, err := s.deps.Cache.Get(ctx, key)
	if err != nil {
		composables.UseLogger(ctx).WithError(err).WithField("key", key).Warn("cache read failed")
		return nil, false
	}
	return body, ok
}

func (s *CatalogReadService) store(ctx context.Context, key string, body []byte, ttl time.Duration) {
	if err := s.deps.Cache.Set(ctx, key, body, ttl); err != nil {
		composables.UseLogger(ctx).WithError(err).WithField("key", key).Warn("cache write failed")
	}
}
