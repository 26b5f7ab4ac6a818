package services_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/iota-catalog/modules/catalog/domain/aggregates/product"
	"github.com/iota-uz/iota-catalog/modules/catalog/infrastructure/search"
	"github.com/iota-uz/iota-catalog/modules/catalog/services"
)

func decodePayloads(t *testing.T, body []byte) []services.ProductPayload {
	t.Helper()
	var out []services.ProductPayload
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func payloadIDs(items []services.ProductPayload) []int64 {
	ids := make([]int64, 0, len(items))
	for _, p := range items {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestCatalogReadService_SearchOrdersByRelevance(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx("acme")
	first := f.seed(t, ctx, "Phone", "99.50", true)
	second := f.seed(t, ctx, "Phone case", "10.00", true)
	hidden := f.seed(t, ctx, "Old phone", "5.00", false)
	f.search.hits = []search.Hit{
		{ID: "2", Score: 3.1},
		{ID: "1", Score: 2.0},
		{ID: "3", Score: 1.5},
		{ID: "404", Score: 1.0},
	}
	require.Equal(t, int64(2), second.ID())
	require.Equal(t, int64(3), hidden.ID())

	body, err := services.NewCatalogReadService(f.deps).Search(ctx, "  phone ")
	require.NoError(t, err)

	items := decodePayloads(t, body)
	require.Equal(t, []int64{second.ID(), first.ID()}, payloadIDs(items))
	require.Equal(t, "99.50", items[1].Price)

	require.Len(t, f.search.queries, 1)
	require.Equal(t, "phone", f.search.queries[0].Text)

	version := f.deps.CacheService("acme").GetSearchVersion(ctx)
	sets := f.cache.setsWithPrefix("acme:catalog:products:search:v1:")
	require.Len(t, sets, 1)
	require.Equal(t, f.deps.CacheService("acme").SearchKey(version, services.SearchDigest("phone")), sets[0].Key)
	require.Equal(t, 60*time.Second, sets[0].TTL)
}

func TestCatalogReadService_SearchServedFromCache(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx("acme")
	f.seed(t, ctx, "Phone", "99.50", true)
	f.search.hits = []search.Hit{{ID: "1"}}
	reads := services.NewCatalogReadService(f.deps)

	first, err := reads.Search(ctx, "phone")
	require.NoError(t, err)
	second, err := reads.Search(ctx, "PHONE")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Len(t, f.search.queries, 1)
}

func TestCatalogReadService_SearchRequeriesAfterGenerationBump(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx("acme")
	phone := f.seed(t, ctx, "Phone", "99.50", true)
	f.search.hits = []search.Hit{{ID: "1"}}
	reads := services.NewCatalogReadService(f.deps)

	_, err := reads.Search(ctx, "phone")
	require.NoError(t, err)

	f.deps.EventService("acme").HandleProductSaved(ctx, phone, false)

	_, err = reads.Search(ctx, "phone")
	require.NoError(t, err)
	require.Len(t, f.search.queries, 2)
}

func TestCatalogReadService_SearchBackendFailure(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx("acme")
	f.search.queryErr = errBoom

	body, err := services.NewCatalogReadService(f.deps).Search(ctx, "phone")
	require.Nil(t, body)
	require.ErrorIs(t, err, services.ErrSearchUnavailable)
	require.Empty(t, f.cache.setsWithPrefix("acme:catalog:products:search:v1:"))
}

func TestCatalogReadService_SearchRequiresQuery(t *testing.T) {
	f := newFixture(t)
	reads := services.NewCatalogReadService(f.deps)

	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := reads.Search(tenantCtx("acme"), q)
		require.ErrorIs(t, err, services.ErrQueryRequired)
	}
	require.Empty(t, f.search.queries)
}

func TestCatalogReadService_SearchEmptyResult(t *testing.T) {
	f := newFixture(t)
	body, err := services.NewCatalogReadService(f.deps).Search(tenantCtx("acme"), "nothing")
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(body))
}

func TestCatalogReadService_SearchTenantIsolation(t *testing.T) {
	f := newFixture(t)
	f.search.hits = []search.Hit{{ID: "1"}}
	reads := services.NewCatalogReadService(f.deps)

	_, err := reads.Search(tenantCtx("acme"), "phone")
	require.NoError(t, err)
	_, err = reads.Search(tenantCtx("globex"), "phone")
	require.NoError(t, err)

	require.Len(t, f.search.queries, 2)
	require.Equal(t, "saas_acme_products", f.search.queries[0].Index)
	require.Equal(t, "saas_globex_products", f.search.queries[1].Index)
}

func TestCatalogReadService_ListCachedUntilInvalidated(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx("acme")
	f.seed(t, ctx, "Phone", "99.50", true)
	f.seed(t, ctx, "Hidden", "1.00", false)
	reads := services.NewCatalogReadService(f.deps)

	body, err := reads.List(ctx)
	require.NoError(t, err)
	items := decodePayloads(t, body)
	require.Len(t, items, 1)
	require.Equal(t, "Phone", items[0].Name)

	sets := f.cache.setsWithPrefix("acme:catalog:products:list")
	require.Len(t, sets, 1)
	require.Equal(t, 120*time.Second, sets[0].TTL)

	laptop := f.seed(t, ctx, "Laptop", "1200.00", true)
	body, err = reads.List(ctx)
	require.NoError(t, err)
	require.Len(t, decodePayloads(t, body), 1, "stale until invalidated")

	f.deps.EventService("acme").HandleProductSaved(ctx, laptop, true)
	body, err = reads.List(ctx)
	require.NoError(t, err)
	require.Len(t, decodePayloads(t, body), 2)
}

func TestCatalogReadService_Detail(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx("acme")
	phone := f.seed(t, ctx, "Phone", "99.50", true)
	hidden := f.seed(t, ctx, "Hidden", "1.00", false)
	reads := services.NewCatalogReadService(f.deps)

	body, err := reads.Detail(ctx, phone.ID())
	require.NoError(t, err)
	var got services.ProductPayload
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, "Phone", got.Name)
	require.Equal(t, "99.50", got.Price)

	_, err = reads.Detail(ctx, hidden.ID())
	require.ErrorIs(t, err, product.ErrNotFound)
	_, err = reads.Detail(ctx, 999)
	require.ErrorIs(t, err, product.ErrNotFound)

	keys := f.deps.CacheService("acme")
	sets := f.cache.setsWithPrefix(keys.ProductDetailKey(phone.ID()))
	require.Len(t, sets, 1)
	require.Equal(t, 120*time.Second, sets[0].TTL)
	require.Empty(t, f.cache.setsWithPrefix(keys.ProductDetailKey(hidden.ID())), "not found responses are never cached")
	require.Empty(t, f.cache.setsWithPrefix(keys.ProductDetailKey(999)))
}

func TestCatalogReadService_CacheOutageFallsThrough(t *testing.T) {
	f := newFixture(t)
	ctx := tenantCtx("acme")
	f.seed(t, ctx, "Phone", "99.50", true)
	f.search.hits = []search.Hit{{ID: "1"}}
	f.deps.Cache = failingCache{err: errBoom}
	reads := services.NewCatalogReadService(f.deps)

	body, err := reads.List(ctx)
	require.NoError(t, err)
	require.Len(t, decodePayloads(t, body), 1)

	body, err = reads.Search(ctx, "phone")
	require.NoError(t, err)
	require.Len(t, decodePayloads(t, body), 1)
}
