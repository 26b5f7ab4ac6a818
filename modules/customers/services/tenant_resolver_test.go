package services_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/iota-catalog/modules/customers/domain/aggregates/client"
	"github.com/iota-uz/iota-catalog/modules/customers/infrastructure/persistence"
	"github.com/iota-uz/iota-catalog/modules/customers/services"
)

type countingRepo struct {
	client.Repository
	calls atomic.Int32
	err   error
}

func (r *countingRepo) GetByDomain(ctx context.Context, domain string) (client.Client, error) {
	r.calls.Add(1)
	if r.err != nil {
		return client.Client{}, r.err
	}
	return r.Repository.GetByDomain(ctx, domain)
}

func seededRepo(t *testing.T) *persistence.InmemClientRepository {
	t.Helper()
	repo := persistence.NewInmemClientRepository()
	_, err := repo.Create(context.Background(), client.New("acme", "Acme", client.Domain{Domain: "Acme.Localhost", IsPrimary: true}))
	require.NoError(t, err)
	return repo
}

func TestParseHost(t *testing.T) {
	require.Equal(t, "acme.localhost", services.ParseHost("acme.localhost:8000"))
	require.Equal(t, "acme.localhost", services.ParseHost(" ACME.localhost "))
	require.Equal(t, "", services.ParseHost(""))
}

func TestHostFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "http://acme.localhost:8000/ws/notifications/", nil)
	require.Equal(t, "acme.localhost:8000", services.HostFromRequest(r))
}

func TestTenantResolver_SchemaNameFromHost(t *testing.T) {
	ctx := context.Background()
	resolver := services.NewTenantResolver(seededRepo(t), services.TenantResolverOptions{})

	require.Equal(t, "acme", resolver.SchemaNameFromHost(ctx, "acme.localhost:8000"))
	require.Equal(t, "public", resolver.SchemaNameFromHost(ctx, "unknown.localhost"))
	require.Equal(t, "public", resolver.SchemaNameFromHost(ctx, ""))
}

func TestTenantResolver_CustomPublicSchema(t *testing.T) {
	resolver := services.NewTenantResolver(seededRepo(t), services.TenantResolverOptions{PublicSchema: "shared"})
	require.Equal(t, "shared", resolver.SchemaNameFromHost(context.Background(), "nobody.test"))
}

func TestTenantResolver_CachesLookups(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepo{Repository: seededRepo(t)}
	resolver := services.NewTenantResolver(repo, services.TenantResolverOptions{CacheTTL: time.Minute})

	for i := 0; i < 3; i++ {
		require.Equal(t, "acme", resolver.SchemaNameFromHost(ctx, "acme.localhost"))
	}
	require.Equal(t, int32(1), repo.calls.Load())

	resolver.Forget("acme.localhost:8000")
	require.Equal(t, "acme", resolver.SchemaNameFromHost(ctx, "acme.localhost"))
	require.Equal(t, int32(2), repo.calls.Load())
}

func TestTenantResolver_LookupFailureFallsBackUncached(t *testing.T) {
	ctx := context.Background()
	logger, hook := test.NewNullLogger()
	repo := &countingRepo{Repository: seededRepo(t), err: errors.New("db down")}
	resolver := services.NewTenantResolver(repo, services.TenantResolverOptions{CacheTTL: time.Minute, Logger: logger})

	require.Equal(t, "public", resolver.SchemaNameFromHost(ctx, "acme.localhost"))
	require.NotEmpty(t, hook.AllEntries())

	repo.err = nil
	require.Equal(t, "acme", resolver.SchemaNameFromHost(ctx, "acme.localhost"))
	require.Equal(t, int32(2), repo.calls.Load())
}
