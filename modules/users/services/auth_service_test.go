package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/iota-catalog/modules/users/domain/aggregates/user"
	"github.com/iota-uz/iota-catalog/modules/users/infrastructure/persistence"
	"github.com/iota-uz/iota-catalog/modules/users/services"
	"github.com/iota-uz/iota-catalog/pkg/composables"
)

func TestAuthService_Authenticate(t *testing.T) {
	ctx := composables.WithTenant(context.Background(), "acme")
	svc := services.NewAuthService(persistence.NewInmemUserRepository())

	created, err := svc.Register(ctx, "alice", "alice@acme.test", "s3cret", true)
	require.NoError(t, err)
	require.NotZero(t, created.ID())

	got, err := svc.Authenticate(ctx, "alice", "s3cret")
	require.NoError(t, err)
	require.Equal(t, created.ID(), got.ID())

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	require.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "bob", "s3cret")
	require.ErrorIs(t, err, services.ErrInvalidCredentials)

	other := composables.WithTenant(context.Background(), "globex")
	_, err = svc.Authenticate(other, "alice", "s3cret")
	require.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestAuthService_Identify(t *testing.T) {
	ctx := composables.WithTenant(context.Background(), "acme")
	repo := persistence.NewInmemUserRepository()
	svc := services.NewAuthService(repo)

	_, err := repo.Create(ctx, user.New("carol", "", false))
	require.NoError(t, err)

	got, err := svc.Identify(ctx, " carol ")
	require.NoError(t, err)
	require.Equal(t, "carol", got.Username())

	_, err = svc.Identify(ctx, "dave")
	require.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestInmemUserRepository_StaffIDsAreTenantScoped(t *testing.T) {
	repo := persistence.NewInmemUserRepository()
	acme := composables.WithTenant(context.Background(), "acme")
	globex := composables.WithTenant(context.Background(), "globex")

	a1, err := repo.Create(acme, user.New("a1", "", true))
	require.NoError(t, err)
	_, err = repo.Create(acme, user.New("a2", "", false))
	require.NoError(t, err)
	a3, err := repo.Create(acme, user.New("a3", "", true))
	require.NoError(t, err)
	_, err = repo.Create(globex, user.New("g1", "", true))
	require.NoError(t, err)

	ids, err := repo.StaffIDs(acme)
	require.NoError(t, err)
	require.Equal(t, []int64{a1.ID(), a3.ID()}, ids)

	_, err = repo.Create(acme, user.New("a1", "", false))
	require.ErrorIs(t, err, user.ErrUsernameTaken)
}
