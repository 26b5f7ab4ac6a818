package persistence_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/iota-catalog/modules/catalog/domain/aggregates/product"
	"github.com/iota-uz/iota-catalog/modules/catalog/infrastructure/persistence"
	"github.com/iota-uz/iota-catalog/pkg/composables"
)

func TestInmemProductRepository(t *testing.T) {
	repo := persistence.NewInmemProductRepository()
	acme := composables.WithTenant(context.Background(), "acme")
	globex := composables.WithTenant(context.Background(), "globex")

	laptop, err := repo.Create(acme, product.New("Laptop", "", decimal.RequireFromString("1200.00")))
	require.NoError(t, err)
	phone, err := repo.Create(acme, product.New("Phone", "", decimal.RequireFromString("99.50")))
	require.NoError(t, err)
	hidden, err := repo.Create(acme, product.New("Hidden", "", decimal.Zero).SetActive(false))
	require.NoError(t, err)

	other, err := repo.Create(globex, product.New("Other", "", decimal.Zero))
	require.NoError(t, err)
	require.Equal(t, laptop.ID(), other.ID(), "ids are allocated per tenant")

	active, err := repo.ListActive(acme)
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.Equal(t, phone.ID(), active[0].ID())

	byIDs, err := repo.ActiveByIDs(acme, []int64{hidden.ID(), phone.ID(), 404})
	require.NoError(t, err)
	require.Len(t, byIDs, 1)
	require.Equal(t, phone.ID(), byIDs[0].ID())

	all, err := repo.All(acme)
	require.NoError(t, err)
	require.Len(t, all, 3)

	updated, err := repo.Update(acme, phone.SetName("Smartphone"))
	require.NoError(t, err)
	require.Equal(t, "Smartphone", updated.Name())
	require.Equal(t, phone.CreatedAt(), updated.CreatedAt())

	_, err = repo.Update(acme, product.Hydrate(999, "x", "", decimal.Zero, true, phone.CreatedAt(), phone.CreatedAt()))
	require.ErrorIs(t, err, product.ErrNotFound)

	require.NoError(t, repo.Delete(acme, laptop.ID()))
	require.ErrorIs(t, repo.Delete(acme, laptop.ID()), product.ErrNotFound)

	got, err := repo.GetByID(globex, other.ID())
	require.NoError(t, err)
	require.Equal(t, "Other", got.Name())
}
