package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/iota-catalog/modules/notifications/domain/entities/notification"
	"github.com/iota-uz/iota-catalog/modules/notifications/infrastructure/persistence"
	"github.com/iota-uz/iota-catalog/modules/notifications/services"
	"github.com/iota-uz/iota-catalog/pkg/composables"
)

func TestNotificationService(t *testing.T) {
	ctx := composables.WithTenant(context.Background(), "acme")
	repo := persistence.NewInmemNotificationRepository()
	svc := services.NewNotificationService(repo)

	created, err := svc.CreateForUsers(ctx, []int64{1, 2}, "New product created: Laptop")
	require.NoError(t, err)
	require.Len(t, created, 2)

	none, err := svc.CreateForUsers(ctx, nil, "ignored")
	require.NoError(t, err)
	require.Empty(t, none)

	list, err := svc.ListForUser(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "New product created: Laptop", list[0].Message())
	require.False(t, list[0].IsRead())

	require.NoError(t, svc.MarkRead(ctx, 1, list[0].ID()))
	list, err = svc.ListForUser(ctx, 1, 10)
	require.NoError(t, err)
	require.True(t, list[0].IsRead())

	require.ErrorIs(t, svc.MarkRead(ctx, 2, list[0].ID()), notification.ErrNotFound)

	other := composables.WithTenant(context.Background(), "globex")
	list, err = svc.ListForUser(other, 1, 10)
	require.NoError(t, err)
	require.Empty(t, list)
}
