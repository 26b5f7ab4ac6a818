package composables

import (
	"context"
	"errors"

	"github.com/iota-uz/iota-catalog/modules/users/domain/aggregates/user"
	"github.com/iota-uz/iota-catalog/pkg/constants"
)

var ErrNoUserFound = errors.New("no user found in context")

func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, constants.UserKey, u)
}

// UseUser returns the authenticated user. Anonymous requests get ErrNoUserFound.
func UseUser(ctx context.Context) (user.User, error) {
	u, ok := ctx.Value(constants.UserKey).(user.User)
	if !ok || u.ID() == 0 {
		return user.User{}, ErrNoUserFound
	}
	return u, nil
}
