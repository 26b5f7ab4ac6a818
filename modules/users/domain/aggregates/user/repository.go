package user

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	// StaffIDs returns the ids of every staff user of the tenant in context.
	StaffIDs(ctx context.Context) ([]int64, error)
	Create(ctx context.Context, u User) (User, error)
}
