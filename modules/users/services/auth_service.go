package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/iota-uz/iota-catalog/modules/users/domain/aggregates/user"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	repo user.Repository
}

func NewAuthService(repo user.Repository) *AuthService {
	return &AuthService{repo: repo}
}

// Authenticate checks a username/password pair against the tenant in context.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (user.User, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrInvalidCredentials
		}
		return user.User{}, errors.Wrap(err, "lookup user")
	}
	if !u.IsActive() || !u.CheckPassword(password) {
		return user.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Identify resolves a username forwarded by a trusted upstream proxy.
func (s *AuthService) Identify(ctx context.Context, username string) (user.User, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrInvalidCredentials
		}
		return user.User{}, errors.Wrap(err, "lookup user")
	}
	if !u.IsActive() {
		return user.User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *AuthService) Register(ctx context.Context, username, email, password string, staff bool) (user.User, error) {
	u, err := user.New(username, email, staff).WithPassword(password)
	if err != nil {
		return user.User{}, errors.Wrap(err, "hash password")
	}
	return s.repo.Create(ctx, u)
}
