package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iota-uz/iota-catalog/modules/users/domain/aggregates/user"
	"github.com/iota-uz/iota-catalog/pkg/composables"
)

const (
	userColumns = `id, username, email, display_name, password, is_staff, is_active, date_joined`

	selectUserByIDQuery       = `SELECT ` + userColumns + ` FROM users_user WHERE id = $1`
	selectUserByUsernameQuery = `SELECT ` + userColumns + ` FROM users_user WHERE username = $1`
	selectStaffIDsQuery       = `SELECT id FROM users_user WHERE is_staff = true ORDER BY id`
	insertUserQuery           = `
		INSERT INTO users_user (username, email, display_name, password, is_staff, is_active, date_joined)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns
)

type UserRepository struct{}

func NewUserRepository() user.Repository {
	return &UserRepository{}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (user.User, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (user.User, error) {
		return r.queryOne(txCtx, selectUserByIDQuery, id)
	})
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (user.User, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (user.User, error) {
		return r.queryOne(txCtx, selectUserByUsernameQuery, strings.TrimSpace(username))
	})
}

func (r *UserRepository) StaffIDs(ctx context.Context) ([]int64, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]int64, error) {
		tx, err := composables.UseTx(txCtx)
		if err != nil {
			return nil, err
		}
		rows, err := tx.Query(txCtx, selectStaffIDsQuery)
		if err != nil {
			return nil, gerrors.Wrap(err, "query staff ids")
		}
		ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			return nil, gerrors.Wrap(err, "collect staff ids")
		}
		return ids, nil
	})
}

func (r *UserRepository) Create(ctx context.Context, u user.User) (user.User, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (user.User, error) {
		joined := u.DateJoined()
		if joined.IsZero() {
			joined = time.Now()
		}
		created, err := r.queryOne(txCtx, insertUserQuery,
			u.Username(), u.Email(), u.DisplayName(), u.PasswordHash(), u.IsStaff(), u.IsActive(), joined,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return user.User{}, user.ErrUsernameTaken
			}
			return user.User{}, gerrors.Wrap(err, "create user")
		}
		return created, nil
	})
}

func (r *UserRepository) queryOne(ctx context.Context, query string, args ...any) (user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return user.User{}, err
	}
	var (
		id                    int64
		username, email, name string
		password              string
		isStaff, isActive     bool
		joined                time.Time
	)
	err = tx.QueryRow(ctx, query, args...).Scan(&id, &username, &email, &name, &password, &isStaff, &isActive, &joined)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return user.Hydrate(id, username, email, name, password, isStaff, isActive, joined), nil
}
