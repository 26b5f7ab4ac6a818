package composables

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/iota-catalog/pkg/constants"
)

// ApplyTenantSchema points the transaction's search_path at the tenant
// schema in context. The setting is local to the transaction.
func ApplyTenantSchema(ctx context.Context, tx pgx.Tx) error {
	schema := UseTenant(ctx)
	path := pgx.Identifier{schema}.Sanitize()
	if schema != DefaultTenant {
		path += ", " + pgx.Identifier{DefaultTenant}.Sanitize()
	}
	if _, err := tx.Exec(ctx, "SELECT set_config('search_path', $1, true)", path); err != nil {
		return fmt.Errorf("failed to set tenant search_path: %w", err)
	}
	return nil
}

// InTenantTx runs fn inside a transaction scoped to the tenant schema in
// context, reusing the transaction already in context when there is one.
func InTenantTx(ctx context.Context, fn func(context.Context) error) error {
	if existing, ok := ctx.Value(constants.TxKey).(pgx.Tx); ok && existing != nil {
		if err := ApplyTenantSchema(ctx, existing); err != nil {
			return err
		}
		return fn(ctx)
	}

	pool, err := UsePool(ctx)
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}

	txCtx := WithTx(ctx, tx)
	if err := ApplyTenantSchema(txCtx, tx); err != nil {
		if rErr := tx.Rollback(ctx); rErr != nil {
			return errors.Join(err, rErr)
		}
		return err
	}

	if err := fn(txCtx); err != nil {
		if rErr := tx.Rollback(ctx); rErr != nil {
			return errors.Join(err, rErr)
		}
		return err
	}
	return tx.Commit(ctx)
}

func InTenantTxResult[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := InTenantTx(ctx, func(txCtx context.Context) error {
		var innerErr error
		out, innerErr = fn(txCtx)
		return innerErr
	})
	return out, err
}
