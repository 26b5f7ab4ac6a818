package persistence

import (
	"context"
	"errors"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/iota-catalog/modules/catalog/domain/aggregates/product"
	"github.com/iota-uz/iota-catalog/pkg/composables"
)

const (
	productColumns = `id, name, description, price::text, is_active, created_at, updated_at`

	selectProductByIDQuery   = `SELECT ` + productColumns + ` FROM catalog_product WHERE id = $1`
	selectActiveProductQuery = `SELECT ` + productColumns + ` FROM catalog_product WHERE is_active = true ORDER BY created_at DESC, id DESC`
	selectActiveByIDsQuery   = `SELECT ` + productColumns + ` FROM catalog_product WHERE is_active = true AND id = ANY($1)`
	selectAllProductsQuery   = `SELECT ` + productColumns + ` FROM catalog_product ORDER BY id`
	insertProductQuery       = `
		INSERT INTO catalog_product (name, description, price, is_active, created_at, updated_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $5)
		RETURNING ` + productColumns
	updateProductQuery = `
		UPDATE catalog_product
		SET name = $2, description = $3, price = $4::numeric, is_active = $5, updated_at = $6
		WHERE id = $1
		RETURNING ` + productColumns
	deleteProductQuery = `DELETE FROM catalog_product WHERE id = $1`
)

type ProductRepository struct{}

func NewProductRepository() product.Repository {
	return &ProductRepository{}
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (product.Product, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (product.Product, error) {
		return r.queryOne(txCtx, selectProductByIDQuery, id)
	})
}

func (r *ProductRepository) ListActive(ctx context.Context) ([]product.Product, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]product.Product, error) {
		return r.queryMany(txCtx, selectActiveProductQuery)
	})
}

func (r *ProductRepository) ActiveByIDs(ctx context.Context, ids []int64) ([]product.Product, error) {
	if len(ids) == 0 {
		return []product.Product{}, nil
	}
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]product.Product, error) {
		return r.queryMany(txCtx, selectActiveByIDsQuery, ids)
	})
}

func (r *ProductRepository) All(ctx context.Context) ([]product.Product, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]product.Product, error) {
		return r.queryMany(txCtx, selectAllProductsQuery)
	})
}

func (r *ProductRepository) Create(ctx context.Context, p product.Product) (product.Product, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (product.Product, error) {
		created, err := r.queryOne(txCtx, insertProductQuery,
			p.Name(), p.Description(), p.Price().StringFixed(2), p.IsActive(), time.Now(),
		)
		if err != nil {
			return product.Product{}, gerrors.Wrap(err, "create product")
		}
		return created, nil
	})
}

func (r *ProductRepository) Update(ctx context.Context, p product.Product) (product.Product, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (product.Product, error) {
		updated, err := r.queryOne(txCtx, updateProductQuery,
			p.ID(), p.Name(), p.Description(), p.Price().StringFixed(2), p.IsActive(), time.Now(),
		)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return product.Product{}, err
			}
			return product.Product{}, gerrors.Wrapf(err, "update product %d", p.ID())
		}
		return updated, nil
	})
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		tx, err := composables.UseTx(txCtx)
		if err != nil {
			return err
		}
		tag, err := tx.Exec(txCtx, deleteProductQuery, id)
		if err != nil {
			return gerrors.Wrapf(err, "delete product %d", id)
		}
		if tag.RowsAffected() == 0 {
			return product.ErrNotFound
		}
		return nil
	})
}

func (r *ProductRepository) queryOne(ctx context.Context, query string, args ...any) (product.Product, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return product.Product{}, err
	}
	p, err := scanProduct(tx.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return product.Product{}, product.ErrNotFound
	}
	return p, err
}

func (r *ProductRepository) queryMany(ctx context.Context, query string, args ...any) ([]product.Product, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, gerrors.Wrap(err, "query products")
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, gerrors.Wrap(err, "collect products")
	}
	return products, nil
}

func scanProduct(row pgx.Row) (product.Product, error) {
	var (
		id                   int64
		name, description    string
		price                string
		isActive             bool
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &name, &description, &price, &isActive, &createdAt, &updatedAt); err != nil {
		return product.Product{}, err
	}
	amount, err := decimal.NewFromString(price)
	if err != nil {
		return product.Product{}, gerrors.Wrapf(err, "parse price of product %d", id)
	}
	return product.Hydrate(id, name, description, amount, isActive, createdAt, updatedAt), nil
}
