package product

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("product not found")

type Repository interface {
	GetByID(ctx context.Context, id int64) (Product, error)
	// ListActive returns active products, newest first.
	ListActive(ctx context.Context) ([]Product, error)
	// ActiveByIDs returns the active products among ids in no particular order.
	ActiveByIDs(ctx context.Context, ids []int64) ([]Product, error)
	// All returns every product including inactive ones, ordered by id.
	All(ctx context.Context) ([]Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, p Product) (Product, error)
	Delete(ctx context.Context, id int64) error
}
