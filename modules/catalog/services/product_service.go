package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/iota-uz/iota-catalog/modules/catalog/domain/aggregates/product"
	"github.com/iota-uz/iota-catalog/pkg/composables"
)

// ValidationError carries per-field messages keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, "; ")
}

// ProductService is the write path. Each write is stored first and then
// handed to the tenant's ProductEventService.
type ProductService struct {
	deps *Deps
}

func NewProductService(deps *Deps) *ProductService {
	return &ProductService{deps: deps}
}

func (s *ProductService) GetByID(ctx context.Context, id int64) (product.Product, error) {
	return s.deps.Products.GetByID(ctx, id)
}

func (s *ProductService) Create(ctx context.Context, dto *product.CreateDTO) (product.Product, error) {
	if fields, ok := dto.Ok(); !ok {
		return product.Product{}, &ValidationError{Fields: fields}
	}
	entity, err := dto.ToEntity()
	if err != nil {
		return product.Product{}, err
	}
	created, err := s.deps.Products.Create(ctx, entity)
	if err != nil {
		return product.Product{}, errors.Wrap(err, "create product")
	}
	s.deps.EventService(composables.UseTenant(ctx)).HandleProductSaved(ctx, created, true)
	return created, nil
}

func (s *ProductService) Update(ctx context.Context, id int64, dto *product.UpdateDTO) (product.Product, error) {
	if fields, ok := dto.Ok(); !ok {
		return product.Product{}, &ValidationError{Fields: fields}
	}
	existing, err := s.deps.Products.GetByID(ctx, id)
	if err != nil {
		return product.Product{}, err
	}
	changed, err := dto.Apply(existing)
	if err != nil {
		return product.Product{}, err
	}
	updated, err := s.deps.Products.Update(ctx, changed)
	if err != nil {
		return product.Product{}, errors.Wrapf(err, "update product %d", id)
	}
	s.deps.EventService(composables.UseTenant(ctx)).HandleProductSaved(ctx, updated, false)
	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if err := s.deps.Products.Delete(ctx, id); err != nil {
		return err
	}
	s.deps.EventService(composables.UseTenant(ctx)).HandleProductDeleted(ctx, id)
	return nil
}

// Reindex rebuilds the search index of the tenant in context from storage.
func (s *ProductService) Reindex(ctx context.Context) (ReindexReport, error) {
	products, err := s.deps.Products.All(ctx)
	if err != nil {
		return ReindexReport{}, errors.Wrap(err, "load products")
	}
	return s.deps.SearchService(composables.UseTenant(ctx)).Reindex(ctx, products)
}
