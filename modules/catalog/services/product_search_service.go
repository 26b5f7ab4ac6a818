package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/iota-catalog/modules/catalog/domain/aggregates/product"
	"github.com/iota-uz/iota-catalog/modules/catalog/infrastructure/search"
	"github.com/iota-uz/iota-catalog/pkg/composables"
)

const SearchResultLimit = 25

var (
	searchFields = []string{"name^2", "description"}

	productMapping = search.Mapping{
		"name":        map[string]any{"type": "text"},
		"description": map[string]any{"type": "text"},
		"price":       map[string]any{"type": "float"},
	}
)

type ProductDocument struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

func NewProductDocument(p product.Product) ProductDocument {
	return ProductDocument{
		Name:        p.Name(),
		Description: p.Description(),
		Price:       p.PriceFloat(),
	}
}

// IndexName is the per-tenant product index. It is the tenant isolation
// boundary inside the search engine.
func IndexName(prefix, tenant string) string {
	return fmt.Sprintf("%s_%s_products", prefix, tenant)
}

type ProductSearchOptions struct {
	IndexPrefix string
	Refresh     search.RefreshMode
	Logger      logrus.FieldLogger
}

type ProductSearchService struct {
	backend search.Backend
	index   string
	refresh search.RefreshMode
	logger  logrus.FieldLogger
}

func NewProductSearchService(tenant string, backend search.Backend, opts ProductSearchOptions) *ProductSearchService {
	if strings.TrimSpace(tenant) == "" {
		tenant = composables.DefaultTenant
	}
	prefix := opts.IndexPrefix
	if prefix == "" {
		prefix = "saas"
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	index := IndexName(prefix, tenant)
	return &ProductSearchService{
		backend: backend,
		index:   index,
		refresh: opts.Refresh,
		logger:  logger.WithFields(logrus.Fields{"tenant": tenant, "index": index}),
	}
}

func (s *ProductSearchService) IndexName() string {
	return s.index
}

// EnsureIndex creates the index with the product mapping when it is
// missing. Losing a creation race counts as success.
func (s *ProductSearchService) EnsureIndex(ctx context.Context) error {
	exists, err := s.backend.IndexExists(ctx, s.index)
	if err != nil {
		return errors.Wrap(err, "check product index")
	}
	if exists {
		return nil
	}
	if err := s.backend.CreateIndex(ctx, s.index, productMapping); err != nil && !errors.Is(err, search.ErrIndexExists) {
		return errors.Wrap(err, "create product index")
	}
	return nil
}

func (s *ProductSearchService) IndexProduct(ctx context.Context, p product.Product) error {
	if err := s.EnsureIndex(ctx); err != nil {
		indexWrites.WithLabelValues("index", "error").Inc()
		return err
	}
	err := s.upsert(ctx, p)
	indexWrites.WithLabelValues("index", resultLabel(err)).Inc()
	return err
}

func (s *ProductSearchService) upsert(ctx context.Context, p product.Product) error {
	id := strconv.FormatInt(p.ID(), 10)
	if err := s.backend.Upsert(ctx, s.index, id, NewProductDocument(p), s.refresh); err != nil {
		return errors.Wrapf(err, "index product %d", p.ID())
	}
	return nil
}

// DeleteProduct removes the document for id. Failures, including a missing
// document, are logged and never returned.
func (s *ProductSearchService) DeleteProduct(ctx context.Context, id int64) {
	err := s.backend.Delete(ctx, s.index, strconv.FormatInt(id, 10), s.refresh)
	indexWrites.WithLabelValues("delete", resultLabel(err)).Inc()
	if err != nil {
		s.logger.WithError(err).WithField("product_id", id).Error("failed to delete product from search index")
	}
}

// Search returns up to SearchResultLimit product ids ordered by relevance.
func (s *ProductSearchService) Search(ctx context.Context, query string) ([]int64, error) {
	if err := s.EnsureIndex(ctx); err != nil {
		return nil, err
	}
	hits, err := s.backend.Query(ctx, s.index, query, searchFields, SearchResultLimit)
	if err != nil {
		return nil, errors.Wrap(err, "query product index")
	}
	ids := make([]int64, 0, len(hits))
	for _, h := range hits {
		id, err := strconv.ParseInt(h.ID, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "unexpected document id %q", h.ID)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

type ReindexReport struct {
	Indexed int
	Failed  int
}

// Reindex upserts every product into the tenant index. Per-document
// failures are logged and counted.
func (s *ProductSearchService) Reindex(ctx context.Context, products []product.Product) (ReindexReport, error) {
	var report ReindexReport
	if err := s.EnsureIndex(ctx); err != nil {
		return report, err
	}
	for _, p := range products {
		if err := s.upsert(ctx, p); err != nil {
			indexWrites.WithLabelValues("reindex", "error").Inc()
			s.logger.WithError(err).WithField("product_id", p.ID()).Warn("reindex failed for product")
			report.Failed++
			continue
		}
		indexWrites.WithLabelValues("reindex", "ok").Inc()
		report.Indexed++
	}
	return report, nil
}
