package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/iota-catalog/pkg/cache"
	"github.com/iota-uz/iota-catalog/pkg/composables"
)

const initialSearchVersion int64 = 1

// SearchDigest is the hex SHA-1 of the lower-cased query.
func SearchDigest(query string) string {
	sum := sha1.Sum([]byte(strings.ToLower(query)))
	return hex.EncodeToString(sum[:])
}

// CatalogCacheService builds tenant scoped catalog cache keys and owns the
// tenant's search generation counter.
type CatalogCacheService struct {
	tenant string
	cache  cache.Backend
	logger logrus.FieldLogger
}

func NewCatalogCacheService(tenant string, backend cache.Backend, logger logrus.FieldLogger) *CatalogCacheService {
	if strings.TrimSpace(tenant) == "" {
		tenant = composables.DefaultTenant
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CatalogCacheService{
		tenant: tenant,
		cache:  backend,
		logger: logger.WithField("tenant", tenant),
	}
}

func (s *CatalogCacheService) Tenant() string {
	return s.tenant
}

func (s *CatalogCacheService) Key(suffix string) string {
	return fmt.Sprintf("%s:catalog:%s", s.tenant, suffix)
}

func (s *CatalogCacheService) ProductListKey() string {
	return s.Key("products:list")
}

func (s *CatalogCacheService) ProductDetailKey(id int64) string {
	return s.Key("products:" + strconv.FormatInt(id, 10))
}

func (s *CatalogCacheService) SearchVersionKey() string {
	return s.Key("products:search:version")
}

func (s *CatalogCacheService) SearchKey(version int64, digest string) string {
	return s.Key(fmt.Sprintf("products:search:v%d:%s", version, digest))
}

// GetSearchVersion returns the current generation, initializing a missing
// counter to 1 and resetting a corrupted one. It never fails.
func (s *CatalogCacheService) GetSearchVersion(ctx context.Context) int64 {
	key := s.SearchVersionKey()
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WithError(err).Warn("failed to read search version")
		return initialSearchVersion
	}
	if !ok {
		return s.initSearchVersion(ctx)
	}
	version, perr := parseVersion(raw)
	if perr != nil {
		s.logger.WithError(perr).WithField("value", string(raw)).Error("corrupted search version, resetting to 1")
		s.resetSearchVersion(ctx)
		return initialSearchVersion
	}
	return version
}

func (s *CatalogCacheService) initSearchVersion(ctx context.Context) int64 {
	key := s.SearchVersionKey()
	added, err := s.cache.Add(ctx, key, formatVersion(initialSearchVersion), cache.NoExpiry)
	if err != nil {
		s.logger.WithError(err).Warn("failed to initialize search version")
		return initialSearchVersion
	}
	if added {
		searchVersionOps.WithLabelValues("init").Inc()
		return initialSearchVersion
	}
	// Lost the race against another initializer.
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil || !ok {
		return initialSearchVersion
	}
	version, perr := parseVersion(raw)
	if perr != nil {
		s.resetSearchVersion(ctx)
		return initialSearchVersion
	}
	return version
}

func (s *CatalogCacheService) resetSearchVersion(ctx context.Context) {
	searchVersionOps.WithLabelValues("reset").Inc()
	if err := s.cache.Set(ctx, s.SearchVersionKey(), formatVersion(initialSearchVersion), cache.NoExpiry); err != nil {
		s.logger.WithError(err).Warn("failed to reset search version")
	}
}

// BumpSearchVersion advances the generation by one. An uninitialized or
// corrupted counter falls back to a read-then-write, which can lose an
// update against a concurrent bump. Any other failure is logged and the
// current version is returned.
func (s *CatalogCacheService) BumpSearchVersion(ctx context.Context) int64 {
	key := s.SearchVersionKey()
	version, err := s.cache.Incr(ctx, key)
	if err == nil {
		searchVersionOps.WithLabelValues("incr").Inc()
		return version
	}
	if errors.Is(err, cache.ErrNotIncrementable) {
		searchVersionOps.WithLabelValues("fallback").Inc()
		next := s.GetSearchVersion(ctx) + 1
		if serr := s.cache.Set(ctx, key, formatVersion(next), cache.NoExpiry); serr != nil {
			s.logger.WithError(serr).Warn("failed to store bumped search version")
		}
		return next
	}
	searchVersionOps.WithLabelValues("failed").Inc()
	s.logger.WithError(err).Error("failed to bump search version")
	return s.GetSearchVersion(ctx)
}

// InvalidateProductChange drops the list and detail entries for id and
// then bumps the search generation. It returns the new generation.
func (s *CatalogCacheService) InvalidateProductChange(ctx context.Context, id int64) int64 {
	if err := s.cache.Delete(ctx, s.ProductListKey(), s.ProductDetailKey(id)); err != nil {
		s.logger.WithError(err).WithField("product_id", id).Warn("failed to delete product cache entries")
	}
	return s.BumpSearchVersion(ctx)
}

func parseVersion(raw []byte) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
}

func formatVersion(v int64) []byte {
	return []byte(strconv.FormatInt(v, 10))
}
