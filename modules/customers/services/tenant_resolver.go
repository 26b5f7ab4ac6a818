package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/iota-catalog/modules/customers/domain/aggregates/client"
	"github.com/iota-uz/iota-catalog/pkg/composables"
)

// ParseHost strips the port from a Host header value and lower-cases it.
func ParseHost(hostHeader string) string {
	host, _, _ := strings.Cut(hostHeader, ":")
	return strings.ToLower(strings.TrimSpace(host))
}

// HostFromRequest returns the raw Host header of r.
func HostFromRequest(r *http.Request) string {
	if h := r.Header.Get("Host"); h != "" {
		return h
	}
	return r.Host
}

// TenantResolver maps request hosts to tenant schema names. Hosts without a
// registered domain resolve to the public schema.
type TenantResolver struct {
	repo         client.Repository
	publicSchema string
	cache        *ttlcache.Cache[string, string]
	logger       logrus.FieldLogger
}

type TenantResolverOptions struct {
	PublicSchema string
	CacheTTL     time.Duration
	Logger       logrus.FieldLogger
}

func NewTenantResolver(repo client.Repository, opts TenantResolverOptions) *TenantResolver {
	public := strings.TrimSpace(opts.PublicSchema)
	if public == "" {
		public = composables.DefaultTenant
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	var cache *ttlcache.Cache[string, string]
	if opts.CacheTTL > 0 {
		cache = ttlcache.New[string, string](
			ttlcache.WithTTL[string, string](opts.CacheTTL),
			ttlcache.WithDisableTouchOnHit[string, string](),
		)
	}
	return &TenantResolver{
		repo:         repo,
		publicSchema: public,
		cache:        cache,
		logger:       logger.WithField("component", "tenant-resolver"),
	}
}

func (r *TenantResolver) PublicSchema() string {
	return r.publicSchema
}

// SchemaNameFromHost never fails: lookup errors are logged and resolve to
// the public schema without being cached.
func (r *TenantResolver) SchemaNameFromHost(ctx context.Context, hostHeader string) string {
	host := ParseHost(hostHeader)
	if host == "" {
		return r.publicSchema
	}
	if r.cache == nil {
		schema, err := r.lookup(ctx, host)
		if err != nil {
			r.logger.WithError(err).WithField("host", host).Warn("tenant lookup failed, using public schema")
			return r.publicSchema
		}
		return schema
	}

	var lookupErr error
	loader := ttlcache.LoaderFunc[string, string](
		func(c *ttlcache.Cache[string, string], key string) *ttlcache.Item[string, string] {
			schema, err := r.lookup(ctx, key)
			if err != nil {
				lookupErr = err
				return nil
			}
			return c.Set(key, schema, ttlcache.DefaultTTL)
		},
	)
	item := r.cache.Get(host, ttlcache.WithLoader[string, string](loader))
	if item == nil {
		if lookupErr != nil {
			r.logger.WithError(lookupErr).WithField("host", host).Warn("tenant lookup failed, using public schema")
		}
		return r.publicSchema
	}
	return item.Value()
}

// Forget drops a cached host mapping, e.g. after a domain is reassigned.
func (r *TenantResolver) Forget(hostHeader string) {
	if r.cache != nil {
		r.cache.Delete(ParseHost(hostHeader))
	}
}

func (r *TenantResolver) lookup(ctx context.Context, host string) (string, error) {
	c, err := r.repo.GetByDomain(ctx, host)
	if errors.Is(err, client.ErrNotFound) {
		return r.publicSchema, nil
	}
	if err != nil {
		return "", errors.Wrap(err, "get client by domain")
	}
	return c.SchemaName(), nil
}
