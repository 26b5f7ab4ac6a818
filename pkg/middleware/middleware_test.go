package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/iota-catalog/modules/customers/domain/aggregates/client"
	custpersistence "github.com/iota-uz/iota-catalog/modules/customers/infrastructure/persistence"
	custservices "github.com/iota-uz/iota-catalog/modules/customers/services"
	userpersistence "github.com/iota-uz/iota-catalog/modules/users/infrastructure/persistence"
	userservices "github.com/iota-uz/iota-catalog/modules/users/services"
	"github.com/iota-uz/iota-catalog/pkg/composables"
	"github.com/iota-uz/iota-catalog/pkg/configuration"
	"github.com/iota-uz/iota-catalog/pkg/constants"
)

type captured struct {
	tenant string
	userID int64
	called bool
}

func capture(c *captured) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.tenant = composables.UseTenant(r.Context())
		if u, err := composables.UseUser(r.Context()); err == nil {
			c.userID = u.ID()
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestResolveTenant(t *testing.T) {
	repo := custpersistence.NewInmemClientRepository()
	_, err := repo.Create(context.Background(), client.New("acme", "Acme", client.Domain{Domain: "acme.localhost", IsPrimary: true}))
	require.NoError(t, err)
	resolver := custservices.NewTenantResolver(repo, custservices.TenantResolverOptions{})

	var got captured
	h := ResolveTenant(resolver)(capture(&got))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "http://ACME.localhost:8000/api/products/", nil))
	require.Equal(t, "acme", got.tenant)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "http://other.localhost/api/products/", nil))
	require.Equal(t, "public", got.tenant)
}

func newAuth(t *testing.T) (*userservices.AuthService, int64) {
	t.Helper()
	auth := userservices.NewAuthService(userpersistence.NewInmemUserRepository())
	ctx := composables.WithTenant(context.Background(), "acme")
	u, err := auth.Register(ctx, "alice", "alice@acme.test", "s3cret", true)
	require.NoError(t, err)
	return auth, u.ID()
}

func tenantRequest(r *http.Request) *http.Request {
	return r.WithContext(composables.WithTenant(r.Context(), "acme"))
}

func TestAuthenticate_BasicAuth(t *testing.T) {
	auth, id := newAuth(t)
	var got captured
	h := Authenticate(auth, AuthOptions{BasicAuth: true})(capture(&got))

	r := tenantRequest(httptest.NewRequest(http.MethodGet, "/api/products/", nil))
	r.SetBasicAuth("alice", "s3cret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, id, got.userID)

	got = captured{}
	r = tenantRequest(httptest.NewRequest(http.MethodGet, "/api/products/", nil))
	r.SetBasicAuth("alice", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.False(t, got.called)
	require.JSONEq(t, `{"detail":"Invalid username/password."}`, rec.Body.String())
}

func TestAuthenticate_TrustedHeader(t *testing.T) {
	auth, id := newAuth(t)
	var got captured
	h := Authenticate(auth, AuthOptions{UserHeader: "X-Authenticated-User"})(capture(&got))

	r := tenantRequest(httptest.NewRequest(http.MethodGet, "/ws/notifications/", nil))
	r.Header.Set("X-Authenticated-User", "alice")
	h.ServeHTTP(httptest.NewRecorder(), r)
	require.Equal(t, id, got.userID)
}

func TestAuthenticate_AnonymousPassesThrough(t *testing.T) {
	auth, _ := newAuth(t)
	var got captured
	h := Authenticate(auth, AuthOptions{BasicAuth: true, UserHeader: "X-Authenticated-User"})(capture(&got))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, tenantRequest(httptest.NewRequest(http.MethodGet, "/api/products/", nil)))
	require.True(t, got.called)
	require.Zero(t, got.userID)
}

func TestAuthenticate_UsersAreTenantScoped(t *testing.T) {
	auth, _ := newAuth(t)
	var got captured
	h := Authenticate(auth, AuthOptions{BasicAuth: true})(capture(&got))

	r := httptest.NewRequest(http.MethodGet, "/api/products/", nil)
	r = r.WithContext(composables.WithTenant(r.Context(), "globex"))
	r.SetBasicAuth("alice", "s3cret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireUser(t *testing.T) {
	var got captured
	h := RequireUser()(capture(&got))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/notifications/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"detail":"Authentication credentials were not provided."}`, rec.Body.String())
	require.False(t, got.called)
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{RequestsPerPeriod: 1, Period: time.Minute})(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/", nil))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	ws := httptest.NewRequest(http.MethodGet, "/ws/notifications/", nil)
	ws.Header.Set("Upgrade", "websocket")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, ws)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	h := RateLimit(RateLimitConfig{})(next)
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestProvideAndRequestParams(t *testing.T) {
	conf := &configuration.Configuration{RealIPHeader: "X-Real-IP"}
	var ip string
	var app any
	h := Provide(constants.AppKey, "app")(RequestParams(conf)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ip, _ = composables.UseIP(r.Context())
		app = r.Context().Value(constants.AppKey)
	})))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Real-IP", "10.0.0.7")
	h.ServeHTTP(httptest.NewRecorder(), r)
	require.Equal(t, "10.0.0.7", ip)
	require.Equal(t, "app", app)
}

func TestWithLogger_MalformedJSONReachesHandler(t *testing.T) {
	logger, hook := test.NewNullLogger()
	conf := &configuration.Configuration{RequestIDHeader: "X-Request-Id"}

	var body string
	h := WithLogger(logger, conf, DefaultLoggerOptions())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.WriteHeader(http.StatusBadRequest)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/catalog/products/", strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, `{"name":`, body)
	require.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "unparseable JSON request-body" {
			warned = true
		}
	}
	require.True(t, warned)
}
