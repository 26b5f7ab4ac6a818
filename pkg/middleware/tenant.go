package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iota-uz/iota-catalog/modules/customers/services"
	"github.com/iota-uz/iota-catalog/pkg/composables"
)

// ResolveTenant stores the schema name owning the request host in the
// context. Unknown hosts fall through to the public schema.
func ResolveTenant(resolver *services.TenantResolver) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			schema := resolver.SchemaNameFromHost(ctx, services.HostFromRequest(r))
			composables.UseLogger(ctx).WithField("tenant", schema).Debug("tenant resolved")
			next.ServeHTTP(w, r.WithContext(composables.WithTenant(ctx, schema)))
		})
	}
}
