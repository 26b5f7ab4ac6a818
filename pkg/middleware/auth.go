package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/iota-uz/iota-catalog/modules/users/domain/aggregates/user"
	"github.com/iota-uz/iota-catalog/modules/users/services"
	"github.com/iota-uz/iota-catalog/pkg/composables"
	"github.com/iota-uz/iota-catalog/pkg/httpapi"
)

const (
	detailNotAuthenticated   = "Authentication credentials were not provided."
	detailInvalidCredentials = "Invalid username/password."
)

type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (user.User, error)
	Identify(ctx context.Context, username string) (user.User, error)
}

type AuthOptions struct {
	// BasicAuth enables the Authorization: Basic scheme.
	BasicAuth bool
	// UserHeader names a header set by a trusted proxy carrying the username.
	UserHeader string
}

// Authenticate attaches the request user to the context. Requests without
// credentials stay anonymous; requests with bad credentials are rejected.
// It must run after ResolveTenant since users live in tenant schemas.
func Authenticate(auth Authenticator, opts AuthOptions) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := composables.UseLogger(ctx)

			var (
				u   user.User
				err error
				ok  bool
			)
			if opts.BasicAuth {
				var username, password string
				if username, password, ok = r.BasicAuth(); ok {
					u, err = auth.Authenticate(ctx, username, password)
				}
			}
			if !ok && opts.UserHeader != "" {
				if username := strings.TrimSpace(r.Header.Get(opts.UserHeader)); username != "" {
					ok = true
					u, err = auth.Identify(ctx, username)
				}
			}
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				if !errors.Is(err, services.ErrInvalidCredentials) {
					logger.WithError(err).Error("authentication failed")
				}
				if opts.BasicAuth {
					w.Header().Set("WWW-Authenticate", `Basic realm="api"`)
				}
				_ = httpapi.WriteError(w, http.StatusUnauthorized, detailInvalidCredentials)
				return
			}
			ctx = composables.WithUser(ctx, u)
			ctx = composables.WithLogger(ctx, logger.WithField("user-id", u.ID()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous requests with 401.
func RequireUser() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := composables.UseUser(r.Context()); err != nil {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, detailNotAuthenticated)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isWebsocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
