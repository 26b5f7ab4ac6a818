package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/iota-catalog/pkg/application"
)

type staticController struct{ body string }

func (c staticController) Key() string { return "/static" }

func (c staticController) Register(r *mux.Router) {
	r.HandleFunc("/static", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(c.body))
	}).Methods(http.MethodGet)
}

func newServer(mw ...mux.MiddlewareFunc) *HTTPServer {
	return &HTTPServer{
		Controllers: []application.Controller{staticController{body: strings.Repeat("catalog ", 400)}},
		Middlewares: mw,
	}
}

func TestHandler_Gzip(t *testing.T) {
	h := newServer().Handler()

	r := httptest.NewRequest(http.MethodGet, "/static", nil)
	r.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
}

func TestHandler_WebsocketBypassesGzip(t *testing.T) {
	h := newServer().Handler()

	r := httptest.NewRequest(http.MethodGet, "/static", nil)
	r.Header.Set("Accept-Encoding", "gzip")
	r.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	require.Empty(t, rec.Header().Get("Content-Encoding"))
}

func TestRouter_NotFoundRunsMiddleware(t *testing.T) {
	var seen bool
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = true
			next.ServeHTTP(w, r)
		})
	}
	rec := httptest.NewRecorder()
	newServer(mw).Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.True(t, seen)

	rec = httptest.NewRecorder()
	newServer().Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/static", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
