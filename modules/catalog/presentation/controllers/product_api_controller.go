package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/iota-uz/iota-catalog/modules/catalog/domain/aggregates/product"
	"github.com/iota-uz/iota-catalog/modules/catalog/services"
	"github.com/iota-uz/iota-catalog/pkg/application"
	"github.com/iota-uz/iota-catalog/pkg/composables"
	"github.com/iota-uz/iota-catalog/pkg/httpapi"
	"github.com/iota-uz/iota-catalog/pkg/middleware"
)

const notFoundDetail = "Not found."

type ProductAPIController struct {
	app      application.Application
	products *services.ProductService
	reads    *services.CatalogReadService
	basePath string
}

func NewProductAPIController(app application.Application) application.Controller {
	return &ProductAPIController{
		app:      app,
		products: app.Service(services.ProductService{}).(*services.ProductService),
		reads:    app.Service(services.CatalogReadService{}).(*services.CatalogReadService),
		basePath: "/api/catalog",
	}
}

func (c *ProductAPIController) Key() string {
	return c.basePath
}

func (c *ProductAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.basePath).Subrouter()
	api.Use(middleware.RequireUser())

	for _, suffix := range []string{"", "/"} {
		api.HandleFunc("/products"+suffix, c.List).Methods(http.MethodGet)
		api.HandleFunc("/products"+suffix, c.Create).Methods(http.MethodPost)
		api.HandleFunc("/products/search"+suffix, c.Search).Methods(http.MethodGet)
		api.HandleFunc("/products/{id:[0-9]+}"+suffix, c.Detail).Methods(http.MethodGet)
		api.HandleFunc("/products/{id:[0-9]+}"+suffix, c.Replace).Methods(http.MethodPut)
		api.HandleFunc("/products/{id:[0-9]+}"+suffix, c.Patch).Methods(http.MethodPatch)
		api.HandleFunc("/products/{id:[0-9]+}"+suffix, c.Delete).Methods(http.MethodDelete)
	}
}

func (c *ProductAPIController) List(w http.ResponseWriter, r *http.Request) {
	body, err := c.reads.List(r.Context())
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteRaw(w, http.StatusOK, body)
}

func (c *ProductAPIController) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	body, err := c.reads.Detail(r.Context(), id)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteRaw(w, http.StatusOK, body)
}

func (c *ProductAPIController) Search(w http.ResponseWriter, r *http.Request) {
	body, err := c.reads.Search(r.Context(), composables.GetLastQueryParam(r, "q"))
	switch {
	case errors.Is(err, services.ErrQueryRequired):
		_ = httpapi.WriteError(w, http.StatusBadRequest, services.ErrQueryRequired.Error())
	case errors.Is(err, services.ErrSearchUnavailable):
		_ = httpapi.WriteError(w, http.StatusServiceUnavailable, services.ErrSearchUnavailable.Error())
	case err != nil:
		c.writeServiceError(w, r, err)
	default:
		_ = httpapi.WriteRaw(w, http.StatusOK, body)
	}
}

func (c *ProductAPIController) Create(w http.ResponseWriter, r *http.Request) {
	var dto product.CreateDTO
	if !decodeBody(w, r, &dto) {
		return
	}
	created, err := c.products.Create(r.Context(), &dto)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, services.ToPayload(created))
}

// Replace handles PUT, which requires every writable field.
func (c *ProductAPIController) Replace(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	var full product.CreateDTO
	if !decodeBody(w, r, &full) {
		return
	}
	if fields, valid := full.Ok(); !valid {
		writeFieldErrors(w, fields)
		return
	}
	c.update(w, r, id, &product.UpdateDTO{
		Name:        &full.Name,
		Description: &full.Description,
		Price:       &full.Price,
		IsActive:    full.IsActive,
	})
}

func (c *ProductAPIController) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	var dto product.UpdateDTO
	if !decodeBody(w, r, &dto) {
		return
	}
	c.update(w, r, id, &dto)
}

func (c *ProductAPIController) update(w http.ResponseWriter, r *http.Request, id int64, dto *product.UpdateDTO) {
	updated, err := c.products.Update(r.Context(), id, dto)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, services.ToPayload(updated))
}

func (c *ProductAPIController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	if err := c.products.Delete(r.Context(), id); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *ProductAPIController) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	switch {
	case errors.Is(err, product.ErrNotFound):
		_ = httpapi.WriteError(w, http.StatusNotFound, notFoundDetail)
	case errors.As(err, &verr):
		writeFieldErrors(w, verr.Fields)
	default:
		composables.UseLogger(r.Context()).WithError(err).Error("catalog request failed")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "A server error occurred.")
	}
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusNotFound, notFoundDetail)
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return false
	}
	return true
}

// writeFieldErrors renders {"field": ["message"]}.
func writeFieldErrors(w http.ResponseWriter, fields map[string]string) {
	out := make(map[string][]string, len(fields))
	for field, msg := range fields {
		out[field] = []string{msg}
	}
	_ = httpapi.WriteJSON(w, http.StatusBadRequest, out)
}
