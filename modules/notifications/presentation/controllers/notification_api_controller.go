package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/iota-uz/iota-catalog/modules/notifications/domain/entities/notification"
	"github.com/iota-uz/iota-catalog/modules/notifications/services"
	"github.com/iota-uz/iota-catalog/pkg/application"
	"github.com/iota-uz/iota-catalog/pkg/composables"
	"github.com/iota-uz/iota-catalog/pkg/httpapi"
	"github.com/iota-uz/iota-catalog/pkg/middleware"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type notificationResponse struct {
	ID        int64  `json:"id"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

func toResponse(n notification.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID(),
		Message:   n.Message(),
		IsRead:    n.IsRead(),
		CreatedAt: n.CreatedAt().UTC().Format(time.RFC3339Nano),
	}
}

type NotificationAPIController struct {
	notifications *services.NotificationService
	basePath      string
}

func NewNotificationAPIController(app application.Application) application.Controller {
	return &NotificationAPIController{
		notifications: app.Service(services.NotificationService{}).(*services.NotificationService),
		basePath:      "/api/notifications",
	}
}

func (c *NotificationAPIController) Key() string {
	return c.basePath
}

func (c *NotificationAPIController) Register(r *mux.Router) {
	api := r.PathPrefix(c.basePath).Subrouter()
	api.Use(middleware.RequireUser())

	for _, suffix := range []string{"", "/"} {
		api.HandleFunc(suffix, c.List).Methods(http.MethodGet)
		api.HandleFunc("/{id:[0-9]+}/read"+suffix, c.MarkRead).Methods(http.MethodPost)
	}
}

func (c *NotificationAPIController) List(w http.ResponseWriter, r *http.Request) {
	u, err := composables.UseUser(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}
	limit := defaultListLimit
	if raw := composables.GetLastQueryParam(r, "limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "A valid integer is required for limit.")
			return
		}
		limit = min(n, maxListLimit)
	}

	items, err := c.notifications.ListForUser(r.Context(), u.ID(), limit)
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("list notifications failed")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}
	out := make([]notificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, toResponse(n))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *NotificationAPIController) MarkRead(w http.ResponseWriter, r *http.Request) {
	u, err := composables.UseUser(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusNotFound, "Not found.")
		return
	}
	switch err := c.notifications.MarkRead(r.Context(), u.ID(), id); {
	case errors.Is(err, notification.ErrNotFound):
		_ = httpapi.WriteError(w, http.StatusNotFound, "Not found.")
	case err != nil:
		composables.UseLogger(r.Context()).WithError(err).Error("mark notification read failed")
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "A server error occurred.")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
