package audithandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"evalsphere/internal/domain/audit"
	"evalsphere/internal/platform/requestctx"
	"evalsphere/internal/transport/http/api"
	"evalsphere/internal/transport/http/middleware"
	"evalsphere/internal/transport/http/shared"
)

type Handler struct {
	Service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router, perms middleware.PermissionStore) {
	r.With(middleware.RequirePermission("audit.read", perms)).Get("/audit/events", h.HandleList)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := requestctx.GetRequestID(r.Context())

	filter := audit.Filter{
		ActorUser:  r.URL.Query().Get("actorId"),
		Action:     r.URL.Query().Get("action"),
		EntityType: r.URL.Query().Get("entityType"),
	}
	page := shared.ParsePagination(r, 50, 200)

	total, err := h.Service.Count(r.Context(), user.CompanyID, filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to count audit events", requestID)
		return
	}

	events, err := h.Service.List(r.Context(), user.CompanyID, filter, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_error", "failed to list audit events", requestID)
		return
	}

	api.Success(w, map[string]any{
		"items": events,
		"total": total,
	}, requestID)
}
