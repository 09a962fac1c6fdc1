package user

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/frahmantamala/filehub/internal/auth"
	"github.com/frahmantamala/filehub/internal/transport"
	"github.com/frahmantamala/filehub/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
		Service:     svc,
	}
}

// List handles GET /admin/users
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p := transport.FixedPage(r, UsersPerPage)
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	users, total, err := h.Service.List(r.Context(), search, p)
	if err != nil {
		h.Logger.Error("List: service error", "error", err)
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, UserListResponseV1{Users: users, Pagination: transport.NewPagination(p, total), Search: search})
}

// Detail handles GET /admin/users/{id}
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := transport.IDParam(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	d, err := h.Service.Detail(r.Context(), id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, d.ToV1())
}

// UpdateRoles handles POST /admin/users/{id}/roles
func (h *Handler) UpdateRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := transport.IDParam(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req UpdateRolesRequestV1
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Roles == nil {
		h.WriteError(w, http.StatusBadRequest, "roles are required")
		return
	}

	actor, _ := auth.UserFromContext(r.Context())
	u, err := h.Service.ReplaceRoles(r.Context(), actor, id, req.Roles)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"message": "Roles updated", "user": u})
}

// UpdateStatus handles PUT /admin/users/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := transport.IDParam(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req UpdateStatusRequestV1
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	actor, _ := auth.UserFromContext(r.Context())
	u, err := h.Service.SetActive(r.Context(), actor, id, active)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"message": "User status updated", "user": u})
}
