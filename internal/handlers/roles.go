package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/go-chi/chi/v5"
	"github.com/larswaechter/aionic-api/internal/auth"
	"github.com/larswaechter/aionic-api/internal/services"
	"github.com/larswaechter/aionic-api/internal/store"
	"github.com/larswaechter/aionic-api/types"
)

// RoleHandler provides CRUD endpoints for user roles.
type RoleHandler struct {
	roles *services.RoleService
}

func NewRoleHandler(roles *services.RoleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

// RoleRouter registers user-role routes behind authentication plus a
// (userRole, action) permission check.
func RoleRouter(r chi.Router, roles *services.RoleService, mw *auth.Middleware) {
	handler := NewRoleHandler(roles)

	r.Use(mw.RequireAuth)
	r.With(mw.RequirePermission("userRole", "read")).Get("/", handler.ListRoles)
	r.With(mw.RequirePermission("userRole", "create")).Post("/", handler.CreateRole)
	r.Route("/{roleID}", func(r chi.Router) {
		r.With(mw.RequirePermission("userRole", "read")).Get("/", handler.GetRole)
		r.With(mw.RequirePermission("userRole", "update")).Put("/", handler.UpdateRole)
		r.With(mw.RequirePermission("userRole", "delete")).Delete("/", handler.DeleteRole)
	})
}

func (h *RoleHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list roles")
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

func (h *RoleHandler) GetRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "roleID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	role, err := h.roles.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "role not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch role")
		return
	}
	writeJSON(w, http.StatusOK, role)
}

type RoleRequest struct {
	Name string `json:"name"`
}

func (r RoleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 64)),
	)
}

func (h *RoleHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	role, err := h.roles.Create(r.Context(), &types.UserRole{Name: req.Name})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "role name is already taken")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create role")
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (h *RoleHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "roleID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	role, err := h.roles.Update(r.Context(), &types.UserRole{ID: id, Name: req.Name})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "role not found")
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusConflict, "role name is already taken")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update role")
		}
		return
	}
	writeJSON(w, http.StatusOK, role)
}

func (h *RoleHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "roleID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.roles.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "role not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete role")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
