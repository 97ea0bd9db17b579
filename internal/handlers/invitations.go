package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/larswaechter/aionic-api/internal/auth"
	"github.com/larswaechter/aionic-api/internal/services"
	"github.com/larswaechter/aionic-api/internal/store"
)

// InvitationHandler provides the administrative endpoints for user
// invitations. Unlike POST /auth/invite, these expose invitation tokens
// to callers holding the userInvitation permissions.
type InvitationHandler struct {
	invitations *services.InvitationService
}

func NewInvitationHandler(invitations *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations}
}

// InvitationRouter registers user-invitation routes behind
// authentication plus a (userInvitation, action) permission check.
func InvitationRouter(r chi.Router, invitations *services.InvitationService, mw *auth.Middleware) {
	handler := NewInvitationHandler(invitations)

	r.Use(mw.RequireAuth)
	r.With(mw.RequirePermission("userInvitation", "read")).Get("/", handler.ListInvitations)
	r.With(mw.RequirePermission("userInvitation", "create")).Post("/", handler.CreateInvitation)
	r.Route("/{invitationID}", func(r chi.Router) {
		r.With(mw.RequirePermission("userInvitation", "read")).Get("/", handler.GetInvitation)
		r.With(mw.RequirePermission("userInvitation", "delete")).Delete("/", handler.DeleteInvitation)
	})
}

func (h *InvitationHandler) ListInvitations(w http.ResponseWriter, r *http.Request) {
	invitations, err := h.invitations.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list invitations")
		return
	}
	writeJSON(w, http.StatusOK, invitations)
}

func (h *InvitationHandler) GetInvitation(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "invitationID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	invitation, err := h.invitations.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user invitation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch invitation")
		return
	}
	writeJSON(w, http.StatusOK, invitation)
}

func (h *InvitationHandler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	invitation, err := h.invitations.Invite(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, "email is already taken")
		case errors.Is(err, services.ErrAlreadyInvited):
			writeError(w, http.StatusConflict, "email is already invited")
		default:
			writeError(w, http.StatusInternalServerError, "failed to create invitation")
		}
		return
	}

	writeJSON(w, http.StatusOK, invitation)
}

func (h *InvitationHandler) DeleteInvitation(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "invitationID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.invitations.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user invitation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete invitation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
