package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/go-chi/chi/v5"
	"github.com/larswaechter/aionic-api/internal/auth"
	"github.com/larswaechter/aionic-api/internal/services"
	"github.com/larswaechter/aionic-api/internal/store"
)

// AuthHandler provides sign-in, invitation, and registration endpoints.
type AuthHandler struct {
	users       *services.UserService
	invitations *services.InvitationService
	tokens      *auth.TokenService
}

func NewAuthHandler(users *services.UserService, invitations *services.InvitationService, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{
		users:       users,
		invitations: invitations,
		tokens:      tokens,
	}
}

// AuthRouter registers auth routes on the given router. Only /unregister
// requires authentication; the rest gate themselves via credentials or
// invitation tokens.
func AuthRouter(r chi.Router, handler *AuthHandler, mw *auth.Middleware) {
	r.Post("/signin", handler.SignIn)
	r.Get("/register/{token}", handler.ValidateRegistration)
	r.Post("/register/{token}", handler.Register)
	r.Post("/invite", handler.Invite)
	r.With(mw.RequireAuth).Post("/unregister", handler.Unregister)
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r SignInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type SignInResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// SignIn verifies credentials and returns a bearer token plus the
// account (password hash excluded by serialization).
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.GetActiveByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "wrong email or password")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to sign in")
		return
	}

	if !auth.VerifyPassword(req.Password, user.Password) {
		writeError(w, http.StatusUnauthorized, "wrong email or password")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, SignInResponse{Token: token, User: user})
}

// ValidateRegistration checks a registration token without side effects,
// so clients can decide whether to show the registration form.
func (h *AuthHandler) ValidateRegistration(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	email := r.URL.Query().Get("email")

	if err := h.invitations.Validate(r.Context(), token, email); err != nil {
		if errors.Is(err, services.ErrInvalidToken) {
			writeError(w, http.StatusForbidden, "invalid token")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to validate token")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Password  string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Firstname, validation.Required),
		validation.Field(&r.Lastname, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 0)),
	)
}

// Register consumes an invitation token and creates the account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, err := h.invitations.Register(r.Context(), token, services.RegisterInput{
		Email:     req.Email,
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidToken):
			writeError(w, http.StatusForbidden, "invalid token")
		case errors.Is(err, services.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, "email is already taken")
		default:
			writeError(w, http.StatusInternalServerError, "failed to register")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type InviteRequest struct {
	Email string `json:"email"`
}

func (r InviteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// Invite creates a registration invitation and queues the invitation
// mail. The token travels only by mail.
func (h *AuthHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.invitations.Invite(r.Context(), req.Email); err != nil {
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

	w.WriteHeader(http.StatusNoContent)
}

// Unregister deletes the authenticated caller's own account.
func (h *AuthHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no token provided")
		return
	}

	if err := h.users.Unregister(r.Context(), identity.Email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to unregister")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
