package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/larswaechter/aionic-api/internal/store"
	"github.com/larswaechter/aionic-api/types"
)

// IdentityLoader resolves a verified token subject to a live account
// with its role loaded. Implemented by store.UserStore.
type IdentityLoader interface {
	GetActiveByID(ctx context.Context, id int64) (*types.User, error)
}

// Middleware holds the per-request authentication and authorization
// gates. RequirePermission must always be chained after RequireAuth.
type Middleware struct {
	tokens *TokenService
	users  IdentityLoader
	policy *Policy
	logger *slog.Logger
}

func NewMiddleware(tokens *TokenService, users IdentityLoader, policy *Policy, logger *slog.Logger) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &Middleware{
		tokens: tokens,
		users:  users,
		policy: policy,
		logger: logger,
	}
}

// RequireAuth verifies the bearer token and loads the active account it
// claims, attaching it to the request context. Missing, malformed, and
// expired credentials each get their own 401 message; a valid token whose
// account is gone or inactive is rejected without revealing which.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerToken(r)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "no token provided")
			return
		}

		subject, err := m.tokens.Verify(raw)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				respondError(w, http.StatusUnauthorized, "token expired")
				return
			}
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		user, err := m.users.GetActiveByID(r.Context(), subject)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				respondError(w, http.StatusUnauthorized, "user is not authorized")
				return
			}
			m.logger.Error("identity load failed", "subject", subject, "error", err)
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), user)))
	})
}

// RequirePermission authorizes the authenticated identity's role against
// a fixed (resource, action) pair. The decision is purely in-memory.
func (m *Middleware) RequirePermission(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := IdentityFromContext(r.Context())
			if !ok {
				respondError(w, http.StatusUnauthorized, "no token provided")
				return
			}

			if !m.policy.IsAllowed(user.RoleName(), resource, action) {
				respondError(w, http.StatusForbidden, "missing user rights")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", ErrTokenMissing
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrTokenMissing
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrTokenMissing
	}
	return token, nil
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": status,
		"error":  message,
	})
}
