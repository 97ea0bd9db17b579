package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larswaechter/aionic-api/internal/store"
	"github.com/larswaechter/aionic-api/types"
)

type fakeIdentityLoader struct {
	users map[int64]*types.User
}

func (f *fakeIdentityLoader) GetActiveByID(_ context.Context, id int64) (*types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return user, nil
}

func newTestMiddleware(ttl time.Duration, users map[int64]*types.User, doc PolicyDocument) (*Middleware, *TokenService) {
	tokens := newTestTokenService(ttl)
	policy := NewPolicy()
	if doc != nil {
		policy.Replace(doc)
	}
	return NewMiddleware(tokens, &fakeIdentityLoader{users: users}, policy, nil), tokens
}

func adminUser(id int64) *types.User {
	return &types.User{
		ID:     id,
		Email:  "admin@aionic.test",
		Active: true,
		Role:   &types.UserRole{ID: 1, Name: "Admin"},
	}
}

func adminPolicy() PolicyDocument {
	return PolicyDocument{
		"Admin": {{Resources: []string{"user"}, Permissions: []string{"read"}}},
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Status int    `json:"status"`
		Error  string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, rec.Code, body.Status)
	return body.Error
}

func TestRequireAuthNoToken(t *testing.T) {
	mw, _ := newTestMiddleware(time.Hour, nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	mw.RequireAuth(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "no token provided", decodeError(t, rec))
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	mw, _ := newTestMiddleware(time.Hour, nil, nil)

	for _, header := range []string{"Bearer", "Bearer ", "Basic abc", "justatoken"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		mw.RequireAuth(okHandler()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	mw, _ := newTestMiddleware(time.Hour, nil, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	mw.RequireAuth(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid token", decodeError(t, rec))
}

func TestRequireAuthExpiredToken(t *testing.T) {
	mw, tokens := newTestMiddleware(-time.Hour, nil, nil)

	token, err := tokens.Issue(1)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	mw.RequireAuth(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token expired", decodeError(t, rec))
}

func TestRequireAuthUnknownAccount(t *testing.T) {
	// A valid token whose account no longer exists (or was deactivated)
	// is rejected without revealing which.
	mw, tokens := newTestMiddleware(time.Hour, map[int64]*types.User{}, nil)

	token, err := tokens.Issue(99)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	mw.RequireAuth(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "user is not authorized", decodeError(t, rec))
}

func TestRequireAuthAttachesIdentity(t *testing.T) {
	user := adminUser(1)
	mw, tokens := newTestMiddleware(time.Hour, map[int64]*types.User{1: user}, nil)

	token, err := tokens.Issue(1)
	require.NoError(t, err)

	var seen *types.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		seen = identity
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	mw.RequireAuth(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, user.Email, seen.Email)
	assert.Equal(t, "Admin", seen.RoleName())
}

func TestRequirePermissionAllowed(t *testing.T) {
	user := adminUser(1)
	mw, tokens := newTestMiddleware(time.Hour, map[int64]*types.User{1: user}, adminPolicy())

	token, err := tokens.Issue(1)
	require.NoError(t, err)

	handler := mw.RequireAuth(mw.RequirePermission("user", "read")(okHandler()))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequirePermissionDenied(t *testing.T) {
	user := adminUser(1)
	mw, tokens := newTestMiddleware(time.Hour, map[int64]*types.User{1: user}, adminPolicy())

	token, err := tokens.Issue(1)
	require.NoError(t, err)

	handler := mw.RequireAuth(mw.RequirePermission("user", "delete")(okHandler()))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "missing user rights", decodeError(t, rec))
}

func TestRequirePermissionWithoutIdentity(t *testing.T) {
	mw, _ := newTestMiddleware(time.Hour, nil, adminPolicy())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	mw.RequirePermission("user", "read")(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
