package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/larswaechter/aionic-api/internal/auth"
	"github.com/larswaechter/aionic-api/internal/cache"
	"github.com/larswaechter/aionic-api/internal/mail"
	"github.com/larswaechter/aionic-api/internal/services"
	"github.com/larswaechter/aionic-api/internal/store"
	"github.com/larswaechter/aionic-api/types"
)

const (
	adminEmail    = "admin@aionic.test"
	adminPassword = "adminpass123"
)

type fakeMailer struct {
	sent chan mail.InvitationMail
}

func (f *fakeMailer) SendUserInvitation(_ context.Context, email, token string) error {
	f.sent <- mail.InvitationMail{Email: email, Token: token}
	return nil
}

func (f *fakeMailer) waitForMail(t *testing.T) mail.InvitationMail {
	t.Helper()
	select {
	case m := <-f.sent:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("no invitation mail dispatched")
		return mail.InvitationMail{}
	}
}

// testAPI wires the full route tree over an in-memory database, the way
// the server does, minus the HTTP listener.
type testAPI struct {
	router *chi.Mux
	db     *bun.DB
	users  *store.UserStore
	mailer *fakeMailer
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, model := range []any{
		(*types.UserRole)(nil),
		(*types.User)(nil),
		(*types.UserInvitation)(nil),
	} {
		_, err := db.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}

	userStore := store.NewUserStore(db)
	roleStore := store.NewRoleStore(db)
	invitationStore := store.NewInvitationStore(db)

	adminRole, err := roleStore.Create(ctx, &types.UserRole{Name: "Admin"})
	require.NoError(t, err)
	_, err = roleStore.Create(ctx, &types.UserRole{Name: "User"})
	require.NoError(t, err)

	hash, err := auth.HashPassword(adminPassword)
	require.NoError(t, err)
	_, err = userStore.Create(ctx, &types.User{
		Email:     adminEmail,
		Firstname: "Ada",
		Lastname:  "Admin",
		Password:  hash,
		Active:    true,
		RoleID:    adminRole.ID,
	})
	require.NoError(t, err)

	tokens := auth.NewTokenService([]byte("test-secret"), "aionic-api", "aionic-api-client", time.Hour)

	policy := auth.NewPolicy()
	policy.Replace(auth.PolicyDocument{
		"Admin": {{
			Resources:   []string{"user", "userRole", "userInvitation"},
			Permissions: []string{"read", "create", "update", "delete"},
		}},
		"User": {{
			Resources:   []string{"user"},
			Permissions: []string{"read"},
		}},
	})

	mailer := &fakeMailer{sent: make(chan mail.InvitationMail, 8)}
	userCache := cache.New(time.Minute)

	userService := services.NewUserService(userStore, userCache)
	roleService := services.NewRoleService(roleStore)
	invitationService := services.NewInvitationService(
		db, invitationStore, userStore, roleStore,
		mailer, userCache, "User", nil,
	)

	mw := auth.NewMiddleware(tokens, userStore, policy, nil)
	authHandler := NewAuthHandler(userService, invitationService, tokens)

	router := chi.NewRouter()
	router.Get("/healthz", Healthz)
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, authHandler, mw)
	})
	router.Route("/users", func(r chi.Router) {
		UserRouter(r, userService, mw)
	})
	router.Route("/user-roles", func(r chi.Router) {
		RoleRouter(r, roleService, mw)
	})
	router.Route("/user-invitations", func(r chi.Router) {
		InvitationRouter(r, invitationService, mw)
	})

	return &testAPI{
		router: router,
		db:     db,
		users:  userStore,
		mailer: mailer,
	}
}

func (api *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	return rec
}

// signIn authenticates and returns the bearer token.
func (api *testAPI) signIn(t *testing.T, email, password string) string {
	t.Helper()

	rec := api.do(t, http.MethodPost, "/auth/signin", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&value))
	return value
}
