package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/larswaechter/aionic-api/internal/cache"
	"github.com/larswaechter/aionic-api/internal/mail"
	"github.com/larswaechter/aionic-api/internal/store"
	"github.com/larswaechter/aionic-api/types"
)

func testDB(t *testing.T) *bun.DB {
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
	return db
}

// fakeMailer records dispatched invitations; dispatch happens on a
// goroutine, so receivers wait on the channel.
type fakeMailer struct {
	sent chan mail.InvitationMail
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{sent: make(chan mail.InvitationMail, 8)}
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

type invitationFixture struct {
	db          *bun.DB
	users       *store.UserStore
	roles       *store.RoleStore
	invitations *store.InvitationStore
	mailer      *fakeMailer
	cache       *cache.Cache
	svc         *InvitationService
}

func newInvitationFixture(t *testing.T) *invitationFixture {
	t.Helper()
	db := testDB(t)

	users := store.NewUserStore(db)
	roles := store.NewRoleStore(db)
	invitations := store.NewInvitationStore(db)
	mailer := newFakeMailer()
	c := cache.New(time.Minute)

	_, err := roles.Create(context.Background(), &types.UserRole{Name: "User"})
	require.NoError(t, err)
	_, err = roles.Create(context.Background(), &types.UserRole{Name: "Admin"})
	require.NoError(t, err)

	svc := NewInvitationService(db, invitations, users, roles, mailer, c, "User", nil)

	return &invitationFixture{
		db:          db,
		users:       users,
		roles:       roles,
		invitations: invitations,
		mailer:      mailer,
		cache:       c,
		svc:         svc,
	}
}
