package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/larswaechter/aionic-api/types"
)

// testDB opens a per-test in-memory sqlite database with the schema
// created from the bun models.
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

func seedRole(t *testing.T, db *bun.DB, name string) *types.UserRole {
	t.Helper()
	role, err := NewRoleStore(db).Create(context.Background(), &types.UserRole{Name: name})
	require.NoError(t, err)
	return role
}

func seedUser(t *testing.T, db *bun.DB, email string, roleID int64, active bool) *types.User {
	t.Helper()
	user, err := NewUserStore(db).Create(context.Background(), &types.User{
		Email:     email,
		Firstname: "Max",
		Lastname:  "Mustermann",
		Password:  "hashed",
		Active:    active,
		RoleID:    roleID,
	})
	require.NoError(t, err)
	return user
}
