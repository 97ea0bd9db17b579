package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larswaechter/aionic-api/types"
)

func TestUserStoreCRUD(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	users := NewUserStore(db)

	role := seedRole(t, db, "Admin")
	created := seedUser(t, db, "max@aionic.test", role.ID, true)
	require.NotZero(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	fetched, err := users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "max@aionic.test", fetched.Email)
	require.NotNil(t, fetched.Role)
	assert.Equal(t, "Admin", fetched.Role.Name)

	fetched.Firstname = "Moritz"
	updated, err := users.Update(ctx, fetched)
	require.NoError(t, err)
	assert.Equal(t, "Moritz", updated.Firstname)

	require.NoError(t, users.Delete(ctx, created.ID))
	_, err = users.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserStoreNotFound(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	users := NewUserStore(db)

	_, err := users.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = users.GetByEmail(ctx, "nobody@aionic.test")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, users.Delete(ctx, 999), ErrNotFound)

	_, err = users.Update(ctx, &types.User{ID: 999, Email: "x@aionic.test"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserStoreDuplicateEmail(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	users := NewUserStore(db)

	role := seedRole(t, db, "Admin")
	seedUser(t, db, "max@aionic.test", role.ID, true)

	_, err := users.Create(ctx, &types.User{
		Email:    "max@aionic.test",
		Password: "hashed",
		RoleID:   role.ID,
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUserStoreActiveFilters(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	users := NewUserStore(db)

	role := seedRole(t, db, "Admin")
	active := seedUser(t, db, "active@aionic.test", role.ID, true)
	inactive := seedUser(t, db, "inactive@aionic.test", role.ID, false)

	got, err := users.GetActiveByID(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, active.ID, got.ID)

	// Inactive accounts are indistinguishable from missing ones.
	_, err = users.GetActiveByID(ctx, inactive.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = users.GetActiveByEmail(ctx, "inactive@aionic.test")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err = users.GetActiveByEmail(ctx, "active@aionic.test")
	require.NoError(t, err)
	assert.Equal(t, active.ID, got.ID)
}

func TestUserStoreExistsAndList(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	users := NewUserStore(db)

	role := seedRole(t, db, "Admin")

	exists, err := users.ExistsByEmail(ctx, "max@aionic.test")
	require.NoError(t, err)
	assert.False(t, exists)

	seedUser(t, db, "max@aionic.test", role.ID, true)
	seedUser(t, db, "mia@aionic.test", role.ID, true)

	exists, err = users.ExistsByEmail(ctx, "max@aionic.test")
	require.NoError(t, err)
	assert.True(t, exists)

	list, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "max@aionic.test", list[0].Email)
	require.NotNil(t, list[0].Role)
	assert.Equal(t, "Admin", list[0].Role.Name)
}
