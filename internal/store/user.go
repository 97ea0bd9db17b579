package store

import (
	"context"
	"time"

	"github.com/larswaechter/aionic-api/types"
	"github.com/uptrace/bun"
)

// UserStore handles persistence for users.
type UserStore struct {
	db *bun.DB
}

func NewUserStore(db *bun.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*types.User, error) {
	user := new(types.User)
	err := s.db.NewSelect().
		Model(user).
		Relation("Role").
		Where("usr.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	return user, nil
}

// GetActiveByID resolves a verified token subject to a live account,
// including its role. Inactive and missing accounts are both ErrNotFound;
// callers must not distinguish the two.
func (s *UserStore) GetActiveByID(ctx context.Context, id int64) (*types.User, error) {
	user := new(types.User)
	err := s.db.NewSelect().
		Model(user).
		Relation("Role").
		Where("usr.id = ?", id).
		Where("usr.active = ?", true).
		Scan(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	return user, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	user := new(types.User)
	err := s.db.NewSelect().
		Model(user).
		Relation("Role").
		Where("usr.email = ?", email).
		Scan(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	return user, nil
}

// GetActiveByEmail is the sign-in lookup: only active accounts may
// authenticate.
func (s *UserStore) GetActiveByEmail(ctx context.Context, email string) (*types.User, error) {
	user := new(types.User)
	err := s.db.NewSelect().
		Model(user).
		Relation("Role").
		Where("usr.email = ?", email).
		Where("usr.active = ?", true).
		Scan(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	return user, nil
}

func (s *UserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.ExistsByEmailTx(ctx, s.db, email)
}

func (s *UserStore) ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	exists, err := tx.NewSelect().
		Model((*types.User)(nil)).
		Where("usr.email = ?", email).
		Exists(ctx)
	if err != nil {
		return false, wrapError(err)
	}
	return exists, nil
}

func (s *UserStore) List(ctx context.Context) ([]types.User, error) {
	var users []types.User
	err := s.db.NewSelect().
		Model(&users).
		Relation("Role").
		Order("usr.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	return users, nil
}

func (s *UserStore) Create(ctx context.Context, user *types.User) (*types.User, error) {
	return s.CreateTx(ctx, s.db, user)
}

func (s *UserStore) CreateTx(ctx context.Context, tx bun.IDB, user *types.User) (*types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
		return nil, wrapError(err)
	}
	return user, nil
}

func (s *UserStore) Update(ctx context.Context, user *types.User) (*types.User, error) {
	user.UpdatedAt = time.Now()

	res, err := s.db.NewUpdate().
		Model(user).
		Column("email", "firstname", "lastname", "password", "active", "user_role_id", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *UserStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().
		Model((*types.User)(nil)).
		Where("usr.id = ?", id).
		Exec(ctx)
	if err != nil {
		return wrapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
