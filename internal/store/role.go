package store

import (
	"context"

	"github.com/larswaechter/aionic-api/types"
	"github.com/uptrace/bun"
)

// RoleStore handles persistence for user roles.
// Role names are the keys into the permission policy, so uniqueness is
// enforced at the storage layer.
type RoleStore struct {
	db *bun.DB
}

func NewRoleStore(db *bun.DB) *RoleStore {
	return &RoleStore{db: db}
}

func (s *RoleStore) GetByID(ctx context.Context, id int64) (*types.UserRole, error) {
	role := new(types.UserRole)
	err := s.db.NewSelect().
		Model(role).
		Where("rol.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	return role, nil
}

func (s *RoleStore) GetByName(ctx context.Context, name string) (*types.UserRole, error) {
	role := new(types.UserRole)
	err := s.db.NewSelect().
		Model(role).
		Where("rol.name = ?", name).
		Scan(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	return role, nil
}

func (s *RoleStore) List(ctx context.Context) ([]types.UserRole, error) {
	var roles []types.UserRole
	err := s.db.NewSelect().
		Model(&roles).
		Order("rol.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	return roles, nil
}

func (s *RoleStore) Create(ctx context.Context, role *types.UserRole) (*types.UserRole, error) {
	if _, err := s.db.NewInsert().Model(role).Exec(ctx); err != nil {
		return nil, wrapError(err)
	}
	return role, nil
}

func (s *RoleStore) Update(ctx context.Context, role *types.UserRole) (*types.UserRole, error) {
	res, err := s.db.NewUpdate().
		Model(role).
		Column("name").
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
	return role, nil
}

func (s *RoleStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.NewDelete().
		Model((*types.UserRole)(nil)).
		Where("rol.id = ?", id).
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
