package services

import (
	"context"

	"github.com/larswaechter/aionic-api/types"
)

// RoleRepository defines persistence operations for user roles.
type RoleRepository interface {
	GetByID(ctx context.Context, id int64) (*types.UserRole, error)
	GetByName(ctx context.Context, name string) (*types.UserRole, error)
	List(ctx context.Context) ([]types.UserRole, error)
	Create(ctx context.Context, role *types.UserRole) (*types.UserRole, error)
	Update(ctx context.Context, role *types.UserRole) (*types.UserRole, error)
	Delete(ctx context.Context, id int64) error
}

// RoleService encapsulates user-role use-cases.
type RoleService struct {
	repo RoleRepository
}

func NewRoleService(repo RoleRepository) *RoleService {
	return &RoleService{repo: repo}
}

func (s *RoleService) GetByID(ctx context.Context, id int64) (*types.UserRole, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *RoleService) GetByName(ctx context.Context, name string) (*types.UserRole, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *RoleService) List(ctx context.Context) ([]types.UserRole, error) {
	return s.repo.List(ctx)
}

func (s *RoleService) Create(ctx context.Context, role *types.UserRole) (*types.UserRole, error) {
	return s.repo.Create(ctx, role)
}

func (s *RoleService) Update(ctx context.Context, role *types.UserRole) (*types.UserRole, error) {
	return s.repo.Update(ctx, role)
}

func (s *RoleService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
