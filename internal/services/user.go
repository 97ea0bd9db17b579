package services

import (
	"context"
	"errors"

	"github.com/larswaechter/aionic-api/internal/cache"
	"github.com/larswaechter/aionic-api/internal/store"
	"github.com/larswaechter/aionic-api/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*types.User, error)
	GetByEmail(ctx context.Context, email string) (*types.User, error)
	GetActiveByEmail(ctx context.Context, email string) (*types.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]types.User, error)
	Create(ctx context.Context, user *types.User) (*types.User, error)
	Update(ctx context.Context, user *types.User) (*types.User, error)
	Delete(ctx context.Context, id int64) error
}

// UserService encapsulates user use-cases. The user list is served from
// the response cache; every mutation invalidates it.
type UserService struct {
	repo  UserRepository
	cache *cache.Cache
}

func NewUserService(repo UserRepository, c *cache.Cache) *UserService {
	return &UserService{repo: repo, cache: c}
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// GetActiveByEmail is the sign-in lookup.
func (s *UserService) GetActiveByEmail(ctx context.Context, email string) (*types.User, error) {
	return s.repo.GetActiveByEmail(ctx, email)
}

func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(cache.UsersKey); ok {
			if users, ok := cached.([]types.User); ok {
				return users, nil
			}
		}
	}

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(cache.UsersKey, users)
	}
	return users, nil
}

func (s *UserService) Create(ctx context.Context, user *types.User) (*types.User, error) {
	exists, err := s.repo.ExistsByEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.invalidate()
	return created, nil
}

func (s *UserService) Update(ctx context.Context, user *types.User) (*types.User, error) {
	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.invalidate()
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// Unregister removes the authenticated caller's own account. Previously
// issued tokens stay cryptographically valid until expiry, but the
// active-account load in the auth middleware rejects them from now on.
func (s *UserService) Unregister(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, user.ID); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

func (s *UserService) invalidate() {
	if s.cache != nil {
		s.cache.Delete(cache.UsersKey)
	}
}
