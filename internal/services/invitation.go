package services

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/larswaechter/aionic-api/internal/auth"
	"github.com/larswaechter/aionic-api/internal/cache"
	"github.com/larswaechter/aionic-api/internal/mail"
	"github.com/larswaechter/aionic-api/internal/store"
	"github.com/larswaechter/aionic-api/types"
	"github.com/uptrace/bun"
)

const mailDispatchTimeout = 10 * time.Second

// RegisterInput carries the new-account fields supplied alongside a
// registration token.
type RegisterInput struct {
	Email     string
	Firstname string
	Lastname  string
	Password  string
}

// InvitationService implements the invitation workflow of invite,
// validate and register-consume. Registration is transactional:
// account creation and invitation deletion either both happen or neither.
type InvitationService struct {
	db          *bun.DB
	invitations *store.InvitationStore
	users       *store.UserStore
	roles       *store.RoleStore
	mailer      mail.Mailer
	cache       *cache.Cache
	defaultRole string
	logger      *slog.Logger
}

func NewInvitationService(
	db *bun.DB,
	invitations *store.InvitationStore,
	users *store.UserStore,
	roles *store.RoleStore,
	mailer mail.Mailer,
	c *cache.Cache,
	defaultRole string,
	logger *slog.Logger,
) *InvitationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvitationService{
		db:          db,
		invitations: invitations,
		users:       users,
		roles:       roles,
		mailer:      mailer,
		cache:       c,
		defaultRole: defaultRole,
		logger:      logger,
	}
}

// Invite creates an invitation for an email not yet registered and
// dispatches the registration mail out-of-band. A live invitation for
// the same email is a conflict; the earlier token stays valid.
func (s *InvitationService) Invite(ctx context.Context, email string) (*types.UserInvitation, error) {
	taken, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	invitation := &types.UserInvitation{
		Email:  email,
		Token:  uuid.NewString(),
		Active: true,
	}

	created, err := s.invitations.Create(ctx, invitation)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrAlreadyInvited
		}
		return nil, err
	}

	s.dispatchMail(ctx, created.Email, created.Token)
	return created, nil
}

// Validate checks a registration token (optionally bound to an email)
// without mutating anything.
func (s *InvitationService) Validate(ctx context.Context, token, email string) error {
	_, err := s.invitations.GetByToken(ctx, token, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	return nil
}

// Register consumes an invitation: it re-validates the token+email pair,
// re-checks that the email is still free (invite-time checks can race),
// creates the account with the default role, and deletes the invitation
// in the same transaction.
func (s *InvitationService) Register(ctx context.Context, token string, in RegisterInput) (*types.User, error) {
	// Hash before opening the transaction; bcrypt is deliberately slow.
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	role, err := s.roles.GetByName(ctx, s.defaultRole)
	if err != nil {
		return nil, err
	}

	user := &types.User{
		Email:     in.Email,
		Firstname: in.Firstname,
		Lastname:  in.Lastname,
		Password:  hash,
		Active:    true,
		RoleID:    role.ID,
	}

	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		invitation, err := s.invitations.GetByTokenTx(ctx, tx, token, in.Email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidToken
			}
			return err
		}

		taken, err := s.users.ExistsByEmailTx(ctx, tx, in.Email)
		if err != nil {
			return err
		}
		if taken {
			return ErrEmailTaken
		}

		if _, err := s.users.CreateTx(ctx, tx, user); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrEmailTaken
			}
			return err
		}

		return s.invitations.DeleteTx(ctx, tx, invitation.ID)
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Delete(cache.UsersKey)
	}

	user.Role = role
	return user, nil
}

func (s *InvitationService) List(ctx context.Context) ([]types.UserInvitation, error) {
	return s.invitations.List(ctx)
}

func (s *InvitationService) GetByID(ctx context.Context, id int64) (*types.UserInvitation, error) {
	return s.invitations.GetByID(ctx, id)
}

func (s *InvitationService) Delete(ctx context.Context, id int64) error {
	return s.invitations.Delete(ctx, id)
}

// dispatchMail queues the invitation mail without tying its fate to the
// request: delivery failures are logged, never surfaced to the caller.
func (s *InvitationService) dispatchMail(ctx context.Context, email, token string) {
	if s.mailer == nil {
		return
	}

	detached := context.WithoutCancel(ctx)
	go func() {
		sendCtx, cancel := context.WithTimeout(detached, mailDispatchTimeout)
		defer cancel()
		if err := s.mailer.SendUserInvitation(sendCtx, email, token); err != nil {
			s.logger.Error("invitation mail dispatch failed", "email", email, "error", err)
		}
	}()
}
