package store

import (
	"context"

	"github.com/larswaechter/aionic-api/types"
	"github.com/uptrace/bun"
)

// InvitationStore handles persistence for user invitations.
type InvitationStore struct {
	db *bun.DB
}

func NewInvitationStore(db *bun.DB) *InvitationStore {
	return &InvitationStore{db: db}
}

func (s *InvitationStore) GetByID(ctx context.Context, id int64) (*types.UserInvitation, error) {
	inv := new(types.UserInvitation)
	err := s.db.NewSelect().
		Model(inv).
		Where("inv.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	return inv, nil
}

// GetByToken looks up a live invitation by its registration token and,
// when email is non-empty, additionally requires the email to match.
func (s *InvitationStore) GetByToken(ctx context.Context, token, email string) (*types.UserInvitation, error) {
	return s.GetByTokenTx(ctx, s.db, token, email)
}

func (s *InvitationStore) GetByTokenTx(ctx context.Context, tx bun.IDB, token, email string) (*types.UserInvitation, error) {
	inv := new(types.UserInvitation)
	q := tx.NewSelect().
		Model(inv).
		Where("inv.token = ?", token).
		Where("inv.active = ?", true)
	if email != "" {
		q = q.Where("inv.email = ?", email)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, wrapError(err)
	}
	return inv, nil
}

func (s *InvitationStore) List(ctx context.Context) ([]types.UserInvitation, error) {
	var invitations []types.UserInvitation
	err := s.db.NewSelect().
		Model(&invitations).
		Order("inv.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	return invitations, nil
}

func (s *InvitationStore) Create(ctx context.Context, inv *types.UserInvitation) (*types.UserInvitation, error) {
	if _, err := s.db.NewInsert().Model(inv).Exec(ctx); err != nil {
		return nil, wrapError(err)
	}
	return inv, nil
}

func (s *InvitationStore) Delete(ctx context.Context, id int64) error {
	return s.DeleteTx(ctx, s.db, id)
}

// DeleteTx removes an invitation inside the caller's transaction. The
// registration workflow runs it in the same transaction that creates the
// account so a token can never be consumed twice.
func (s *InvitationStore) DeleteTx(ctx context.Context, tx bun.IDB, id int64) error {
	res, err := tx.NewDelete().
		Model((*types.UserInvitation)(nil)).
		Where("inv.id = ?", id).
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
