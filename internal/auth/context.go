package auth

import (
	"context"

	"github.com/larswaechter/aionic-api/types"
)

type identityKey struct{}

// WithIdentity stores the authenticated account on the request context.
func WithIdentity(ctx context.Context, user *types.User) context.Context {
	return context.WithValue(ctx, identityKey{}, user)
}

// IdentityFromContext returns the account attached by RequireAuth.
func IdentityFromContext(ctx context.Context) (*types.User, bool) {
	user, ok := ctx.Value(identityKey{}).(*types.User)
	return user, ok && user != nil
}
