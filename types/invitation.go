package types

import (
	"time"

	"github.com/uptrace/bun"
)

// UserInvitation is a pending registration grant: a single-use random
// token tied to one email address. It is deleted in the same transaction
// that creates the account registered with it.
type UserInvitation struct {
	bun.BaseModel `bun:"table:user_invitations,alias:inv"`

	ID int64 `bun:"id,pk,autoincrement" json:"id"`

	// Email the invitation was issued for. At most one live invitation
	// exists per email.
	Email string `bun:"email,notnull,unique" json:"email"`

	// Token is the unguessable registration token (random UUID v4)
	// embedded in the invitation link.
	Token string `bun:"token,notnull,unique" json:"token"`

	Active bool `bun:"active,notnull,default:true" json:"active"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}
