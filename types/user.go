package types

import (
	"time"

	"github.com/uptrace/bun"
)

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	// ID is the unique identifier of the user.
	ID int64 `bun:"id,pk,autoincrement" json:"id"`

	// Email is the user's email address. Unique across all accounts.
	Email string `bun:"email,notnull,unique" json:"email"`

	// Firstname is the user's given name.
	Firstname string `bun:"firstname" json:"firstname"`

	// Lastname is the user's family name.
	Lastname string `bun:"lastname" json:"lastname"`

	// Password stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	Password string `bun:"password,notnull" json:"-"`

	// Active marks whether the account may authenticate. Inactive
	// accounts fail the identity load on every request.
	Active bool `bun:"active,notnull,default:true" json:"active"`

	// RoleID references the user's role.
	RoleID int64 `bun:"user_role_id,notnull" json:"-"`

	// Role is the named permission group the user belongs to.
	Role *UserRole `bun:"rel:belongs-to,join:user_role_id=id" json:"user_role,omitempty"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// RoleName returns the name of the user's role, or "" when the role
// relation was not loaded.
func (u *User) RoleName() string {
	if u == nil || u.Role == nil {
		return ""
	}
	return u.Role.Name
}
