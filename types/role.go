package types

import "github.com/uptrace/bun"

// UserRole is a named permission group (e.g. "Admin", "User") referenced
// by zero or more users. Permissions themselves live in the policy
// document, keyed by role name.
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:rol"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,notnull,unique" json:"name"`

	Users []*User `bun:"rel:has-many,join:id=user_role_id" json:"-"`
}
