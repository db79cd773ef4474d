package osiapp

import (
	"time"

	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleMember is the default role assigned on registration
	RoleMember UserRole = "member"
	// RoleAdmin grants access to the /admin resources
	RoleAdmin UserRole = "admin"
)

// User is the user model. Identity is a store assigned numeric id; email is
// unique and stored case sensitive; only the bcrypt hash of the password is
// retained. Confirmed defaults to false and transitions false to true exactly
// once, driven by the confirmation workflow.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Role          UserRole   `bun:"user_role,notnull,default:'member'" json:"user_role,omitempty"`
	Confirmed     bool       `bun:"is_confirmed,notnull,default:false" json:"is_confirmed"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Username derives the display handle used in token claims from the email.
func (u *User) Username() string {
	return usernameFromEmail(u.Email)
}

// Profile is the profile model, a thin collaborator associated 1:1 with a
// User by foreign key.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	UserID        int64      `bun:"user_id,notnull,unique" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	DisplayName   string     `bun:"display_name" json:"display_name,omitempty"`
	Bio           string     `bun:"bio" json:"bio,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
