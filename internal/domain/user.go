package domain

import "time"

// Role is a named authority granted to users, e.g. "ROLE_ADMIN".
type Role struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	Authority string `json:"authority" gorm:"size:64;uniqueIndex;not null"`

	CreatedAt time.Time `json:"created_at"`
}

func (Role) TableName() string { return "roles" }

type User struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" validate:"omitempty,email"`
	Username  string `json:"username" gorm:"size:255;uniqueIndex;not null"`

	PasswordHash string `json:"-" gorm:"not null"`

	// Roles are linked through the user_roles join table; the persistence
	// layer owns the association, there are no in-memory back-pointers.
	Roles []Role `json:"roles" gorm:"many2many:user_roles;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// Authorities returns the authority names carried by the user's roles,
// in association order.
func (u *User) Authorities() []string {
	out := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		out = append(out, r.Authority)
	}
	return out
}

// HasAuthority reports whether the user holds the given authority.
func (u *User) HasAuthority(authority string) bool {
	for _, r := range u.Roles {
		if r.Authority == authority {
			return true
		}
	}
	return false
}
