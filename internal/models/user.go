package models

import "time"

// User represents an account managed through the admin dashboard.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	Verified     bool      `json:"verified"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserPatch enumerates the user fields an admin may change. Nil fields are left untouched.
type UserPatch struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Verified *bool   `json:"verified"`
	Active   *bool   `json:"active"`
}

// Apply merges the non-nil patch fields into u. Password is handled by the
// caller since it must be hashed first.
func (p UserPatch) Apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Verified != nil {
		u.Verified = *p.Verified
	}
	if p.Active != nil {
		u.Active = *p.Active
	}
}
