package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Role is the normalized authorization role of a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole normalizes a raw role string. Matching is case-insensitive and
// anything that is not "admin" resolves to RoleUser.
func ParseRole(raw string) Role {
	if strings.EqualFold(strings.TrimSpace(raw), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// IsAdmin reports whether r is the admin role.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// UnmarshalJSON normalizes the role at decode time so callers never compare
// raw backend strings.
func (r *Role) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = ParseRole(raw)
	return nil
}

// User models a shopper or administrator.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	Role         Role      `json:"role"`
	Token        string    `json:"token,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// Authenticated reports whether u carries an identifier.
func (u *User) Authenticated() bool {
	return u != nil && strings.TrimSpace(u.ID) != ""
}

// IdentityPatch lists the cached identity fields to overwrite. Nil fields are
// left untouched.
type IdentityPatch struct {
	Username *string
	Email    *string
	Role     *Role
	Token    *string
}

// Apply writes the non-nil patch fields into u.
func (p IdentityPatch) Apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Token != nil {
		u.Token = *p.Token
	}
}
