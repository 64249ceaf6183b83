package domain

import "time"

// Role enumerates the account roles known to the storefront.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Known reports whether the role is one of the storefront's own values.
// Unknown roles are carried through resolution untouched; authorization
// gates simply never match them.
func (r Role) Known() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// Identity is the resolved, trusted representation of who is making a
// request. It is produced fresh per request and never persisted.
type Identity struct {
	UserID int64
	Email  string
	Role   Role
	Name   string
}

// CredentialPayload holds the claims embedded in a token or session blob.
// Preferences is an opaque carry-through; it is never interpreted during
// resolution.
type CredentialPayload struct {
	UserID      int64  `json:"userId"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	Name        string `json:"name"`
	Preferences string `json:"preferences,omitempty"`
}

// Identity derives the resolved identity from the payload claims.
func (p CredentialPayload) Identity() Identity {
	return Identity{
		UserID: p.UserID,
		Email:  p.Email,
		Role:   p.Role,
		Name:   p.Name,
	}
}

// User mirrors the persisted representation in the users table.
type User struct {
	ID           int64
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	Bio          *string
	AvatarURL    *string
	Preferences  *string
	ResetToken   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CredentialPayload builds the claim set issued for this user.
func (u User) CredentialPayload() CredentialPayload {
	return CredentialPayload{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		Name:   u.Name,
	}
}
