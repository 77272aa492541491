package ident

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the read view of a validated token's claim set.
type AuthClaims interface {
	Subject() string
	UserID() string
	Username() string
	Email() string
	Roles() []string
	HasRole(role string) bool
	Nonce() string
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete claim set carried by issued tokens. Roles holds
// one entry per role supplied at minting time; the generator does not
// deduplicate.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string   `json:"uid,omitempty"`
	Uname     string   `json:"username,omitempty"`
	UserEmail string   `json:"email,omitempty"`
	RoleList  []string `json:"roles,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the account identifier, falling back to the subject claim.
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Username returns the username claim
func (c *JWTClaims) Username() string {
	return c.Uname
}

// Email returns the email claim
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// Roles returns the role entries exactly as minted, duplicates included.
func (c *JWTClaims) Roles() []string {
	return c.RoleList
}

// HasRole checks if the token carries a specific role. The comparison is
// case-normalized the same way role assignment is.
func (c *JWTClaims) HasRole(role string) bool {
	want := NormalizeRoleName(role)
	for _, r := range c.RoleList {
		if NormalizeRoleName(r) == want {
			return true
		}
	}
	return false
}

// Nonce returns the jti uniqueness claim.
func (c *JWTClaims) Nonce() string {
	return c.RegisteredClaims.ID
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
