package ident

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the identity record. Username and email carry unique constraints
// that the store enforces atomically; the password hash is an opaque blob that
// never leaves the repository layer in API responses.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	DisplayName   string     `bun:"display_name" json:"display_name,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Sanitized returns a copy safe to hand to callers: same identity attributes,
// password hash cleared.
func (a *Account) Sanitized() *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.PasswordHash = ""
	return &out
}

// Identity adapts the account to the Identity view the token service expects.
func (a *Account) Identity() Identity {
	return accountIdentity{
		id:       a.ID.String(),
		username: a.Username,
		email:    a.Email,
	}
}

// Role is a named authorization grant. Names are stored upper-cased; see
// NormalizeRoleName.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull,unique" json:"name,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// AccountRole is the account-to-role membership row. The (account_id, role_id)
// pair is unique so repeated assignment stays idempotent.
type AccountRole struct {
	bun.BaseModel `bun:"table:account_roles,alias:acr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID     uuid.UUID  `bun:"account_id,notnull,type:uuid,unique:membership" json:"account_id,omitempty"`
	RoleID        uuid.UUID  `bun:"role_id,notnull,type:uuid,unique:membership" json:"role_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

type accountIdentity struct {
	id       string
	username string
	email    string
}

func (a accountIdentity) ID() string       { return a.id }
func (a accountIdentity) Username() string { return a.username }
func (a accountIdentity) Email() string    { return a.email }

// NewIdentity builds an Identity from raw values without an Account record.
func NewIdentity(id, username, email string) Identity {
	return accountIdentity{id: id, username: username, email: email}
}

// NormalizeUsername lowers and trims a username so lookups are
// case-insensitive.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NormalizeEmail lowers and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
