package ident

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated identity. TokenService
// only ever sees this view of an account.
type Identity interface {
	ID() string
	Username() string
	Email() string
}

// Config holds auth options. Values are read once at construction time and
// never consulted again, so implementations can be plain structs.
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAudience() []string
}

// AccountStore is the durable home of identity records and password hashes.
// Implementations must enforce username/email uniqueness atomically; the
// orchestrator relies on Create surfacing a conflict to close the
// check-then-create race under concurrent registration. The Find methods
// return (nil, nil) when no record matches, reserving the error for actual
// store failures.
type AccountStore interface {
	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, account *Account, passwordHash string) (*Account, error)
	GetRoles(ctx context.Context, accountID string) ([]string, error)
	AddRole(ctx context.Context, accountID, roleName string) error
}

// RoleDirectory is the set of valid role names. Create must be idempotent
// under races: two concurrent creates of the same role converge to a single
// record and neither caller sees an error.
type RoleDirectory interface {
	Exists(ctx context.Context, roleName string) (bool, error)
	Create(ctx context.Context, roleName string) error
	EnsureRoles(ctx context.Context, roleNames ...string) error
}

// PasswordHasher hashes and verifies secrets. Verify returns
// ErrMismatchedHashAndPassword when the plaintext does not match.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}

// TokenService mints and validates signed bearer tokens.
type TokenService interface {
	Generate(identity Identity, roles []string) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(tokenString string) (AuthClaims, error)
}

// Authenticator is the public operation surface of the credential workflow.
type Authenticator interface {
	Register(ctx context.Context, input RegisterInput) error
	Login(ctx context.Context, username, password string) (*Account, string, error)
	AssignRole(ctx context.Context, username, roleName string) error
}

// RegisterInput carries the registration payload. ConfirmPassword is compared
// before any validation or store access happens.
type RegisterInput struct {
	Username        string
	Email           string
	DisplayName     string
	Password        string
	ConfirmPassword string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENT "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENT "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
