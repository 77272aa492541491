// Package repository provides the bun-backed implementations of the
// AccountStore and RoleDirectory collaborators. Uniqueness invariants live in
// the database schema, so the guarantees hold across multiple service
// instances sharing a store.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/uptrace/bun"
)

// Manager owns the repositories sharing one bun handle.
type Manager struct {
	db       *bun.DB
	accounts *Accounts
	roles    *Roles
}

func NewManager(db *bun.DB) *Manager {
	return &Manager{
		db:       db,
		accounts: NewAccountsRepository(db),
		roles:    NewRolesRepository(db),
	}
}

func (m *Manager) Accounts() *Accounts {
	return m.accounts
}

func (m *Manager) Roles() *Roles {
	return m.roles
}

func (m *Manager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

// Validate checks the manager was assembled with every repository it needs.
func (m *Manager) Validate() error {
	if m.accounts == nil {
		return errors.New("repository accounts should be initialized")
	}

	if m.roles == nil {
		return errors.New("repository roles should be initialized")
	}

	return nil
}

// isUniqueViolation matches the constraint errors sqlite and postgres raise
// for duplicate keys. Neither driver exposes a stable typed error through
// database/sql, so this goes by message.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
