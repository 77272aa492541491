package repository

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/lockhart-io/ident"
)

// Roles is the bun-backed RoleDirectory. Role names are stored normalized
// (upper-cased) with a unique index, and Create swallows the duplicate-key
// error so concurrent creation of the same role converges to one record with
// no caller seeing a failure.
type Roles struct {
	db *bun.DB
}

var _ ident.RoleDirectory = (*Roles)(nil)

func NewRolesRepository(db *bun.DB) *Roles {
	return &Roles{db: db}
}

func (r *Roles) Exists(ctx context.Context, roleName string) (bool, error) {
	count, err := r.db.NewSelect().
		Model((*ident.Role)(nil)).
		Where("?TableAlias.name = ?", ident.NormalizeRoleName(roleName)).
		Count(ctx)

	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "role existence check failed")
	}

	return count > 0, nil
}

func (r *Roles) Create(ctx context.Context, roleName string) error {
	role := &ident.Role{
		ID:   uuid.New(),
		Name: ident.NormalizeRoleName(roleName),
	}

	_, err := r.db.NewInsert().
		Model(role).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)

	if err != nil {
		if isUniqueViolation(err) {
			// lost a race with another creator; the role exists, which is
			// all the caller wanted
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "role create failed")
	}

	return nil
}

// EnsureRoles creates any missing roles from the list. Runs unconditionally
// at startup so role existence never depends on migration timing.
func (r *Roles) EnsureRoles(ctx context.Context, roleNames ...string) error {
	for _, name := range roleNames {
		normalized := ident.NormalizeRoleName(name)
		if normalized == "" {
			continue
		}
		if err := r.Create(ctx, normalized); err != nil {
			return err
		}
	}
	return nil
}
