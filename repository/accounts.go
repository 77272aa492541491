package repository

import (
	"context"
	"database/sql"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/lockhart-io/ident"
)

// Accounts is the bun-backed AccountStore. Username and email uniqueness is
// enforced by the schema's unique indexes; Create translates the resulting
// constraint violation into a conflict error so concurrent registrations
// converge to a single success.
type Accounts struct {
	repository.Repository[*ident.Account]
	db *bun.DB
}

var _ ident.AccountStore = (*Accounts)(nil)

func NewAccountsRepository(db *bun.DB) *Accounts {
	repo := repository.NewRepository[*ident.Account](db, repository.ModelHandlers[*ident.Account]{
		NewRecord: func() *ident.Account { return &ident.Account{} },
		GetID: func(a *ident.Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *ident.Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
	})

	return &Accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *Accounts) FindByUsername(ctx context.Context, username string) (*ident.Account, error) {
	return a.findByColumn(ctx, "username", ident.NormalizeUsername(username))
}

func (a *Accounts) FindByEmail(ctx context.Context, email string) (*ident.Account, error) {
	return a.findByColumn(ctx, "email", ident.NormalizeEmail(email))
}

func (a *Accounts) FindByID(ctx context.Context, id string) (*ident.Account, error) {
	return a.findByColumn(ctx, "id", id)
}

func (a *Accounts) findByColumn(ctx context.Context, column, value string) (*ident.Account, error) {
	record := &ident.Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account lookup failed")
	}

	return record, nil
}

// Create persists the account with its password hash. A duplicate username or
// email surfaces as a CategoryConflict error regardless of which caller lost
// the race.
func (a *Accounts) Create(ctx context.Context, account *ident.Account, passwordHash string) (*ident.Account, error) {
	prepareAccountDefaults(account)
	account.PasswordHash = passwordHash

	created, err := a.Repository.Create(ctx, account)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "username or email already taken")
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "account create failed")
	}

	return created, nil
}

// GetRoles returns the names of every role the account holds.
func (a *Accounts) GetRoles(ctx context.Context, accountID string) ([]string, error) {
	var names []string
	err := a.db.NewSelect().
		ColumnExpr("rol.name").
		TableExpr("roles AS rol").
		Join("JOIN account_roles AS acr ON acr.role_id = rol.id").
		Where("acr.account_id = ?", accountID).
		OrderExpr("rol.name ASC").
		Scan(ctx, &names)

	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "role lookup failed")
	}

	return names, nil
}

// AddRole records the account-to-role membership. The membership row carries
// a unique (account_id, role_id) index, so re-adding a held role is a no-op.
func (a *Accounts) AddRole(ctx context.Context, accountID, roleName string) error {
	return a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		role := &ident.Role{}
		err := tx.NewSelect().
			Model(role).
			Where("?TableAlias.name = ?", ident.NormalizeRoleName(roleName)).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return goerrors.New("role does not exist", goerrors.CategoryNotFound)
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "role lookup failed")
		}

		accID, err := uuid.Parse(accountID)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid account id")
		}

		membership := &ident.AccountRole{
			ID:        uuid.New(),
			AccountID: accID,
			RoleID:    role.ID,
		}

		_, err = tx.NewInsert().
			Model(membership).
			On("CONFLICT (account_id, role_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "membership insert failed")
		}

		return nil
	})
}

func prepareAccountDefaults(account *ident.Account) {
	if account == nil {
		return
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	account.Username = ident.NormalizeUsername(account.Username)
	account.Email = ident.NormalizeEmail(account.Email)
}
