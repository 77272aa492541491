package ident

import (
	"context"
	"sync"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// Auther composes the account store, role directory, password hasher, and
// token service into the three credential workflows. It holds no mutable
// state of its own, so a single instance is safe for any number of
// concurrent callers; all mutation atomicity is delegated to the store.
type Auther struct {
	accounts AccountStore
	roles    RoleDirectory
	hasher   PasswordHasher
	tokens   TokenService
	policy   *PasswordPolicy
	logger   Logger

	// compared against on unknown usernames so lookup misses cost the
	// same as wrong passwords
	decoyOnce sync.Once
	decoyHash string
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Auther wired with the default bcrypt hasher
// and password policy.
func NewAuthenticator(accounts AccountStore, roles RoleDirectory, tokens TokenService) *Auther {
	return &Auther{
		accounts: accounts,
		roles:    roles,
		tokens:   tokens,
		hasher:   Hasher{},
		policy:   NewPasswordPolicy(),
		logger:   defLogger{},
	}
}

func (s *Auther) decoy() string {
	s.decoyOnce.Do(func() {
		if h, err := s.hasher.Hash(uuid.NewString()); err == nil {
			s.decoyHash = h
		}
	})
	return s.decoyHash
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithPasswordHasher swaps the hashing collaborator.
func (s *Auther) WithPasswordHasher(hasher PasswordHasher) *Auther {
	if hasher != nil {
		s.hasher = hasher
	}
	return s
}

// WithPasswordPolicy swaps the registration password policy.
func (s *Auther) WithPasswordPolicy(policy *PasswordPolicy) *Auther {
	if policy != nil {
		s.policy = policy
	}
	return s
}

// Register creates a new account. The password is policy-checked before any
// store access, so no partial account ever exists on a validation failure.
// Registration does not log the user in and assigns no roles.
func (s *Auther) Register(ctx context.Context, input RegisterInput) error {
	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), errors.CategoryOperation, "context cancelled during registration")
	default:
	}

	if input.Password != input.ConfirmPassword {
		return ErrPasswordMismatch
	}

	if violations := s.policy.Validate(input.Password); len(violations) > 0 {
		return NewPolicyError(violations)
	}

	username := NormalizeUsername(input.Username)
	email := NormalizeEmail(input.Email)

	if err := s.checkDuplicate(ctx, username, email); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.logger.Error("Register failed to hash password", "error", err)
		return errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}

	account := &Account{
		Username:    username,
		Email:       email,
		DisplayName: input.DisplayName,
	}
	if id, err := hashid.NewUUID(email); err == nil {
		account.ID = id
	}

	if _, err := s.accounts.Create(ctx, account, hash); err != nil {
		// the store enforces uniqueness atomically; a conflict here means
		// we lost the race with a concurrent registration
		if isConflict(err) {
			return ErrDuplicateAccount
		}
		s.logger.Error("Register store create failed", "error", err)
		return errors.Wrap(err, errors.CategoryInternal, "registration failed")
	}

	s.logger.Info("Registered account", "username", username)
	return nil
}

// Login authenticates a username/password pair and mints a bearer token
// carrying the account's current roles. It mutates nothing: the same generic
// error comes back for unknown usernames and wrong passwords.
func (s *Auther) Login(ctx context.Context, username, password string) (*Account, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", errors.Wrap(ctx.Err(), errors.CategoryOperation, "context cancelled during login")
	default:
	}

	account, err := s.accounts.FindByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		s.logger.Error("Login account lookup failed", "error", err)
		return nil, "", errors.Wrap(err, errors.CategoryInternal, "login failed")
	}

	if account == nil {
		// burn a compare anyway so a miss costs the same as a mismatch
		_ = s.hasher.Verify(password, s.decoy())
		return nil, "", ErrInvalidCredentials
	}

	if err := s.hasher.Verify(password, account.PasswordHash); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	roles, err := s.accounts.GetRoles(ctx, account.ID.String())
	if err != nil {
		s.logger.Error("Login failed to fetch roles", "error", err)
		return nil, "", errors.Wrap(err, errors.CategoryInternal, "login failed")
	}

	token, err := s.tokens.Generate(account.Identity(), DedupeRoles(roles))
	if err != nil {
		s.logger.Error("Login failed to generate token", "error", err)
		return nil, "", errors.Wrap(err, errors.CategoryInternal, "login failed")
	}

	return account.Sanitized(), token, nil
}

// AssignRole grants a role to an account, creating the role record on demand.
// The role name is upper-cased first, and assigning an already-held role is a
// no-op success.
func (s *Auther) AssignRole(ctx context.Context, username, roleName string) error {
	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), errors.CategoryOperation, "context cancelled during role assignment")
	default:
	}

	role := NormalizeRoleName(roleName)
	if role == "" {
		return errors.New("role name is required", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}

	account, err := s.accounts.FindByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		s.logger.Error("AssignRole account lookup failed", "error", err)
		return errors.Wrap(err, ErrAssignmentFailed.Category, ErrAssignmentFailed.Message).
			WithTextCode(ErrAssignmentFailed.TextCode)
	}
	if account == nil {
		return ErrAccountNotFound
	}

	exists, err := s.roles.Exists(ctx, role)
	if err != nil {
		s.logger.Error("AssignRole directory lookup failed", "role", role, "error", err)
		return errors.Wrap(err, ErrAssignmentFailed.Category, ErrAssignmentFailed.Message).
			WithTextCode(ErrAssignmentFailed.TextCode)
	}

	if !exists {
		// Create is idempotent under races: losing a concurrent create of
		// the same role is not an error
		if err := s.roles.Create(ctx, role); err != nil {
			s.logger.Error("AssignRole role create failed", "role", role, "error", err)
			return errors.Wrap(err, ErrAssignmentFailed.Category, ErrAssignmentFailed.Message).
				WithTextCode(ErrAssignmentFailed.TextCode)
		}
	}

	if err := s.accounts.AddRole(ctx, account.ID.String(), role); err != nil {
		s.logger.Error("AssignRole membership add failed", "role", role, "error", err)
		return errors.Wrap(err, ErrAssignmentFailed.Category, ErrAssignmentFailed.Message).
			WithTextCode(ErrAssignmentFailed.TextCode)
	}

	s.logger.Info("Assigned role", "username", username, "role", role)
	return nil
}

func (s *Auther) checkDuplicate(ctx context.Context, username, email string) error {
	existing, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		s.logger.Error("Register username lookup failed", "error", err)
		return errors.Wrap(err, errors.CategoryInternal, "registration failed")
	}
	if existing != nil {
		return ErrDuplicateAccount
	}

	existing, err = s.accounts.FindByEmail(ctx, email)
	if err != nil {
		s.logger.Error("Register email lookup failed", "error", err)
		return errors.Wrap(err, errors.CategoryInternal, "registration failed")
	}
	if existing != nil {
		return ErrDuplicateAccount
	}

	return nil
}

func isConflict(err error) bool {
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.Category == errors.CategoryConflict
	}
	return false
}
