package ident_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lockhart-io/ident"
)

const validPassword = "Sup3r-Secret!"

// fakeHasher keeps orchestrator tests fast; real bcrypt is covered in
// bcrypt_test.go.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ident.ErrNoEmptyString
	}
	return "hashed:" + password, nil
}

func (fakeHasher) Verify(password, hash string) error {
	if "hashed:"+password != hash {
		return ident.ErrMismatchedHashAndPassword
	}
	return nil
}

func newTestAuther(accounts ident.AccountStore, roles ident.RoleDirectory, tokens ident.TokenService) *ident.Auther {
	return ident.NewAuthenticator(accounts, roles, tokens).
		WithLogger(noopLogger{}).
		WithPasswordHasher(fakeHasher{})
}

func registerInput() ident.RegisterInput {
	return ident.RegisterInput{
		Username:        "Alice",
		Email:           "Alice@Example.com",
		DisplayName:     "Alice A.",
		Password:        validPassword,
		ConfirmPassword: validPassword,
	}
}

func TestAuther_Register(t *testing.T) {
	t.Run("creates the account with a hash and normalized identifiers", func(t *testing.T) {
		accounts := new(MockAccountStore)
		auther := newTestAuther(accounts, new(MockRoleDirectory), new(MockTokenService))

		accounts.On("FindByUsername", mock.Anything, "alice").Return(nil, nil)
		accounts.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, nil)
		accounts.On("Create", mock.Anything, mock.MatchedBy(func(a *ident.Account) bool {
			return a.Username == "alice" && a.Email == "alice@example.com" && a.ID != uuid.Nil
		}), "hashed:"+validPassword).Return(&ident.Account{}, nil)

		err := auther.Register(context.Background(), registerInput())

		require.NoError(t, err)
		accounts.AssertExpectations(t)
	})

	t.Run("password mismatch never reaches the store", func(t *testing.T) {
		// no expectations registered: any store call fails the test
		accounts := new(MockAccountStore)
		auther := newTestAuther(accounts, new(MockRoleDirectory), new(MockTokenService))

		input := registerInput()
		input.ConfirmPassword = "Someth1ng-Else!"

		err := auther.Register(context.Background(), input)

		assert.Equal(t, ident.ErrPasswordMismatch, err)
		accounts.AssertExpectations(t)
	})

	t.Run("policy failure reports every violation and skips the store", func(t *testing.T) {
		accounts := new(MockAccountStore)
		auther := newTestAuther(accounts, new(MockRoleDirectory), new(MockTokenService))

		input := registerInput()
		input.Password = "weak"
		input.ConfirmPassword = "weak"

		err := auther.Register(context.Background(), input)

		require.Error(t, err)
		violations := ident.PolicyViolations(err)
		assert.Equal(t, []string{
			ident.PolicyMinLength,
			ident.PolicyDigit,
			ident.PolicyUppercase,
			ident.PolicySpecial,
		}, violations)
		accounts.AssertExpectations(t)
	})

	t.Run("existing username is a duplicate", func(t *testing.T) {
		accounts := new(MockAccountStore)
		auther := newTestAuther(accounts, new(MockRoleDirectory), new(MockTokenService))

		accounts.On("FindByUsername", mock.Anything, "alice").Return(&ident.Account{}, nil)

		err := auther.Register(context.Background(), registerInput())

		assert.Equal(t, ident.ErrDuplicateAccount, err)
	})

	t.Run("existing email is a duplicate", func(t *testing.T) {
		accounts := new(MockAccountStore)
		auther := newTestAuther(accounts, new(MockRoleDirectory), new(MockTokenService))

		accounts.On("FindByUsername", mock.Anything, "alice").Return(nil, nil)
		accounts.On("FindByEmail", mock.Anything, "alice@example.com").Return(&ident.Account{}, nil)

		err := auther.Register(context.Background(), registerInput())

		assert.Equal(t, ident.ErrDuplicateAccount, err)
	})

	t.Run("store conflict on create translates to duplicate", func(t *testing.T) {
		accounts := new(MockAccountStore)
		auther := newTestAuther(accounts, new(MockRoleDirectory), new(MockTokenService))

		accounts.On("FindByUsername", mock.Anything, "alice").Return(nil, nil)
		accounts.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, nil)
		accounts.On("Create", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, goerrors.New("uniqueness violated", goerrors.CategoryConflict))

		err := auther.Register(context.Background(), registerInput())

		assert.Equal(t, ident.ErrDuplicateAccount, err)
	})

	t.Run("cancelled context aborts before any work", func(t *testing.T) {
		accounts := new(MockAccountStore)
		auther := newTestAuther(accounts, new(MockRoleDirectory), new(MockTokenService))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := auther.Register(ctx, registerInput())

		assert.Error(t, err)
		accounts.AssertExpectations(t)
	})
}

// racingStore is an in-memory AccountStore whose Create enforces the
// uniqueness constraint atomically, the way a real database would.
type racingStore struct {
	mu       sync.Mutex
	accounts map[string]*ident.Account
}

func newRacingStore() *racingStore {
	return &racingStore{accounts: map[string]*ident.Account{}}
}

func (s *racingStore) FindByUsername(_ context.Context, username string) (*ident.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[username], nil
}

func (s *racingStore) FindByEmail(context.Context, string) (*ident.Account, error) {
	return nil, nil
}

func (s *racingStore) FindByID(context.Context, string) (*ident.Account, error) {
	return nil, nil
}

func (s *racingStore) Create(_ context.Context, account *ident.Account, _ string) (*ident.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.Username]; exists {
		return nil, goerrors.New("uniqueness violated", goerrors.CategoryConflict)
	}
	s.accounts[account.Username] = account
	return account, nil
}

func (s *racingStore) GetRoles(context.Context, string) ([]string, error) {
	return nil, nil
}

func (s *racingStore) AddRole(context.Context, string, string) error {
	return nil
}

func TestAuther_RegisterConcurrentDuplicates(t *testing.T) {
	store := newRacingStore()
	auther := newTestAuther(store, new(MockRoleDirectory), new(MockTokenService))

	const callers = 8
	input := registerInput()

	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- auther.Register(context.Background(), input)
		}()
	}
	wg.Wait()
	close(results)

	var successes, duplicates int
	for err := range results {
		switch err {
		case nil:
			successes++
		case ident.ErrDuplicateAccount:
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, duplicates)
}

func TestAuther_Login(t *testing.T) {
	accountID := uuid.New()
	storedAccount := func() *ident.Account {
		return &ident.Account{
			ID:           accountID,
			Username:     "alice",
			Email:        "alice@example.com",
			PasswordHash: "hashed:" + validPassword,
		}
	}

	t.Run("returns sanitized account and token", func(t *testing.T) {
		accounts := new(MockAccountStore)
		tokens := new(MockTokenService)
		auther := newTestAuther(accounts, new(MockRoleDirectory), tokens)

		accounts.On("FindByUsername", mock.Anything, "alice").Return(storedAccount(), nil)
		accounts.On("GetRoles", mock.Anything, accountID.String()).Return([]string{"ADMIN", "USER"}, nil)
		tokens.On("Generate", mock.Anything, []string{"ADMIN", "USER"}).Return("signed-token", nil)

		account, token, err := auther.Login(context.Background(), "Alice", validPassword)

		require.NoError(t, err)
		assert.Equal(t, "signed-token", token)
		assert.Equal(t, "alice", account.Username)
		assert.Empty(t, account.PasswordHash)
		accounts.AssertExpectations(t)
		tokens.AssertExpectations(t)
	})

	t.Run("deduplicates roles before minting", func(t *testing.T) {
		accounts := new(MockAccountStore)
		tokens := new(MockTokenService)
		auther := newTestAuther(accounts, new(MockRoleDirectory), tokens)

		accounts.On("FindByUsername", mock.Anything, "alice").Return(storedAccount(), nil)
		accounts.On("GetRoles", mock.Anything, accountID.String()).Return([]string{"ADMIN", "ADMIN", "USER"}, nil)
		tokens.On("Generate", mock.Anything, []string{"ADMIN", "USER"}).Return("signed-token", nil)

		_, _, err := auther.Login(context.Background(), "alice", validPassword)

		require.NoError(t, err)
		tokens.AssertExpectations(t)
	})

	t.Run("unknown username and wrong password are indistinguishable", func(t *testing.T) {
		accounts := new(MockAccountStore)
		auther := newTestAuther(accounts, new(MockRoleDirectory), new(MockTokenService))

		accounts.On("FindByUsername", mock.Anything, "ghost").Return(nil, nil)
		accounts.On("FindByUsername", mock.Anything, "alice").Return(storedAccount(), nil)

		_, _, missErr := auther.Login(context.Background(), "ghost", validPassword)
		_, _, mismatchErr := auther.Login(context.Background(), "alice", "Wrong-Passw0rd!")

		require.Error(t, missErr)
		require.Error(t, mismatchErr)
		assert.Equal(t, missErr.Error(), mismatchErr.Error())
		assert.Equal(t, ident.ErrInvalidCredentials, missErr)
		assert.Equal(t, ident.ErrInvalidCredentials, mismatchErr)
	})

	t.Run("performs no mutation on success", func(t *testing.T) {
		// the mock would fail on any Create/AddRole call
		accounts := new(MockAccountStore)
		tokens := new(MockTokenService)
		auther := newTestAuther(accounts, new(MockRoleDirectory), tokens)

		accounts.On("FindByUsername", mock.Anything, "alice").Return(storedAccount(), nil)
		accounts.On("GetRoles", mock.Anything, accountID.String()).Return([]string{}, nil)
		tokens.On("Generate", mock.Anything, mock.Anything).Return("signed-token", nil)

		_, _, err := auther.Login(context.Background(), "alice", validPassword)

		require.NoError(t, err)
		accounts.AssertExpectations(t)
	})

	t.Run("store failure is surfaced generically", func(t *testing.T) {
		accounts := new(MockAccountStore)
		auther := newTestAuther(accounts, new(MockRoleDirectory), new(MockTokenService))

		accounts.On("FindByUsername", mock.Anything, "alice").
			Return(nil, fmt.Errorf("connection refused to db host 10.0.0.5"))

		_, _, err := auther.Login(context.Background(), "alice", validPassword)

		require.Error(t, err)
		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich))
		assert.Equal(t, goerrors.CategoryInternal, rich.Category)
		assert.Equal(t, "login failed", rich.Message)
	})
}

func TestAuther_AssignRole(t *testing.T) {
	accountID := uuid.New()
	storedAccount := func() *ident.Account {
		return &ident.Account{ID: accountID, Username: "alice"}
	}

	t.Run("assigns an existing role", func(t *testing.T) {
		accounts := new(MockAccountStore)
		roles := new(MockRoleDirectory)
		auther := newTestAuther(accounts, roles, new(MockTokenService))

		accounts.On("FindByUsername", mock.Anything, "alice").Return(storedAccount(), nil)
		roles.On("Exists", mock.Anything, "ADMIN").Return(true, nil)
		accounts.On("AddRole", mock.Anything, accountID.String(), "ADMIN").Return(nil)

		err := auther.AssignRole(context.Background(), "alice", "admin")

		require.NoError(t, err)
		accounts.AssertExpectations(t)
		roles.AssertExpectations(t)
	})

	t.Run("normalizes the role name before lookup and assignment", func(t *testing.T) {
		accounts := new(MockAccountStore)
		roles := new(MockRoleDirectory)
		auther := newTestAuther(accounts, roles, new(MockTokenService))

		accounts.On("FindByUsername", mock.Anything, "alice").Return(storedAccount(), nil)
		roles.On("Exists", mock.Anything, "ADMIN").Return(true, nil)
		accounts.On("AddRole", mock.Anything, accountID.String(), "ADMIN").Return(nil)

		// mixed case and surrounding whitespace both normalize away
		require.NoError(t, auther.AssignRole(context.Background(), "alice", " aDmIn "))
		require.NoError(t, auther.AssignRole(context.Background(), "alice", "ADMIN"))

		roles.AssertNumberOfCalls(t, "Exists", 2)
		accounts.AssertNumberOfCalls(t, "AddRole", 2)
	})

	t.Run("creates a missing role on demand", func(t *testing.T) {
		accounts := new(MockAccountStore)
		roles := new(MockRoleDirectory)
		auther := newTestAuther(accounts, roles, new(MockTokenService))

		accounts.On("FindByUsername", mock.Anything, "alice").Return(storedAccount(), nil)
		roles.On("Exists", mock.Anything, "AUDITOR").Return(false, nil)
		roles.On("Create", mock.Anything, "AUDITOR").Return(nil)
		accounts.On("AddRole", mock.Anything, accountID.String(), "AUDITOR").Return(nil)

		err := auther.AssignRole(context.Background(), "alice", "auditor")

		require.NoError(t, err)
		roles.AssertExpectations(t)
	})

	t.Run("unknown account touches no directory state", func(t *testing.T) {
		accounts := new(MockAccountStore)
		// no expectations: any directory call fails the test
		roles := new(MockRoleDirectory)
		auther := newTestAuther(accounts, roles, new(MockTokenService))

		accounts.On("FindByUsername", mock.Anything, "ghost").Return(nil, nil)

		err := auther.AssignRole(context.Background(), "ghost", "admin")

		assert.Equal(t, ident.ErrAccountNotFound, err)
		roles.AssertExpectations(t)
	})

	t.Run("empty role name is a validation error", func(t *testing.T) {
		accounts := new(MockAccountStore)
		auther := newTestAuther(accounts, new(MockRoleDirectory), new(MockTokenService))

		err := auther.AssignRole(context.Background(), "alice", "   ")

		require.Error(t, err)
		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich))
		assert.Equal(t, goerrors.CategoryValidation, rich.Category)
		accounts.AssertExpectations(t)
	})

	t.Run("membership add failure fails the operation", func(t *testing.T) {
		accounts := new(MockAccountStore)
		roles := new(MockRoleDirectory)
		auther := newTestAuther(accounts, roles, new(MockTokenService))

		accounts.On("FindByUsername", mock.Anything, "alice").Return(storedAccount(), nil)
		roles.On("Exists", mock.Anything, "ADMIN").Return(true, nil)
		accounts.On("AddRole", mock.Anything, accountID.String(), "ADMIN").
			Return(fmt.Errorf("disk full"))

		err := auther.AssignRole(context.Background(), "alice", "admin")

		require.Error(t, err)
		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich))
		assert.Equal(t, ident.TextCodeAssignmentFailed, rich.TextCode)
	})

	t.Run("role create failure fails the operation", func(t *testing.T) {
		accounts := new(MockAccountStore)
		roles := new(MockRoleDirectory)
		auther := newTestAuther(accounts, roles, new(MockTokenService))

		accounts.On("FindByUsername", mock.Anything, "alice").Return(storedAccount(), nil)
		roles.On("Exists", mock.Anything, "AUDITOR").Return(false, nil)
		roles.On("Create", mock.Anything, "AUDITOR").Return(fmt.Errorf("disk full"))

		err := auther.AssignRole(context.Background(), "alice", "auditor")

		require.Error(t, err)
		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich))
		assert.Equal(t, ident.TextCodeAssignmentFailed, rich.TextCode)
	})
}
