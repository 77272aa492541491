package ident_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lockhart-io/ident"
)

// MockAccountStore implements ident.AccountStore
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) FindByUsername(ctx context.Context, username string) (*ident.Account, error) {
	args := m.Called(ctx, username)
	account, _ := args.Get(0).(*ident.Account)
	return account, args.Error(1)
}

func (m *MockAccountStore) FindByEmail(ctx context.Context, email string) (*ident.Account, error) {
	args := m.Called(ctx, email)
	account, _ := args.Get(0).(*ident.Account)
	return account, args.Error(1)
}

func (m *MockAccountStore) FindByID(ctx context.Context, id string) (*ident.Account, error) {
	args := m.Called(ctx, id)
	account, _ := args.Get(0).(*ident.Account)
	return account, args.Error(1)
}

func (m *MockAccountStore) Create(ctx context.Context, account *ident.Account, passwordHash string) (*ident.Account, error) {
	args := m.Called(ctx, account, passwordHash)
	created, _ := args.Get(0).(*ident.Account)
	return created, args.Error(1)
}

func (m *MockAccountStore) GetRoles(ctx context.Context, accountID string) ([]string, error) {
	args := m.Called(ctx, accountID)
	roles, _ := args.Get(0).([]string)
	return roles, args.Error(1)
}

func (m *MockAccountStore) AddRole(ctx context.Context, accountID, roleName string) error {
	args := m.Called(ctx, accountID, roleName)
	return args.Error(0)
}

// MockRoleDirectory implements ident.RoleDirectory
type MockRoleDirectory struct {
	mock.Mock
}

func (m *MockRoleDirectory) Exists(ctx context.Context, roleName string) (bool, error) {
	args := m.Called(ctx, roleName)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoleDirectory) Create(ctx context.Context, roleName string) error {
	args := m.Called(ctx, roleName)
	return args.Error(0)
}

func (m *MockRoleDirectory) EnsureRoles(ctx context.Context, roleNames ...string) error {
	args := m.Called(ctx, roleNames)
	return args.Error(0)
}

// MockPasswordHasher implements ident.PasswordHasher
type MockPasswordHasher struct {
	mock.Mock
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(password, hash string) error {
	args := m.Called(password, hash)
	return args.Error(0)
}

// MockTokenService implements ident.TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Generate(identity ident.Identity, roles []string) (string, error) {
	args := m.Called(identity, roles)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) SignClaims(claims *ident.JWTClaims) (string, error) {
	args := m.Called(claims)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) Validate(tokenString string) (ident.AuthClaims, error) {
	args := m.Called(tokenString)
	claims, _ := args.Get(0).(ident.AuthClaims)
	return claims, args.Error(1)
}

// MockLogger implements ident.Logger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// noopLogger keeps orchestrator noise out of test output.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
