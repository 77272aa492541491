package ident

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes surfaced to API clients alongside the HTTP status.
const (
	TextCodePasswordMismatch  = "PASSWORD_MISMATCH"
	TextCodePolicyViolation   = "PASSWORD_POLICY_VIOLATION"
	TextCodeDuplicateAccount  = "DUPLICATE_ACCOUNT"
	TextCodeInvalidCreds      = "INVALID_CREDENTIALS"
	TextCodeAccountNotFound   = "ACCOUNT_NOT_FOUND"
	TextCodeAssignmentFailed  = "ROLE_ASSIGNMENT_FAILED"
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeTokenMalformed    = "TOKEN_MALFORMED"
	TextCodeClaimsDecodeError = "CLAIMS_DECODE_ERROR"
	TextCodeEmptyPassword     = "EMPTY_PASSWORD"
)

// ErrPasswordMismatch is returned by Register when the confirmation does not
// match the password.
var ErrPasswordMismatch = errors.New("password and confirmation do not match", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodePasswordMismatch)

// ErrDuplicateAccount is returned by Register when the username or email is
// already taken. The message is deliberately generic.
var ErrDuplicateAccount = errors.New("an account with that username or email already exists", errors.CategoryConflict).
	WithCode(errors.CodeConflict).
	WithTextCode(TextCodeDuplicateAccount)

// ErrInvalidCredentials is the single error Login returns for both unknown
// usernames and wrong passwords, so callers cannot enumerate accounts.
var ErrInvalidCredentials = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCreds)

// ErrAccountNotFound is returned by AssignRole for unknown usernames.
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode(TextCodeAccountNotFound)

// ErrAssignmentFailed wraps unexpected storage failures during role
// assignment. Internal detail stays in the logs, never in the response.
var ErrAssignmentFailed = errors.New("unable to assign role", errors.CategoryInternal).
	WithCode(errors.CodeInternal).
	WithTextCode(TextCodeAssignmentFailed)

// ErrMismatchedHashAndPassword is what PasswordHasher.Verify returns on a
// plaintext/hash mismatch.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCreds)

// ErrNoEmptyString rejects empty plaintext before hashing.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// ErrTokenExpired marks tokens past their exp claim.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed marks tokens that fail parsing or signature checks.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrUnableToDecodeClaims marks tokens whose claims cannot be mapped.
var ErrUnableToDecodeClaims = errors.New("unable to decode claims", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeClaimsDecodeError)

// NewPolicyError builds the validation error Register returns when the
// password fails policy. Every violated rule rides along in metadata so
// clients can render the complete list at once.
func NewPolicyError(violations []string) *errors.Error {
	return errors.New("password does not meet the security policy", errors.CategoryValidation).
		WithCode(errors.CodeBadRequest).
		WithTextCode(TextCodePolicyViolation).
		WithMetadata(map[string]any{"violations": violations})
}

// PolicyViolations extracts the violation list from a policy error, or nil if
// err is not one.
func PolicyViolations(err error) []string {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return nil
	}
	if rich.TextCode != TextCodePolicyViolation || rich.Metadata == nil {
		return nil
	}
	if v, ok := rich.Metadata["violations"].([]string); ok {
		return v
	}
	return nil
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
