package ident

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Password policy rule descriptions, reported verbatim to callers.
const (
	PolicyMinLength = "must be at least 8 characters long"
	PolicyDigit     = "must contain at least one digit"
	PolicyLowercase = "must contain at least one lowercase letter"
	PolicyUppercase = "must contain at least one uppercase letter"
	PolicySpecial   = "must contain at least one non-alphanumeric character"
)

var (
	reDigit   = regexp.MustCompile(`[0-9]`)
	reLower   = regexp.MustCompile(`[a-z]`)
	reUpper   = regexp.MustCompile(`[A-Z]`)
	reSpecial = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// PasswordPolicy is the pure validation rule set applied at registration.
// Zero value is unusable; construct with NewPasswordPolicy.
type PasswordPolicy struct {
	rules []policyRule
}

type policyRule struct {
	message string
	rule    validation.Rule
}

// NewPasswordPolicy returns the default policy: length >= 8 plus at least one
// digit, lowercase, uppercase, and non-alphanumeric character.
func NewPasswordPolicy() *PasswordPolicy {
	return &PasswordPolicy{
		rules: []policyRule{
			{PolicyMinLength, validation.Length(8, 0)},
			{PolicyDigit, validation.Match(reDigit)},
			{PolicyLowercase, validation.Match(reLower)},
			{PolicyUppercase, validation.Match(reUpper)},
			{PolicySpecial, validation.Match(reSpecial)},
		},
	}
}

// Validate returns nil when the password is accepted, otherwise every violated
// rule. Rules run individually (ozzo stops a rule chain at the first failure)
// so the caller always gets the complete list.
func (p *PasswordPolicy) Validate(password string) []string {
	// ozzo rules skip blank values, but an empty password violates
	// every rule we have.
	if password == "" {
		violations := make([]string, 0, len(p.rules))
		for _, r := range p.rules {
			violations = append(violations, r.message)
		}
		return violations
	}

	var violations []string
	for _, r := range p.rules {
		if err := validation.Validate(password, r.rule); err != nil {
			violations = append(violations, r.message)
		}
	}
	return violations
}
