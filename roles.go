package ident

import "strings"

const (
	// RoleAdmin may manage accounts and assign roles.
	RoleAdmin = "ADMIN"
	// RoleUser is the standard authenticated role.
	RoleUser = "USER"
	// RoleGuest is a read-only role.
	RoleGuest = "GUEST"
)

// DefaultRoles returns the role set bootstrapped at startup. The directory is
// extensible at runtime; these are just the baseline.
func DefaultRoles() []string {
	return []string{RoleAdmin, RoleUser, RoleGuest}
}

// NormalizeRoleName upper-cases and trims a role name. Every directory lookup
// and assignment goes through this, so "admin" and "ADMIN" refer to the same
// role record.
func NormalizeRoleName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// DedupeRoles drops duplicate role names, preserving first-seen order. The
// token service does not deduplicate, so callers run this before minting.
func DedupeRoles(roles []string) []string {
	if len(roles) < 2 {
		return roles
	}
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
