// Package ident implements the credential and token issuance workflow for a
// multi-tenant application: account registration, login authentication, role
// assignment, and HMAC-signed bearer token minting.
//
// Collaborators:
//   - AccountStore and RoleDirectory own durable identity records and role
//     membership. The bun-backed implementations live in the repository
//     subpackage; any store enforcing username/email uniqueness atomically can
//     be plugged in.
//   - PasswordHasher is a black box that hashes and verifies secrets. The
//     default is bcrypt (see Hasher).
//
// The Auther orchestrator composes the collaborators into the three public
// operations (Register, Login, AssignRole). TokenService signs claim sets with
// a symmetric key fixed at construction; it never consults storage, so callers
// supply the authoritative role list when minting.
package ident
